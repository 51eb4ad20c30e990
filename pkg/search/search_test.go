package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelab/quire/pkg/model"
)

func TestScore_Tiers(t *testing.T) {
	cfg := Config{Fields: []Field{
		{Name: "title"},
		{Name: "family", Role: RoleComponent},
	}}

	tests := []struct {
		name   string
		record model.Record
		query  string
		want   int
	}{
		{
			name:   "exact full field",
			record: model.Record{"id": "1", "title": "Blue Note"},
			query:  "blue note",
			want:   WeightExact,
		},
		{
			name:   "exact is case-insensitive",
			record: model.Record{"id": "1", "title": "BLUE NOTE"},
			query:  "Blue Note",
			want:   WeightExact,
		},
		{
			name:   "substring on full field",
			record: model.Record{"id": "1", "title": "Kind of Blue"},
			query:  "of bl",
			want:   WeightSubstring,
		},
		{
			name:   "prefix on component field",
			record: model.Record{"id": "1", "family": "Fitzgerald"},
			query:  "fitz",
			want:   WeightPrefix,
		},
		{
			name:   "exact beats prefix on component field",
			record: model.Record{"id": "1", "family": "Fitzgerald"},
			query:  "fitzgerald",
			want:   WeightExact,
		},
		{
			name:   "component field ignores interior substring",
			record: model.Record{"id": "1", "family": "Fitzgerald"},
			query:  "gerald",
			want:   0,
		},
		{
			name:   "fields accumulate",
			record: model.Record{"id": "1", "title": "Ella in Berlin", "family": "Ella"},
			query:  "ella",
			want:   WeightSubstring + WeightExact,
		},
		{
			name:   "no match scores zero",
			record: model.Record{"id": "1", "title": "Mingus Ah Um"},
			query:  "coltrane",
			want:   0,
		},
		{
			name:   "non-string value is skipped",
			record: model.Record{"id": "1", "title": 42},
			query:  "42",
			want:   0,
		},
		{
			name:   "blank query scores zero",
			record: model.Record{"id": "1", "title": "anything"},
			query:  "   ",
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.query, tt.record, cfg))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	schema := model.NewSchema(map[string]model.Kind{
		"title": model.KindString,
		"count": model.KindInt,
	})

	require.NoError(t, Config{Fields: []Field{{Name: "title"}}}.Validate(schema))
	require.NoError(t, Config{Fields: []Field{{Name: "title", Role: RoleComponent}}}.Validate(schema))

	err := Config{}.Validate(schema)
	require.ErrorIs(t, err, model.ErrValidation)

	err = Config{Fields: []Field{{Name: "missing"}}}.Validate(schema)
	require.ErrorIs(t, err, model.ErrValidation)

	err = Config{Fields: []Field{{Name: "count"}}}.Validate(schema)
	require.ErrorIs(t, err, model.ErrValidation)

	err = Config{Fields: []Field{{Name: "title", Role: "fuzzy"}}}.Validate(schema)
	require.ErrorIs(t, err, model.ErrValidation)
}
