package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelab/quire/pkg/filter"
	"github.com/quirelab/quire/pkg/model"
)

func TestEngine_Stream_OrderedDelivery(t *testing.T) {
	eng := New(testSchema(), Options{})
	records := testRecords(30)
	active := filter.Leaf{Field: "status", Op: filter.OpEq, Operand: "ACTIVE"}

	var seen []string
	err := eng.Stream(context.Background(), records, active, byID(), func(r model.Record) error {
		seen = append(seen, r.GetID())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4", "7", "10", "13", "16", "19", "22", "25", "28"}, seen)
}

func TestEngine_Stream_ConsumerErrorAborts(t *testing.T) {
	eng := New(testSchema(), Options{})
	records := testRecords(30)
	boom := errors.New("consumer failed")

	calls := 0
	err := eng.Stream(context.Background(), records, nil, byID(), func(model.Record) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestEngine_Stream_CancelStopsMidway(t *testing.T) {
	eng := New(testSchema(), Options{})
	records := testRecords(30)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := eng.Stream(ctx, records, nil, byID(), func(model.Record) error {
		calls++
		if calls == 5 {
			cancel()
		}
		return nil
	})
	require.ErrorIs(t, err, model.ErrCanceled)
	assert.Equal(t, 5, calls)
}

func TestEngine_Stream_StrictFilterError(t *testing.T) {
	eng := New(testSchema(), Options{StrictFilters: true})
	records := testRecords(10)
	badLeaf := filter.Leaf{Field: "score", Op: filter.OpStartsWith, Operand: "1"}

	err := eng.Stream(context.Background(), records, badLeaf, byID(), func(model.Record) error {
		t.Fatal("no record should be delivered")
		return nil
	})
	require.ErrorIs(t, err, model.ErrUnsupportedOperator)
}
