package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelab/quire/pkg/model"
)

func TestParse_Leaf(t *testing.T) {
	expr, err := Parse([]byte(`{"field":"status","op":"eq","value":"ACTIVE"}`))
	require.NoError(t, err)
	assert.Equal(t, Leaf{Field: "status", Op: OpEq, Operand: "ACTIVE"}, expr)

	expr, err = Parse([]byte(`{"field":"status","op":"is_null"}`))
	require.NoError(t, err)
	assert.Equal(t, Leaf{Field: "status", Op: OpIsNull}, expr)

	expr, err = Parse([]byte(`{"field":"age","op":"in","value":[30,36]}`))
	require.NoError(t, err)
	leaf, ok := expr.(Leaf)
	require.True(t, ok)
	assert.Equal(t, OpIn, leaf.Op)
	assert.Equal(t, []interface{}{float64(30), float64(36)}, leaf.Operand)
}

func TestParse_Nested(t *testing.T) {
	data := []byte(`{
		"and": [
			{"field": "status", "op": "eq", "value": "ACTIVE"},
			{"or": [
				{"field": "age", "op": "gt", "value": 30},
				{"not": {"field": "name", "op": "starts_with", "value": "z"}}
			]}
		]
	}`)

	expr, err := Parse(data)
	require.NoError(t, err)

	and, ok := expr.(AndExpr)
	require.True(t, ok)
	require.Len(t, and.Children, 2)

	or, ok := and.Children[1].(OrExpr)
	require.True(t, ok)
	require.Len(t, or.Children, 2)

	not, ok := or.Children[1].(NotExpr)
	require.True(t, ok)
	assert.Equal(t, Leaf{Field: "name", Op: OpStartsWith, Operand: "z"}, not.Child)
}

func TestParse_EmptyCombinators(t *testing.T) {
	expr, err := Parse([]byte(`{"and":[]}`))
	require.NoError(t, err)
	assert.Equal(t, AndExpr{Children: []Expr{}}, expr)

	expr, err = Parse([]byte(`{"or":[]}`))
	require.NoError(t, err)
	assert.Equal(t, OrExpr{Children: []Expr{}}, expr)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"empty object", `{}`},
		{"two branches", `{"and":[],"or":[]}`},
		{"null child", `{"and":[null]}`},
		{"unknown op", `{"field":"status","op":"like","value":"x"}`},
		{"missing value", `{"field":"status","op":"eq"}`},
		{"null value for eq", `{"field":"status","op":"eq","value":null}`},
		{"null not", `{"not":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestParse_ErrorNamesPath(t *testing.T) {
	_, err := Parse([]byte(`{"and":[{"field":"a","op":"eq","value":1},{"or":[{"field":"b","op":"like","value":2}]}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter.and[1].or[0]")
}

func TestMarshal_RoundTrip(t *testing.T) {
	exprs := []Expr{
		Leaf{Field: "status", Op: OpEq, Operand: "ACTIVE"},
		Leaf{Field: "status", Op: OpIsNull},
		And(),
		Or(),
		And(
			Leaf{Field: "status", Op: OpIn, Operand: []interface{}{"A", "B"}},
			Not(Leaf{Field: "name", Op: OpContains, Operand: "ada"}),
			Or(Leaf{Field: "score", Op: OpGte, Operand: float64(5)}),
		),
	}

	for _, e := range exprs {
		data, err := Marshal(e)
		require.NoError(t, err)
		back, err := Parse(data)
		require.NoError(t, err, "payload: %s", data)

		// Numbers come back as json floats; compare through re-marshal.
		again, err := Marshal(back)
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(again))
	}
}

func TestMarshal_NilAndInvalid(t *testing.T) {
	data, err := Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	_, err = Marshal(Not(nil))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = Marshal(And(nil))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = Marshal(Leaf{Field: "f", Op: OpEq, Operand: make(chan int)})
	assert.ErrorIs(t, err, model.ErrValidation)
}
