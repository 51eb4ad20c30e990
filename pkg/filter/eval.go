package filter

import (
	"fmt"
	"strings"

	"github.com/quirelab/quire/pkg/model"
)

// Evaluator matches records against filter expressions.
//
// The default policy is lenient: a leaf whose types do not line up
// (unknown field, unorderable kind, operand of the wrong shape) evaluates
// to false, narrowing results instead of aborting the query. A mismatch
// fails the whole leaf, so neq and not_in do not invert it. In strict
// mode the same conditions return an error: model.ErrValidation for
// unknown fields and malformed nodes, model.ErrUnsupportedOperator for
// kind and operand mismatches.
//
// A missing or null attribute matches no predicate except is_null, which
// means neq and not_in do match records that lack the field. String
// equality and list membership are exact; the case-insensitive rules
// apply to contains, starts_with, ends_with and to range comparison.
type Evaluator struct {
	schema model.Schema
	strict bool
}

// NewEvaluator creates an evaluator bound to a schema. strict selects the
// error-raising policy for type mismatches.
func NewEvaluator(schema model.Schema, strict bool) *Evaluator {
	return &Evaluator{schema: schema, strict: strict}
}

// Strict reports whether the evaluator raises on type mismatches.
func (ev *Evaluator) Strict() bool {
	return ev.strict
}

// Matches evaluates e against r. A nil expression matches every record.
// Every leaf is evaluated independently against the full record; sibling
// branches never observe each other's outcome.
func (ev *Evaluator) Matches(r model.Record, e Expr) (bool, error) {
	switch x := e.(type) {
	case nil:
		return true, nil
	case AndExpr:
		for _, child := range x.Children {
			ok, err := ev.Matches(r, child)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case OrExpr:
		for _, child := range x.Children {
			ok, err := ev.Matches(r, child)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case NotExpr:
		if x.Child == nil {
			if ev.strict {
				return false, fmt.Errorf("%w: not requires a child", model.ErrValidation)
			}
			return false, nil
		}
		ok, err := ev.Matches(r, x.Child)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case Leaf:
		return ev.leaf(r, x)
	default:
		if ev.strict {
			return false, fmt.Errorf("%w: unknown filter node %T", model.ErrValidation, e)
		}
		return false, nil
	}
}

func (ev *Evaluator) leaf(r model.Record, leaf Leaf) (bool, error) {
	kind, known := ev.schema.Kind(leaf.Field)
	if !known {
		if ev.strict {
			return false, fmt.Errorf("%w: unknown filter field %q", model.ErrValidation, leaf.Field)
		}
		return false, nil
	}
	if !leaf.Op.IsValid() {
		if ev.strict {
			return false, fmt.Errorf("%w: unknown filter operator %q", model.ErrValidation, leaf.Op)
		}
		return false, nil
	}

	value := model.NormalizeValue(r[leaf.Field])

	switch leaf.Op {
	case OpIsNull:
		return value == nil, nil
	case OpIsNotNull:
		return value != nil, nil
	}

	operand := model.NormalizeValue(leaf.Operand)

	var matched bool
	var mismatch string

	switch leaf.Op {
	case OpEq:
		matched, mismatch = equalLeaf(value, operand)
	case OpNeq:
		matched, mismatch = equalLeaf(value, operand)
		if mismatch == "" {
			matched = !matched
		}
	case OpGt, OpGte, OpLt, OpLte:
		matched, mismatch = orderedLeaf(leaf.Op, kind, value, operand)
	case OpIn:
		matched, mismatch = memberLeaf(value, leaf.Operand)
	case OpNotIn:
		matched, mismatch = memberLeaf(value, leaf.Operand)
		if mismatch == "" {
			matched = !matched
		}
	case OpContains, OpStartsWith, OpEndsWith:
		matched, mismatch = stringLeaf(leaf.Op, kind, value, operand)
	}

	if mismatch != "" {
		if ev.strict {
			return false, fmt.Errorf("%w: %s on field %q", model.ErrUnsupportedOperator, mismatch, leaf.Field)
		}
		return false, nil
	}
	return matched, nil
}

// equalLeaf is exact equality within the value domain: strings and bools
// by identity, numbers and timestamps by numeric value. Cross-class
// values are cleanly unequal, not a mismatch, so eq stays total.
func equalLeaf(value, operand interface{}) (matched bool, mismatch string) {
	if operand == nil {
		return false, "operator requires an operand"
	}
	if value == nil {
		return false, ""
	}
	return valuesEqual(value, operand), ""
}

func orderedLeaf(op Op, kind model.Kind, value, operand interface{}) (matched bool, mismatch string) {
	if !kind.Orderable() {
		return false, fmt.Sprintf("operator %q needs an orderable kind, got %s", op, kind)
	}
	if operand == nil {
		return false, "operator requires an operand"
	}
	if value == nil {
		return false, ""
	}
	if !sameClass(value, operand) {
		return false, fmt.Sprintf("operator %q operand type %T does not match value type %T", op, operand, value)
	}

	cmp := model.CompareValues(value, operand)
	switch op {
	case OpGt:
		return cmp > 0, ""
	case OpGte:
		return cmp >= 0, ""
	case OpLt:
		return cmp < 0, ""
	case OpLte:
		return cmp <= 0, ""
	}
	return false, ""
}

func memberLeaf(value, operand interface{}) (matched bool, mismatch string) {
	list := operandList(operand)
	if list == nil {
		return false, "operator requires a list operand"
	}
	if value == nil {
		return false, ""
	}
	for _, candidate := range list {
		if candidate != nil && valuesEqual(value, candidate) {
			return true, ""
		}
	}
	return false, ""
}

func stringLeaf(op Op, kind model.Kind, value, operand interface{}) (matched bool, mismatch string) {
	if kind != model.KindString {
		return false, fmt.Sprintf("operator %q applies to string fields, got %s", op, kind)
	}
	needle, ok := operand.(string)
	if !ok {
		return false, fmt.Sprintf("operator %q requires a string operand, got %T", op, operand)
	}
	haystack, ok := value.(string)
	if !ok {
		// Absent attribute or off-schema data in the record.
		return false, ""
	}

	haystack = strings.ToLower(haystack)
	needle = strings.ToLower(needle)
	switch op {
	case OpContains:
		return strings.Contains(haystack, needle), ""
	case OpStartsWith:
		return strings.HasPrefix(haystack, needle), ""
	case OpEndsWith:
		return strings.HasSuffix(haystack, needle), ""
	}
	return false, ""
}

func valuesEqual(a, b interface{}) bool {
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr || bStr {
		return aStr && bStr && as == bs
	}
	if !sameClass(a, b) {
		return false
	}
	return model.CompareValues(a, b) == 0
}

func sameClass(a, b interface{}) bool {
	ka, aOK := model.KindOf(a)
	kb, bOK := model.KindOf(b)
	if !aOK || !bOK {
		return false
	}
	if ka == kb {
		return true
	}
	return numericKind(ka) && numericKind(kb)
}

func numericKind(k model.Kind) bool {
	return k == model.KindInt || k == model.KindFloat || k == model.KindTime
}
