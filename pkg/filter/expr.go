// Package filter implements the nested boolean expressions the engine
// prunes record sets with: leaf predicates composed with And, Or and Not.
// Evaluation is a recursive fold over the tree with an explicit lenient
// or strict policy for type mismatches.
package filter

import (
	"fmt"

	"github.com/quirelab/quire/pkg/model"
)

// Op defines the supported leaf predicate operators.
type Op string

const (
	OpEq         Op = "eq"          // Equal
	OpNeq        Op = "neq"         // Not equal
	OpGt         Op = "gt"          // Greater than
	OpGte        Op = "gte"         // Greater than or equal
	OpLt         Op = "lt"          // Less than
	OpLte        Op = "lte"         // Less than or equal
	OpIn         Op = "in"          // Value in operand list
	OpNotIn      Op = "not_in"      // Value not in operand list
	OpContains   Op = "contains"    // String contains operand
	OpStartsWith Op = "starts_with" // String starts with operand
	OpEndsWith   Op = "ends_with"   // String ends with operand
	OpIsNull     Op = "is_null"     // Attribute absent or null
	OpIsNotNull  Op = "is_not_null" // Attribute present and non-null
)

// ValidOps returns all valid leaf operators.
func ValidOps() []Op {
	return []Op{
		OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte,
		OpIn, OpNotIn, OpContains, OpStartsWith, OpEndsWith,
		OpIsNull, OpIsNotNull,
	}
}

// IsValid checks if the operator is valid.
func (op Op) IsValid() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte,
		OpIn, OpNotIn, OpContains, OpStartsWith, OpEndsWith,
		OpIsNull, OpIsNotNull:
		return true
	}
	return false
}

// NeedsOperand reports whether the operator takes an operand value.
func (op Op) NeedsOperand() bool {
	switch op {
	case OpIsNull, OpIsNotNull:
		return false
	}
	return true
}

// Expr is a node in a filter expression tree. A nil Expr matches every
// record.
type Expr interface {
	isExpr()
}

// Leaf is a single (field, operator, operand) predicate.
type Leaf struct {
	Field   string
	Op      Op
	Operand interface{}
}

// AndExpr matches when every child matches. With no children it matches
// everything, the identity element of conjunction.
type AndExpr struct {
	Children []Expr
}

// OrExpr matches when at least one child matches. With no children it
// matches nothing, the identity element of disjunction.
type OrExpr struct {
	Children []Expr
}

// NotExpr inverts its child.
type NotExpr struct {
	Child Expr
}

func (Leaf) isExpr()    {}
func (AndExpr) isExpr() {}
func (OrExpr) isExpr()  {}
func (NotExpr) isExpr() {}

// And combines children conjunctively.
func And(children ...Expr) Expr {
	return AndExpr{Children: children}
}

// Or combines children disjunctively.
func Or(children ...Expr) Expr {
	return OrExpr{Children: children}
}

// Not inverts child.
func Not(child Expr) Expr {
	return NotExpr{Child: child}
}

// Validate checks the tree's structure against a schema: fields must
// exist, operators must be valid, and operand shapes must fit the
// operator. Kind applicability is the evaluator's concern, not Validate's.
func Validate(e Expr, schema model.Schema) error {
	switch x := e.(type) {
	case nil:
		return nil
	case AndExpr:
		for _, child := range x.Children {
			if child == nil {
				return fmt.Errorf("%w: and contains a null node", model.ErrValidation)
			}
			if err := Validate(child, schema); err != nil {
				return err
			}
		}
		return nil
	case OrExpr:
		for _, child := range x.Children {
			if child == nil {
				return fmt.Errorf("%w: or contains a null node", model.ErrValidation)
			}
			if err := Validate(child, schema); err != nil {
				return err
			}
		}
		return nil
	case NotExpr:
		if x.Child == nil {
			return fmt.Errorf("%w: not requires a child", model.ErrValidation)
		}
		return Validate(x.Child, schema)
	case Leaf:
		return validateLeaf(x, schema)
	default:
		return fmt.Errorf("%w: unknown filter node %T", model.ErrValidation, e)
	}
}

func validateLeaf(leaf Leaf, schema model.Schema) error {
	if leaf.Field == "" {
		return fmt.Errorf("%w: filter field cannot be empty", model.ErrValidation)
	}
	if !schema.Has(leaf.Field) {
		return fmt.Errorf("%w: unknown filter field %q", model.ErrValidation, leaf.Field)
	}
	if !leaf.Op.IsValid() {
		return fmt.Errorf("%w: unknown filter operator %q", model.ErrValidation, leaf.Op)
	}
	if leaf.Op.NeedsOperand() && leaf.Operand == nil {
		return fmt.Errorf("%w: operator %q requires an operand", model.ErrValidation, leaf.Op)
	}
	if (leaf.Op == OpIn || leaf.Op == OpNotIn) && operandList(leaf.Operand) == nil {
		return fmt.Errorf("%w: operator %q requires a list operand", model.ErrValidation, leaf.Op)
	}
	return nil
}

// operandList coerces an in/not_in operand into a normalized value slice,
// or nil when the operand is not a list.
func operandList(operand interface{}) []interface{} {
	switch xs := operand.(type) {
	case []interface{}:
		out := make([]interface{}, len(xs))
		for i, v := range xs {
			out[i] = model.NormalizeValue(v)
		}
		return out
	case []string:
		out := make([]interface{}, len(xs))
		for i, v := range xs {
			out[i] = v
		}
		return out
	}
	return nil
}
