package filter

import (
	"encoding/json"
	"fmt"

	"github.com/quirelab/quire/pkg/model"
)

// Wire form of an expression tree. Exactly one of and/or/not/field is set
// per node:
//
//	{"and": [node, ...]}
//	{"or":  [node, ...]}
//	{"not": node}
//	{"field": "status", "op": "eq", "value": "ACTIVE"}
type node struct {
	And   []*node         `json:"and,omitempty"`
	Or    []*node         `json:"or,omitempty"`
	Not   *node           `json:"not,omitempty"`
	Field string          `json:"field,omitempty"`
	Op    Op              `json:"op,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON emits the single set branch explicitly so that empty
// combinators survive the round trip (omitempty would drop "and": []).
func (n node) MarshalJSON() ([]byte, error) {
	switch {
	case n.And != nil:
		return json.Marshal(map[string][]*node{"and": n.And})
	case n.Or != nil:
		return json.Marshal(map[string][]*node{"or": n.Or})
	case n.Not != nil:
		return json.Marshal(map[string]*node{"not": n.Not})
	default:
		leaf := struct {
			Field string          `json:"field"`
			Op    Op              `json:"op"`
			Value json.RawMessage `json:"value,omitempty"`
		}{n.Field, n.Op, n.Value}
		return json.Marshal(leaf)
	}
}

// Parse decodes the JSON wire form into an expression tree. Errors wrap
// model.ErrValidation and name the offending node path.
func Parse(data []byte) (Expr, error) {
	var n node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%w: invalid filter json: %v", model.ErrValidation, err)
	}
	return n.toExpr("filter")
}

func (n *node) toExpr(path string) (Expr, error) {
	set := 0
	if n.And != nil {
		set++
	}
	if n.Or != nil {
		set++
	}
	if n.Not != nil {
		set++
	}
	if n.Field != "" {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: %s must set exactly one of and, or, not, field", model.ErrValidation, path)
	}

	switch {
	case n.And != nil:
		children, err := childExprs(n.And, path+".and")
		if err != nil {
			return nil, err
		}
		return AndExpr{Children: children}, nil
	case n.Or != nil:
		children, err := childExprs(n.Or, path+".or")
		if err != nil {
			return nil, err
		}
		return OrExpr{Children: children}, nil
	case n.Not != nil:
		child, err := n.Not.toExpr(path + ".not")
		if err != nil {
			return nil, err
		}
		return NotExpr{Child: child}, nil
	default:
		return n.toLeaf(path)
	}
}

func childExprs(nodes []*node, path string) ([]Expr, error) {
	children := make([]Expr, 0, len(nodes))
	for i, child := range nodes {
		childPath := fmt.Sprintf("%s[%d]", path, i)
		if child == nil {
			return nil, fmt.Errorf("%w: %s is null", model.ErrValidation, childPath)
		}
		expr, err := child.toExpr(childPath)
		if err != nil {
			return nil, err
		}
		children = append(children, expr)
	}
	return children, nil
}

func (n *node) toLeaf(path string) (Expr, error) {
	if !n.Op.IsValid() {
		return nil, fmt.Errorf("%w: %s has unknown operator %q", model.ErrValidation, path, n.Op)
	}

	var operand interface{}
	if len(n.Value) > 0 {
		if err := json.Unmarshal(n.Value, &operand); err != nil {
			return nil, fmt.Errorf("%w: %s has an invalid value: %v", model.ErrValidation, path, err)
		}
	}
	if n.Op.NeedsOperand() && operand == nil {
		return nil, fmt.Errorf("%w: %s operator %q requires a value", model.ErrValidation, path, n.Op)
	}

	return Leaf{Field: n.Field, Op: n.Op, Operand: operand}, nil
}

// Marshal encodes an expression tree into its JSON wire form. A nil
// expression marshals to null.
func Marshal(e Expr) ([]byte, error) {
	n, err := toNode(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

func toNode(e Expr) (*node, error) {
	switch x := e.(type) {
	case nil:
		return nil, nil
	case AndExpr:
		children, err := toNodes(x.Children)
		if err != nil {
			return nil, err
		}
		return &node{And: children}, nil
	case OrExpr:
		children, err := toNodes(x.Children)
		if err != nil {
			return nil, err
		}
		return &node{Or: children}, nil
	case NotExpr:
		if x.Child == nil {
			return nil, fmt.Errorf("%w: not requires a child", model.ErrValidation)
		}
		child, err := toNode(x.Child)
		if err != nil {
			return nil, err
		}
		return &node{Not: child}, nil
	case Leaf:
		value, err := json.Marshal(x.Operand)
		if err != nil {
			return nil, fmt.Errorf("%w: operand for field %q is not serializable: %v", model.ErrValidation, x.Field, err)
		}
		n := &node{Field: x.Field, Op: x.Op}
		if x.Operand != nil {
			n.Value = value
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: unknown filter node %T", model.ErrValidation, e)
	}
}

func toNodes(children []Expr) ([]*node, error) {
	nodes := make([]*node, 0, len(children))
	for _, child := range children {
		n, err := toNode(child)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, fmt.Errorf("%w: combinator contains a null node", model.ErrValidation)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
