package gateway

import (
	"time"

	"github.com/quirelab/quire/pkg/filter"
	"github.com/quirelab/quire/pkg/model"
)

// CoerceTimeOperands rewrites string operands on time-kinded fields into
// timestamps. JSON has no native timestamp, so the wire form carries
// RFC 3339 strings; the engine compares values only within their class.
// Strings that do not parse are left alone and fail the leaf under the
// engine's mismatch policy.
func CoerceTimeOperands(e filter.Expr, schema model.Schema) filter.Expr {
	switch x := e.(type) {
	case filter.AndExpr:
		children := make([]filter.Expr, len(x.Children))
		for i, c := range x.Children {
			children[i] = CoerceTimeOperands(c, schema)
		}
		return filter.AndExpr{Children: children}
	case filter.OrExpr:
		children := make([]filter.Expr, len(x.Children))
		for i, c := range x.Children {
			children[i] = CoerceTimeOperands(c, schema)
		}
		return filter.OrExpr{Children: children}
	case filter.NotExpr:
		return filter.NotExpr{Child: CoerceTimeOperands(x.Child, schema)}
	case filter.Leaf:
		if kind, ok := schema.Kind(x.Field); !ok || kind != model.KindTime {
			return x
		}
		switch operand := x.Operand.(type) {
		case string:
			if t, err := time.Parse(time.RFC3339, operand); err == nil {
				x.Operand = t
			}
		case []interface{}:
			out := make([]interface{}, len(operand))
			for i, v := range operand {
				out[i] = v
				if s, isStr := v.(string); isStr {
					if t, err := time.Parse(time.RFC3339, s); err == nil {
						out[i] = t
					}
				}
			}
			x.Operand = out
		}
		return x
	default:
		return e
	}
}
