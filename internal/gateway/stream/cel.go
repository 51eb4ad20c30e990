package stream

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/quirelab/quire/pkg/filter"
)

// compileMatcher turns a filter tree into a CEL program evaluated against
// live store events. Snapshots run through the engine's own evaluator;
// compiling the same tree once per subscription keeps the per-event cost
// down to a program invocation. A nil tree compiles to a nil program,
// which matches everything.
func compileMatcher(expr filter.Expr) (cel.Program, error) {
	if expr == nil {
		return nil, nil
	}

	src, err := exprToCEL(expr)
	if err != nil {
		return nil, err
	}

	env, err := cel.NewEnv(
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("creating CEL env: %w", err)
	}

	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling filter: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building filter program: %w", err)
	}
	return prg, nil
}

func exprToCEL(e filter.Expr) (string, error) {
	switch x := e.(type) {
	case filter.AndExpr:
		if len(x.Children) == 0 {
			return "true", nil
		}
		return joinChildren(x.Children, " && ")
	case filter.OrExpr:
		if len(x.Children) == 0 {
			return "false", nil
		}
		return joinChildren(x.Children, " || ")
	case filter.NotExpr:
		child, err := exprToCEL(x.Child)
		if err != nil {
			return "", err
		}
		return "!(" + child + ")", nil
	case filter.Leaf:
		return leafToCEL(x)
	default:
		return "", fmt.Errorf("unsupported filter node %T", e)
	}
}

func joinChildren(children []filter.Expr, sep string) (string, error) {
	parts := make([]string, len(children))
	for i, c := range children {
		src, err := exprToCEL(c)
		if err != nil {
			return "", err
		}
		parts[i] = src
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func leafToCEL(leaf filter.Leaf) (string, error) {
	name := celString(leaf.Field)
	field := "record[" + name + "]"

	switch leaf.Op {
	case filter.OpIsNull:
		return fmt.Sprintf("(!(%s in record) || %s == null)", name, field), nil
	case filter.OpIsNotNull:
		return fmt.Sprintf("(%s in record && %s != null)", name, field), nil
	}

	operand, err := formatOperand(leaf.Operand)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", leaf.Field, err)
	}

	switch leaf.Op {
	case filter.OpEq:
		return fmt.Sprintf("%s == %s", field, operand), nil
	case filter.OpNeq:
		return fmt.Sprintf("%s != %s", field, operand), nil
	case filter.OpGt:
		return fmt.Sprintf("%s > %s", field, operand), nil
	case filter.OpGte:
		return fmt.Sprintf("%s >= %s", field, operand), nil
	case filter.OpLt:
		return fmt.Sprintf("%s < %s", field, operand), nil
	case filter.OpLte:
		return fmt.Sprintf("%s <= %s", field, operand), nil
	case filter.OpIn:
		return fmt.Sprintf("%s in %s", field, operand), nil
	case filter.OpNotIn:
		return fmt.Sprintf("!(%s in %s)", field, operand), nil
	case filter.OpContains:
		return fmt.Sprintf("%s.contains(%s)", field, operand), nil
	case filter.OpStartsWith:
		return fmt.Sprintf("%s.startsWith(%s)", field, operand), nil
	case filter.OpEndsWith:
		return fmt.Sprintf("%s.endsWith(%s)", field, operand), nil
	default:
		return "", fmt.Errorf("unsupported filter operator %q", leaf.Op)
	}
}

func formatOperand(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return celString(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		s := strconv.FormatFloat(x, 'g', -1, 64)
		// A bare integral float would read as an int literal.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, nil
	case time.Time:
		return "timestamp(" + celString(x.UTC().Format(time.RFC3339Nano)) + ")", nil
	case []interface{}:
		parts := make([]string, len(x))
		for i, item := range x {
			s, err := formatOperand(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", fmt.Errorf("unsupported operand type %T", v)
	}
}

var celEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func celString(s string) string {
	return "'" + celEscaper.Replace(s) + "'"
}
