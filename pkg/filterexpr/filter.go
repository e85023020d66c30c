package filterexpr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/overloads"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

var comparisons = map[string]Op{
	operators.Equals:        OpEQ,
	operators.GreaterEquals: OpGTE,
	operators.LessEquals:    OpLTE,
}

// predicate is one `field op literal` term of a filter.
type predicate struct {
	field string
	op    Op
	value any
}

// parseFilter returns the validated terms of filter; an empty filter has none.
func parseFilter(filter string, fields map[string]FilterField) ([]predicate, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}
	if len(fields) == 0 {
		return nil, errors.New("filter schema has no fields defined")
	}

	env, err := newEnv(fields)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(filter)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("invalid filter: %w", iss.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("convert filter AST: %w", err)
	}
	terms, err := conjuncts(parsed.GetExpr(), nil)
	if err != nil {
		return nil, err
	}

	preds := make([]predicate, 0, len(terms))
	for _, term := range terms {
		p, err := parsePredicate(term)
		if err != nil {
			return nil, err
		}
		rule, ok := fields[p.field]
		if !ok {
			return nil, fmt.Errorf("field %q is not allowed", p.field)
		}
		if _, ok := rule.Ops[p.op]; !ok {
			return nil, fmt.Errorf("operator %q is not allowed for field %q", string(p.op), p.field)
		}
		if err := checkLiteral(rule.Kind, p.op, p.value); err != nil {
			return nil, fmt.Errorf("field %q: %w", p.field, err)
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func newEnv(fields map[string]FilterField) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields)+1)
	for name, rule := range fields {
		var t *cel.Type
		switch rule.Kind {
		case KindString:
			t = cel.StringType
		case KindNumber:
			t = cel.DoubleType
		case KindTimestamp:
			t = cel.TimestampType
		default:
			return nil, fmt.Errorf("field %q: unsupported field kind %s", name, rule.Kind)
		}
		opts = append(opts, cel.Variable(name, t))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	return cel.NewEnv(opts...)
}

// conjuncts flattens nested && calls into acc.
func conjuncts(expr *exprpb.Expr, acc []*exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}
	call := expr.GetCallExpr()
	if call == nil {
		return append(acc, expr), nil
	}
	switch fn := call.GetFunction(); fn {
	case operators.LogicalAnd:
		var err error
		for _, arg := range call.GetArgs() {
			if acc, err = conjuncts(arg, acc); err != nil {
				return nil, err
			}
		}
		return acc, nil
	case operators.LogicalOr, operators.LogicalNot, operators.Conditional:
		return nil, fmt.Errorf("logical operator %q is not supported; only AND is allowed", fn)
	default:
		return append(acc, expr), nil
	}
}

func parsePredicate(expr *exprpb.Expr) (predicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return predicate{}, errors.New("unsupported expression; expected comparison or function call")
	}

	var (
		op                   Op
		fieldExpr, valueExpr *exprpb.Expr
		args                 = call.GetArgs()
	)
	switch fn := call.GetFunction(); fn {
	case operators.Equals, operators.GreaterEquals, operators.LessEquals:
		op = comparisons[fn]
		if call.GetTarget() != nil || len(args) != 2 {
			return predicate{}, fmt.Errorf("operator %q expects two operands", string(op))
		}
		fieldExpr, valueExpr = args[0], args[1]
	case operators.In, operators.OldIn:
		op = OpIN
		if len(args) != 2 {
			return predicate{}, errors.New("in operator expects two operands")
		}
		fieldExpr, valueExpr = args[0], args[1]
	case overloads.StartsWith:
		op = OpSW
		if call.GetTarget() == nil || len(args) != 1 {
			return predicate{}, errors.New("startsWith must be called on a field with exactly one argument")
		}
		fieldExpr, valueExpr = call.GetTarget(), args[0]
	default:
		return predicate{}, fmt.Errorf("function %q is not supported", fn)
	}

	ident := fieldExpr.GetIdentExpr()
	if ident == nil {
		return predicate{}, errors.New("left-hand side must be an identifier")
	}
	value, err := literal(valueExpr)
	if err != nil {
		return predicate{}, err
	}
	if _, ok := value.(string); op == OpSW && !ok {
		return predicate{}, errors.New("startsWith requires a string literal argument")
	}
	return predicate{field: ident.GetName(), op: op, value: value}, nil
}

// literal converts a constant, a list of strings or a timestamp() call. Numbers
// are always float64.
func literal(expr *exprpb.Expr) (any, error) {
	if c := expr.GetConstExpr(); c != nil {
		switch k := c.GetConstantKind().(type) {
		case *exprpb.Constant_StringValue:
			return k.StringValue, nil
		case *exprpb.Constant_Int64Value:
			return float64(k.Int64Value), nil
		case *exprpb.Constant_Uint64Value:
			return float64(k.Uint64Value), nil
		case *exprpb.Constant_DoubleValue:
			return k.DoubleValue, nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", k)
		}
	}

	if list := expr.GetListExpr(); list != nil {
		values := make([]string, 0, len(list.GetElements()))
		for i, elem := range list.GetElements() {
			v, err := literal(elem)
			if err != nil {
				return nil, fmt.Errorf("list literal element %d: %w", i, err)
			}
			s, ok := v.(string)
			if !ok {
				return nil, errors.New("list literal elements must be strings")
			}
			values = append(values, s)
		}
		return values, nil
	}

	if call := expr.GetCallExpr(); call.GetFunction() == overloads.TypeConvertTimestamp {
		args := call.GetArgs()
		if call.GetTarget() != nil || len(args) != 1 || args[0].GetConstExpr() == nil {
			return nil, errors.New("timestamp() expects a single string literal")
		}
		raw := args[0].GetConstExpr().GetStringValue()
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("timestamp literal %q is not RFC3339", raw)
		}
		return t, nil
	}

	return nil, errors.New("right-hand side must be a literal, list literal, or timestamp() call")
}

func checkLiteral(kind ValueKind, op Op, value any) error {
	var ok bool
	switch kind {
	case KindString:
		if op != OpIN {
			_, ok = value.(string)
			break
		}
		list, isList := value.([]string)
		if !isList {
			return fmt.Errorf("expected list of %s literals", kind)
		}
		if len(list) == 0 {
			return errors.New("list literal must not be empty")
		}
		for _, item := range list {
			if item == "" {
				return errors.New("list literal must not contain empty strings")
			}
		}
		return nil
	case KindNumber:
		_, ok = value.(float64)
	case KindTimestamp:
		_, ok = value.(time.Time)
	default:
		return fmt.Errorf("unsupported field kind %s", kind)
	}
	if !ok {
		return fmt.Errorf("expected %s literal", kind)
	}
	return nil
}
