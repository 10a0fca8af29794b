package filter

import (
	"fmt"

	"github.com/roach88/dynfilter/internal/expr"
	"github.com/roach88/dynfilter/internal/fault"
	"github.com/roach88/dynfilter/internal/schema"
)

var compareOps = map[SearchOperator]expr.CompareOp{
	Greater:        expr.OpGt,
	GreaterOrEqual: expr.OpGte,
	Less:           expr.OpLt,
	LessOrEqual:    expr.OpLte,
}

var textOps = map[SearchOperator]expr.TextOp{
	StartsWith:  expr.TextStartsWith,
	EndsWith:    expr.TextEndsWith,
	Contains:    expr.TextContains,
	NotContains: expr.TextContains,
}

// BuildCondition converts one condition into a boolean expression over
// the record type described by s.
//
// Operator/type compatibility is checked before any literal is converted.
// Errors are *fault.Error values (field not found, unsupported operator,
// conversion, invalid argument).
func BuildCondition(s *schema.Schema, c Condition) (expr.Expr, error) {
	f, err := s.Field(c.Field)
	if err != nil {
		return nil, err
	}
	if err := checkOperator(f, c.Operator); err != nil {
		return nil, err
	}

	switch c.Operator {
	case Equals:
		return buildEquals(f, c)

	case NotEquals:
		e, err := buildEquals(f, c)
		if err != nil {
			return nil, err
		}
		return expr.Not{Expr: e}, nil

	case Any:
		if len(c.Values) == 0 {
			return expr.Const{Value: false}, nil
		}
		values, err := f.ConvertMany(c.Values)
		if err != nil {
			return nil, err
		}
		return expr.In{Field: f, Values: values}, nil

	case Greater, GreaterOrEqual, Less, LessOrEqual:
		v, err := convertFirst(f, c)
		if err != nil {
			return nil, err
		}
		if v == nil {
			// Ordering against a null literal never holds.
			return expr.Const{Value: false}, nil
		}
		return expr.Compare{Op: compareOps[c.Operator], Field: f, Value: v}, nil

	case Exists:
		return expr.Not{Expr: expr.IsNull{Field: f}}, nil

	case NotExists:
		return expr.IsNull{Field: f}, nil

	case StartsWith, EndsWith, Contains, NotContains:
		v, err := convertFirst(f, c)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, fault.Conversion(f.Owner, f.Name, schema.Alias(nil), nil)
		}
		e := expr.Expr(expr.Text{Op: textOps[c.Operator], Field: f, Value: v.(string)})
		if c.Operator == NotContains {
			e = expr.Not{Expr: e}
		}
		return e, nil

	default:
		return nil, fault.InvalidArgument("operator", fmt.Sprintf("unknown search operator %d for property '%s'", int(c.Operator), c.Field))
	}
}

// checkOperator enforces the type capability rules for op on f.
func checkOperator(f *schema.Field, op SearchOperator) error {
	supported := true
	switch op {
	case Greater, GreaterOrEqual, Less, LessOrEqual:
		supported = schema.IsOrderable(f.Type)
	case Exists, NotExists:
		supported = schema.IsNullable(f.Type)
	case StartsWith, EndsWith, Contains, NotContains:
		supported = f.Type.Kind == schema.KindString
	}
	if !supported {
		return fault.UnsupportedOperator(op.String(), f.Name, f.Type.String())
	}
	return nil
}

// buildEquals builds the Equals comparison. A null literal tests for a
// missing value; non-nullable bool members are used directly as the
// predicate.
func buildEquals(f *schema.Field, c Condition) (expr.Expr, error) {
	v, err := convertFirst(f, c)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return expr.IsNull{Field: f}, nil
	}
	if f.Type.Kind == schema.KindBool && !f.Type.Nullable {
		if v.(bool) {
			return expr.Truth{Field: f}, nil
		}
		return expr.Not{Expr: expr.Truth{Field: f}}, nil
	}
	return expr.Compare{Op: expr.OpEq, Field: f, Value: v}, nil
}

func convertFirst(f *schema.Field, c Condition) (any, error) {
	if len(c.Values) == 0 {
		return nil, fault.InvalidArgument("values", fmt.Sprintf("operator '%s' on property '%s' requires a value", c.Operator, c.Field))
	}
	return f.Convert(c.Values[0])
}
