package expr

import "strings"

// Eval evaluates e against record, a value (or pointer) of the record type
// the expression was built for.
//
// Eval panics on a nil node or unknown node type; run Validate first on
// expressions that were not produced by the predicate builder.
func Eval(e Expr, record any) bool {
	switch n := e.(type) {
	case Const:
		return n.Value
	case Truth:
		b, ok := n.Field.Value(record).(bool)
		return ok && b
	case Compare:
		return evalCompare(n, n.Field.Value(record))
	case IsNull:
		return n.Field.Value(record) == nil
	case Text:
		s, ok := n.Field.Value(record).(string)
		if !ok {
			return false
		}
		switch n.Op {
		case TextStartsWith:
			return strings.HasPrefix(s, n.Value)
		case TextEndsWith:
			return strings.HasSuffix(s, n.Value)
		default:
			return strings.Contains(s, n.Value)
		}
	case In:
		v := n.Field.Value(record)
		for _, candidate := range n.Values {
			if EqualValues(v, candidate) {
				return true
			}
		}
		return false
	case And:
		return Eval(n.Left, record) && Eval(n.Right, record)
	case Or:
		return Eval(n.Left, record) || Eval(n.Right, record)
	case Not:
		return !Eval(n.Expr, record)
	default:
		panic("expr: cannot evaluate " + describe(e))
	}
}

func evalCompare(c Compare, v any) bool {
	if v == nil {
		return false
	}
	if c.Op == OpEq {
		return EqualValues(v, c.Value)
	}
	cmp, ok := CompareValues(v, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	default:
		return false
	}
}
