package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/dynfilter/internal/expr"
	"github.com/roach88/dynfilter/internal/schema"
)

// args collects bound parameters in placeholder order.
type args struct {
	dialect Dialect
	values  []any
}

func (a *args) bind(v any) string {
	a.values = append(a.values, a.dialect.Param(v))
	return a.dialect.Placeholder(len(a.values))
}

// compilePredicate renders e as a WHERE fragment.
//
// Leaves on nullable members are guarded with IS NOT NULL so that a null
// member makes the leaf false rather than unknown. That keeps NOT two-valued
// and matches expr.Eval.
// CRITICAL: Values are never interpolated, every literal is a parameter.
func compilePredicate(e expr.Expr, a *args) (string, error) {
	switch n := e.(type) {
	case expr.Const:
		if n.Value {
			return "1 = 1", nil
		}
		return "1 = 0", nil

	case expr.Truth:
		return column(n.Field), nil

	case expr.IsNull:
		return column(n.Field) + " IS NULL", nil

	case expr.Compare:
		if n.Value == nil {
			return "", fmt.Errorf("compare %s: nil value", n.Field.Name)
		}
		sql := fmt.Sprintf("%s %s %s", column(n.Field), n.Op, a.bind(n.Value))
		return guard(n.Field, sql), nil

	case expr.Text:
		ph := a.dialect.Placeholder(len(a.values) + 1)
		sql, pat := a.dialect.TextMatch(n.Op, column(n.Field), ph, n.Value)
		a.values = append(a.values, pat)
		return guard(n.Field, sql), nil

	case expr.In:
		return compileIn(n, a), nil

	case expr.And:
		return compileBinary(n.Left, "AND", n.Right, a)

	case expr.Or:
		return compileBinary(n.Left, "OR", n.Right, a)

	case expr.Not:
		inner, err := compilePredicate(n.Expr, a)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil

	case nil:
		return "", fmt.Errorf("nil expression")

	default:
		return "", fmt.Errorf("unsupported expression type: %T", e)
	}
}

func compileBinary(left expr.Expr, op string, right expr.Expr, a *args) (string, error) {
	l, err := compilePredicate(left, a)
	if err != nil {
		return "", err
	}
	r, err := compilePredicate(right, a)
	if err != nil {
		return "", err
	}
	return "(" + l + " " + op + " " + r + ")", nil
}

func compileIn(n expr.In, a *args) string {
	col := column(n.Field)
	var phs []string
	matchNull := false
	for _, v := range n.Values {
		if v == nil {
			matchNull = true
			continue
		}
		phs = append(phs, a.bind(v))
	}

	switch {
	case len(phs) == 0 && matchNull:
		return col + " IS NULL"
	case len(phs) == 0:
		return "1 = 0"
	}

	in := fmt.Sprintf("%s IN (%s)", col, strings.Join(phs, ", "))
	if matchNull {
		return "(" + col + " IS NULL OR " + in + ")"
	}
	return guard(n.Field, in)
}

func guard(f *schema.Field, sql string) string {
	if !f.Type.Nullable {
		return sql
	}
	return "(" + column(f) + " IS NOT NULL AND " + sql + ")"
}

func column(f *schema.Field) string {
	return Quote(f.Column)
}
