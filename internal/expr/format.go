package expr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/dynfilter/internal/schema"
)

// String renders e as a fully parenthesized, human-readable expression:
//
//	((Name startswith "Snickers" or Name contains "Mars") and IsInStock)
func String(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case Const:
		b.WriteString(strconv.FormatBool(n.Value))
	case Truth:
		b.WriteString(fieldName(n.Field))
	case Compare:
		fmt.Fprintf(b, "%s %s %s", fieldName(n.Field), n.Op, formatValue(n.Value))
	case IsNull:
		fmt.Fprintf(b, "%s is null", fieldName(n.Field))
	case Text:
		fmt.Fprintf(b, "%s %s %q", fieldName(n.Field), n.Op, n.Value)
	case In:
		vals := make([]string, len(n.Values))
		for i, v := range n.Values {
			vals[i] = formatValue(v)
		}
		fmt.Fprintf(b, "%s in (%s)", fieldName(n.Field), strings.Join(vals, ", "))
	case And:
		writeBinary(b, n.Left, "and", n.Right)
	case Or:
		writeBinary(b, n.Left, "or", n.Right)
	case Not:
		b.WriteString("not ")
		if isBinary(n.Expr) {
			writeExpr(b, n.Expr)
			return
		}
		b.WriteByte('(')
		writeExpr(b, n.Expr)
		b.WriteByte(')')
	default:
		b.WriteString(describe(e))
	}
}

func writeBinary(b *strings.Builder, left Expr, op string, right Expr) {
	b.WriteByte('(')
	writeExpr(b, left)
	b.WriteString(" " + op + " ")
	writeExpr(b, right)
	b.WriteByte(')')
}

// Shape renders only the boolean structure of e. Every non-binary node is
// a numbered leaf in left-to-right order; nested And/Or operands are
// parenthesized and the top level is not:
//
//	(1 and 2) or 3
func Shape(e Expr) string {
	n := 0
	return shape(e, &n, true)
}

func shape(e Expr, n *int, top bool) string {
	var left, right Expr
	var op string
	switch node := e.(type) {
	case And:
		left, right, op = node.Left, node.Right, "and"
	case Or:
		left, right, op = node.Left, node.Right, "or"
	default:
		*n++
		return strconv.Itoa(*n)
	}
	s := shape(left, n, false) + " " + op + " " + shape(right, n, false)
	if top {
		return s
	}
	return "(" + s + ")"
}

func isBinary(e Expr) bool {
	switch e.(type) {
	case And, Or:
		return true
	default:
		return false
	}
}

func fieldName(f *schema.Field) string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case rune:
		return strconv.QuoteRune(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return x.String()
	case uuid.UUID:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

func describe(e Expr) string {
	if e == nil {
		return "<nil expr>"
	}
	return fmt.Sprintf("<%T>", e)
}
