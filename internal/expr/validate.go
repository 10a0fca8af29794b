package expr

import (
	"errors"
	"fmt"

	"github.com/roach88/dynfilter/internal/schema"
)

// Validate checks that e is structurally sound: no nil nodes or fields,
// literal values present where required, ordering operators only on
// orderable members, text predicates only on string members and IsNull
// only on nullable members.
//
// Expressions from filter.BuildPredicate always validate; Validate guards
// hand-built trees before they reach a backend. All problems are reported
// together.
func Validate(e Expr) error {
	v := &validator{}
	v.visit(e)
	return errors.Join(v.problems...)
}

// validator accumulates problems during traversal.
type validator struct {
	problems []error
}

func (v *validator) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Errorf(format, args...))
}

func (v *validator) visit(e Expr) {
	switch n := e.(type) {
	case nil:
		v.addf("nil expression")
	case Const:
	case Truth:
		if v.field(n.Field, "truth") && (n.Field.Type.Kind != schema.KindBool || n.Field.Type.Nullable) {
			v.addf("truth: field %s is not a non-nullable bool", n.Field.Name)
		}
	case Compare:
		if !v.field(n.Field, "compare") {
			return
		}
		if n.Value == nil {
			v.addf("compare: nil value for %s, use IsNull", n.Field.Name)
		}
		if n.Op != OpEq && !schema.IsOrderable(n.Field.Type) {
			v.addf("compare: %s is not orderable", n.Field.Name)
		}
	case IsNull:
		if v.field(n.Field, "is null") && !schema.IsNullable(n.Field.Type) {
			v.addf("is null: %s is not nullable", n.Field.Name)
		}
	case Text:
		if v.field(n.Field, "text") && n.Field.Type.Kind != schema.KindString {
			v.addf("text: %s is not a string", n.Field.Name)
		}
	case In:
		v.field(n.Field, "in")
	case And:
		v.visit(n.Left)
		v.visit(n.Right)
	case Or:
		v.visit(n.Left)
		v.visit(n.Right)
	case Not:
		v.visit(n.Expr)
	default:
		v.addf("unsupported expression type %T", e)
	}
}

func (v *validator) field(f *schema.Field, node string) bool {
	if f == nil {
		v.addf("%s: nil field", node)
		return false
	}
	return true
}
