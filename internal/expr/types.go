package expr

import "github.com/roach88/dynfilter/internal/schema"

// Expr is a boolean expression over one record type.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// CompareOp is an equality or ordering comparison.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpGt
	OpGte
	OpLt
	OpLte
)

func (op CompareOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	default:
		return "?"
	}
}

// TextOp is a string predicate.
type TextOp int

const (
	TextStartsWith TextOp = iota
	TextEndsWith
	TextContains
)

func (op TextOp) String() string {
	switch op {
	case TextStartsWith:
		return "startswith"
	case TextEndsWith:
		return "endswith"
	case TextContains:
		return "contains"
	default:
		return "?"
	}
}

// Const is a statically known truth value.
type Const struct {
	Value bool
}

func (Const) exprNode() {}

// Truth tests a non-nullable boolean member.
//
//	<field>
type Truth struct {
	Field *schema.Field
}

func (Truth) exprNode() {}

// Compare tests a member against a non-null literal.
//
//	<field> <op> <value>
//
// Ordering operators are only built for orderable members
// (schema.IsOrderable).
type Compare struct {
	Op    CompareOp
	Field *schema.Field
	Value any
}

func (Compare) exprNode() {}

// IsNull tests that a nullable member holds no value.
//
//	<field> IS NULL
type IsNull struct {
	Field *schema.Field
}

func (IsNull) exprNode() {}

// Text applies a case-sensitive string predicate to a string member.
type Text struct {
	Op    TextOp
	Field *schema.Field
	Value string
}

func (Text) exprNode() {}

// In tests membership of a member in a literal set. A nil element matches
// a null member.
//
//	<field> IN (<values>)
type In struct {
	Field  *schema.Field
	Values []any
}

func (In) exprNode() {}

// And is true when both operands are true.
type And struct {
	Left  Expr
	Right Expr
}

func (And) exprNode() {}

// Or is true when either operand is true.
type Or struct {
	Left  Expr
	Right Expr
}

func (Or) exprNode() {}

// Not negates its operand.
type Not struct {
	Expr Expr
}

func (Not) exprNode() {}

// Conjoin folds operands left to right with And. It returns Const{true}
// for no operands.
func Conjoin(operands ...Expr) Expr {
	if len(operands) == 0 {
		return Const{Value: true}
	}
	result := operands[0]
	for _, e := range operands[1:] {
		result = And{Left: result, Right: e}
	}
	return result
}
