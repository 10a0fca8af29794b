// Package expr provides the boolean expression intermediate representation
// (IR) produced for a "where" operation.
//
// The IR is the boundary between predicate construction and the backends
// that execute it:
//
//	[conditions + groups] → [filter.BuildPredicate] → [expr.Expr] → [querysql]  (SQLite, PostgreSQL)
//	                                                               → [expr.Eval] (in memory)
//
// SEALED INTERFACE:
//
// Expr is sealed with the marker method pattern. Only types in this package
// implement it, so backends can switch exhaustively:
//
//	switch e := e.(type) {
//	case expr.Compare:
//	    // field <op> literal
//	case expr.And:
//	    // recurse
//	}
//
// NODE TYPES:
//
//	Const    constant true/false (Any with no candidates)
//	Truth    boolean member used as a predicate (IsInStock)
//	Compare  member <op> literal, op in = > >= < <=
//	IsNull   member is missing
//	Text     string predicate: StartsWith, EndsWith, Contains
//	In       member matches one of a literal set
//	And, Or  binary conjunction/disjunction
//	Not      negation
//
// NULL SEMANTICS:
//
// Evaluation is two-valued. A null member never satisfies Truth, Compare or
// Text, so Not(Compare) is true for a null member. In matches a null member
// only when the literal set contains nil. SQL backends must guard nullable
// columns so that the database agrees with Eval.
//
// Literal values are canonical values produced by schema.Convert (int64,
// uint64, float64, decimal.Decimal, string, rune, time.Time in UTC,
// uuid.UUID, bool).
package expr
