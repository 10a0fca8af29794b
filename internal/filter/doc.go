// Package filter builds boolean predicates from flat condition lists and
// level-nested groups.
//
// A where payload carries conditions and optional groups:
//
//	conditions: [C1, C2(And), C3(Or), C4(And)]
//	groups:     [{start: 2, end: 4, level: 1}]
//
// Each condition after the first carries the logic operator that attaches
// it to everything on its left. Without groups, And binds tighter than Or,
// exactly like a hand-written boolean expression. A group parenthesizes a
// range of conditions; groups at lower levels are resolved first and nest
// inside higher-level groups that contain them. The example above builds
//
//	C1 AND ((C2 AND C3) OR C4)
//
// BUILDERS:
//
//   - BuildCondition turns one condition into an expr.Expr, enforcing the
//     operator/type rules of the schema package and converting literals.
//   - groupNode folds a run of nodes with And/Or precedence.
//   - BuildPredicate resolves group nesting and returns the final
//     expression.
//
// OPERATORS:
//
//	Equals, NotEquals, Any                     every type
//	Greater, GreaterOrEqual, Less, LessOrEqual orderable types
//	Exists, NotExists                          nullable (pointer) members
//	StartsWith, EndsWith, Contains, NotContains string members
//
// All failures are *fault.Error values and abort the whole build; no
// partial predicate is returned.
package filter
