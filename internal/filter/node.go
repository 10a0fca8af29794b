package filter

import (
	"github.com/roach88/dynfilter/internal/expr"
	"github.com/roach88/dynfilter/internal/fault"
	"github.com/roach88/dynfilter/internal/schema"
)

// node is one operand of a group: a single condition or a nested group.
// Nodes live only for the duration of one BuildPredicate call.
type node interface {
	// Logic is how the node attaches to its left sibling.
	Logic() LogicOperator

	// Position is the 1-based index of the node's first condition.
	Position() int

	// Build produces the node's expression.
	Build() (expr.Expr, error)
}

type conditionNode struct {
	schema    *schema.Schema
	condition Condition
	position  int
}

func (n conditionNode) Logic() LogicOperator { return n.condition.Logic }

func (n conditionNode) Position() int { return n.position }

func (n conditionNode) Build() (expr.Expr, error) {
	return BuildCondition(n.schema, n.condition)
}

type groupNode struct {
	children []node
	logic    LogicOperator
	position int
}

func (n groupNode) Logic() LogicOperator { return n.logic }

func (n groupNode) Position() int { return n.position }

// Build folds the children left to right. And conjoins onto the running
// result. Or first absorbs the run of And-tagged children that follow it,
// then disjoins, so And binds tighter than Or.
func (n groupNode) Build() (expr.Expr, error) {
	result, err := n.children[0].Build()
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(n.children); i++ {
		child := n.children[i]
		switch child.Logic() {
		case And:
			right, err := child.Build()
			if err != nil {
				return nil, err
			}
			result = expr.And{Left: result, Right: right}

		case Or:
			right, err := child.Build()
			if err != nil {
				return nil, err
			}
			for i+1 < len(n.children) && n.children[i+1].Logic() == And {
				i++
				next, err := n.children[i].Build()
				if err != nil {
					return nil, err
				}
				right = expr.And{Left: right, Right: next}
			}
			result = expr.Or{Left: result, Right: right}

		default:
			return nil, fault.InvalidLogicSequence(child.Position(), child.Logic().String())
		}
	}

	return result, nil
}
