package filter

import (
	"sort"

	"github.com/roach88/dynfilter/internal/expr"
	"github.com/roach88/dynfilter/internal/fault"
	"github.com/roach88/dynfilter/internal/schema"
)

// BuildPredicate builds the boolean expression for a list of conditions
// and optional groups over the record type described by s.
//
// Algorithm:
//  1. A synthetic root group spans every condition at one level above
//     the highest supplied level (level 0 when there are no groups).
//  2. Groups are indexed by level, each level sorted by start.
//  3. resolve(parent) walks levels parent.Level-1 downward and takes the
//     groups of the first level that has any group inside parent as the
//     children. Levels may be sparse.
//  4. Conditions from parent.Start to parent.End become condition nodes,
//     except where a child starts: there the resolved child group is
//     emitted and the walk jumps past its end.
//  5. A group attaches to its left sibling with the logic operator of its
//     first condition.
//
// Groups are validated before anything is built: bounds must lie in
// [1, len(conditions)] with start <= end and level >= 1, groups at one
// level must not overlap, and a group must either contain or be disjoint
// from every group at a higher level. A group that no parent reaches
// (hidden behind a nearer populated level) is also rejected.
//
// BuildPredicate is pure and safe for concurrent use.
func BuildPredicate(s *schema.Schema, conditions []Condition, groups []Group) (expr.Expr, error) {
	if s == nil {
		return nil, fault.InvalidArgument("schema", "record schema is required")
	}
	if len(conditions) == 0 {
		return nil, fault.InvalidArgument("conditions", "at least one condition is required")
	}

	levels, maxLevel, err := indexGroups(groups, len(conditions))
	if err != nil {
		return nil, err
	}

	rootLevel := 0
	if len(groups) > 0 {
		rootLevel = maxLevel + 1
	}

	b := &predicateBuilder{
		schema:     s,
		conditions: conditions,
		levels:     levels,
		visited:    make(map[Group]bool, len(groups)),
	}
	root := b.resolve(Group{Start: 1, End: len(conditions), Level: rootLevel})

	for _, g := range groups {
		if !b.visited[g] {
			return nil, fault.InvalidGroupRange("group %s is not nested under any group at the nearest populated level", g)
		}
	}

	return root.Build()
}

type predicateBuilder struct {
	schema     *schema.Schema
	conditions []Condition
	levels     map[int][]Group
	visited    map[Group]bool
}

func (b *predicateBuilder) resolve(parent Group) node {
	children := b.childGroups(parent)

	var nodes []node
	j := 0
	for i := parent.Start; i <= parent.End; i++ {
		if j < len(children) && children[j].Start == i {
			child := children[j]
			j++
			b.visited[child] = true
			nodes = append(nodes, b.resolve(child))
			i = child.End
			continue
		}
		nodes = append(nodes, conditionNode{
			schema:    b.schema,
			condition: b.conditions[i-1],
			position:  i,
		})
	}

	return groupNode{
		children: nodes,
		logic:    b.conditions[parent.Start-1].Logic,
		position: parent.Start,
	}
}

// childGroups returns the groups of the nearest lower level that has at
// least one group inside parent, in start order.
func (b *predicateBuilder) childGroups(parent Group) []Group {
	for level := parent.Level - 1; level > 0; level-- {
		var children []Group
		for _, g := range b.levels[level] {
			if parent.contains(g) {
				children = append(children, g)
			}
		}
		if len(children) > 0 {
			return children
		}
	}
	return nil
}

// indexGroups validates groups against n conditions and indexes them by
// level, each level sorted by start.
func indexGroups(groups []Group, n int) (map[int][]Group, int, error) {
	levels := make(map[int][]Group)
	maxLevel := 0

	for _, g := range groups {
		if g.Level < 1 {
			return nil, 0, fault.InvalidGroupRange("group %s: level must be at least 1", g)
		}
		if g.Start < 1 || g.End > n {
			return nil, 0, fault.InvalidGroupRange("group %s: bounds must be within [1, %d]", g, n)
		}
		if g.Start > g.End {
			return nil, 0, fault.InvalidGroupRange("group %s: start is after end", g)
		}
		levels[g.Level] = append(levels[g.Level], g)
		if g.Level > maxLevel {
			maxLevel = g.Level
		}
	}

	for level, gs := range levels {
		sort.Slice(gs, func(i, j int) bool { return gs[i].Start < gs[j].Start })
		for i := 1; i < len(gs); i++ {
			if gs[i].Start <= gs[i-1].End {
				return nil, 0, fault.InvalidGroupRange("groups %s and %s overlap at level %d", gs[i-1], gs[i], level)
			}
		}
	}

	for _, outer := range groups {
		for _, inner := range groups {
			if inner.Level >= outer.Level {
				continue
			}
			if inner.overlaps(outer) && !outer.contains(inner) {
				return nil, 0, fault.InvalidGroupRange("group %s straddles the boundary of group %s", inner, outer)
			}
		}
	}

	return levels, maxLevel, nil
}
