package filter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynfilter/internal/expr"
	"github.com/roach88/dynfilter/internal/fault"
	"github.com/roach88/dynfilter/internal/schema"
)

type flagRecord struct {
	Prop bool
}

var flagSchema = schema.MustFor[flagRecord]()

// flags builds one Prop == true condition per tag; the first tag is
// normally LogicNone.
func flags(tags ...LogicOperator) []Condition {
	out := make([]Condition, len(tags))
	for i, tag := range tags {
		out[i] = Condition{Field: "Prop", Operator: Equals, Values: Texts("true"), Logic: tag}
	}
	return out
}

const none = LogicNone

func TestBuildPredicate_Shape(t *testing.T) {
	tests := []struct {
		want   string
		tags   []LogicOperator
		groups []Group
	}{
		// 2 operands
		{"1 and 2", []LogicOperator{none, And}, nil},
		{"1 or 2", []LogicOperator{none, Or}, nil},

		// 3 operands
		{"(1 and 2) and 3", []LogicOperator{none, And, And}, nil},
		{"(1 or 2) or 3", []LogicOperator{none, Or, Or}, nil},
		{"(1 and 2) or 3", []LogicOperator{none, And, Or}, nil},
		{"1 or (2 and 3)", []LogicOperator{none, Or, And}, nil},

		// 4 operands
		{"((1 and 2) and 3) and 4", []LogicOperator{none, And, And, And}, nil},
		{"((1 or 2) or 3) or 4", []LogicOperator{none, Or, Or, Or}, nil},
		{"((1 and 2) or 3) and 4", []LogicOperator{none, And, Or, And}, []Group{{1, 3, 1}}},
		{"1 and ((2 and 3) or 4)", []LogicOperator{none, And, And, Or}, []Group{{2, 4, 1}}},
		{"1 or ((2 and 3) and 4)", []LogicOperator{none, Or, And, And}, nil},

		// 5 operands
		{"(1 and ((2 or 3) or 4)) and 5", []LogicOperator{none, And, Or, Or, And}, []Group{{2, 4, 1}}},
		{"((1 and 2) or (3 and 4)) or 5", []LogicOperator{none, And, Or, And, Or}, []Group{{1, 2, 1}, {3, 4, 1}, {1, 4, 2}}},
		{"((1 or 2) and (3 or 4)) and 5", []LogicOperator{none, Or, And, Or, And}, []Group{{1, 2, 1}, {3, 4, 1}, {1, 4, 2}}},

		// 6 operands
		{"(1 or (2 and 3)) or ((4 and 5) or 6)", []LogicOperator{none, Or, And, Or, And, Or}, []Group{{1, 3, 1}, {4, 6, 1}}},
		{"(1 and ((2 or 3) and (4 or 5))) and 6", []LogicOperator{none, And, Or, And, Or, And}, []Group{{2, 3, 1}, {4, 5, 1}, {2, 5, 2}}},
		{"(1 or ((2 and 3) or (4 and 5))) or 6", []LogicOperator{none, Or, And, Or, And, Or}, []Group{{2, 3, 1}, {4, 5, 1}, {2, 5, 2}}},

		// 8 operands
		{
			"(1 and (2 or (3 and 4))) or (((5 and 6) or 7) and 8)",
			[]LogicOperator{none, And, Or, And, Or, And, Or, And},
			[]Group{{2, 4, 1}, {5, 7, 1}},
		},
		{
			"((1 and (2 or 3)) and 4) or ((5 and (6 or 7)) and 8)",
			[]LogicOperator{none, And, Or, And, Or, And, Or, And},
			[]Group{{2, 3, 1}, {6, 7, 1}, {1, 4, 2}, {5, 8, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			e, err := BuildPredicate(flagSchema, flags(tt.tags...), tt.groups)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.Shape(e))
		})
	}
}

func TestBuildPredicate_SparseLevels(t *testing.T) {
	// Levels 1 and 3 are populated, 2 is not.
	e, err := BuildPredicate(flagSchema,
		flags(none, And, Or, And, Or),
		[]Group{{2, 3, 1}, {1, 3, 3}},
	)
	require.NoError(t, err)
	assert.Equal(t, "((1 and (2 or 3)) and 4) or 5", expr.Shape(e))
}

func TestBuildPredicate_GroupOrderIrrelevant(t *testing.T) {
	tags := []LogicOperator{none, And, Or, And, Or, And, Or, And}
	a, err := BuildPredicate(flagSchema, flags(tags...), []Group{{2, 3, 1}, {6, 7, 1}, {1, 4, 2}, {5, 8, 2}})
	require.NoError(t, err)
	b, err := BuildPredicate(flagSchema, flags(tags...), []Group{{5, 8, 2}, {6, 7, 1}, {1, 4, 2}, {2, 3, 1}})
	require.NoError(t, err)

	assert.Equal(t, expr.String(a), expr.String(b))
}

func TestBuildPredicate_GroupErrors(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		groups []Group
	}{
		{"start below one", 3, []Group{{0, 2, 1}}},
		{"end past conditions", 3, []Group{{2, 4, 1}}},
		{"start after end", 3, []Group{{3, 2, 1}}},
		{"level zero", 3, []Group{{1, 2, 0}}},
		{"negative level", 3, []Group{{1, 2, -1}}},
		{"overlap same level", 5, []Group{{1, 3, 1}, {3, 5, 1}}},
		{"duplicate start same level", 5, []Group{{2, 3, 1}, {2, 4, 1}}},
		{"identical groups", 5, []Group{{2, 3, 1}, {2, 3, 1}}},
		{"child straddles parent", 5, []Group{{2, 4, 1}, {3, 5, 2}}},
		{"unreachable group", 6, []Group{{4, 5, 1}, {1, 2, 2}, {1, 6, 3}}},
		{"unreachable under root", 5, []Group{{1, 2, 2}, {4, 5, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := make([]LogicOperator, tt.n)
			for i := 1; i < tt.n; i++ {
				tags[i] = And
			}
			_, err := BuildPredicate(flagSchema, flags(tags...), tt.groups)
			require.Error(t, err)
			assert.True(t, fault.IsInvalidGroupRange(err), err.Error())
		})
	}
}

func TestBuildPredicate_ArgumentErrors(t *testing.T) {
	_, err := BuildPredicate(flagSchema, nil, nil)
	assert.True(t, fault.IsInvalidArgument(err))

	_, err = BuildPredicate(nil, flags(none), nil)
	assert.True(t, fault.IsInvalidArgument(err))
}

func TestBuildPredicate_InvalidLogicSequence(t *testing.T) {
	_, err := BuildPredicate(flagSchema, flags(none, And, none), nil)
	require.Error(t, err)
	assert.True(t, fault.IsInvalidLogicSequence(err))
	assert.Contains(t, err.Error(), "node 3")

	_, err = BuildPredicate(flagSchema, flags(none, LogicOperator(7)), nil)
	assert.True(t, fault.IsInvalidLogicSequence(err))

	// The first condition's tag is never consulted.
	_, err = BuildPredicate(flagSchema, flags(Or, And), nil)
	assert.NoError(t, err)
}

func TestBuildPredicate_PropagatesConditionErrors(t *testing.T) {
	conds := flags(none, And, Or)
	conds[2].Field = "Missing"

	_, err := BuildPredicate(flagSchema, conds, []Group{{2, 3, 1}})
	require.Error(t, err)
	assert.True(t, fault.IsFieldNotFound(err))
}

func TestBuildPredicate_Idempotent(t *testing.T) {
	conds := flags(none, Or, And, Or)
	groups := []Group{{2, 3, 1}}

	a, err := BuildPredicate(flagSchema, conds, groups)
	require.NoError(t, err)
	b, err := BuildPredicate(flagSchema, conds, groups)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

// product mirrors the demo entity.
type product struct {
	Name       string
	ExpireDate time.Time
	IsForSale  bool
	IsInStock  bool
}

func TestBuildPredicate_EndToEndScenario(t *testing.T) {
	s := schema.MustFor[product]()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	later, earlier := now.Add(24*time.Hour), now.Add(-24*time.Hour)

	conditions := []Condition{
		{Field: "Name", Operator: StartsWith, Values: Texts("Snickers")},
		{Field: "Name", Operator: Contains, Values: Texts("Mars"), Logic: Or},
		{Field: "ExpireDate", Operator: GreaterOrEqual, Values: Texts(now.Format(time.RFC3339)), Logic: And},
		{Field: "IsForSale", Operator: Equals, Values: Texts("true"), Logic: And},
		{Field: "IsInStock", Operator: Equals, Values: Texts("true"), Logic: Or},
	}
	groups := []Group{{1, 2, 1}, {1, 3, 2}, {4, 5, 2}}

	e, err := BuildPredicate(s, conditions, groups)
	require.NoError(t, err)

	handWritten := func(p product) bool {
		return (strings.HasPrefix(p.Name, "Snickers") || strings.Contains(p.Name, "Mars")) &&
			!p.ExpireDate.Before(now) &&
			(p.IsForSale || p.IsInStock)
	}

	var records []product
	for _, name := range []string{"Snickers", "Snickers XL", "Mars", "Big Mars bar", "Twix", ""} {
		for _, exp := range []time.Time{earlier, now, later} {
			for _, sale := range []bool{false, true} {
				for _, stock := range []bool{false, true} {
					records = append(records, product{Name: name, ExpireDate: exp, IsForSale: sale, IsInStock: stock})
				}
			}
		}
	}

	matched := 0
	for _, p := range records {
		want := handWritten(p)
		assert.Equal(t, want, expr.Eval(e, p), "%+v", p)
		if want {
			matched++
		}
	}
	assert.Positive(t, matched)
	assert.Equal(t, "((1 or 2) and 3) and (4 or 5)", expr.Shape(e))
}
