package expr

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynfilter/internal/schema"
)

type item struct {
	Name    string
	Note    *string
	Price   decimal.Decimal
	Code    *int
	Active  bool
	Expires *time.Time
	Ref     uuid.UUID
}

var itemSchema = schema.MustFor[item]()

func field(t *testing.T, name string) *schema.Field {
	t.Helper()
	f, err := itemSchema.Field(name)
	require.NoError(t, err)
	return f
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func TestSealedInterface(t *testing.T) {
	nodes := []Expr{
		Const{}, Truth{}, Compare{}, IsNull{}, Text{}, In{}, And{}, Or{}, Not{},
	}
	for _, n := range nodes {
		switch n.(type) {
		case Const, Truth, Compare, IsNull, Text, In, And, Or, Not:
		default:
			t.Fatalf("unexpected node type %T", n)
		}
	}
}

func TestEval_Leaves(t *testing.T) {
	rec := item{
		Name:   "Snickers bar",
		Price:  decimal.RequireFromString("12.50"),
		Code:   intPtr(7),
		Active: true,
	}

	tests := []struct {
		name string
		e    Expr
		want bool
	}{
		{"const true", Const{Value: true}, true},
		{"const false", Const{Value: false}, false},
		{"truth", Truth{Field: field(t, "Active")}, true},
		{"not truth", Not{Expr: Truth{Field: field(t, "Active")}}, false},
		{"eq decimal scale-insensitive", Compare{Op: OpEq, Field: field(t, "Price"), Value: decimal.RequireFromString("12.5")}, true},
		{"gt", Compare{Op: OpGt, Field: field(t, "Price"), Value: decimal.RequireFromString("12")}, true},
		{"gte equal", Compare{Op: OpGte, Field: field(t, "Price"), Value: decimal.RequireFromString("12.5")}, true},
		{"lt", Compare{Op: OpLt, Field: field(t, "Price"), Value: decimal.RequireFromString("12.5")}, false},
		{"lte", Compare{Op: OpLte, Field: field(t, "Price"), Value: decimal.RequireFromString("12.5")}, true},
		{"nullable eq", Compare{Op: OpEq, Field: field(t, "Code"), Value: int64(7)}, true},
		{"mismatched kind", Compare{Op: OpEq, Field: field(t, "Code"), Value: "7"}, false},
		{"is null on null", IsNull{Field: field(t, "Note")}, true},
		{"is null on value", IsNull{Field: field(t, "Code")}, false},
		{"starts with", Text{Op: TextStartsWith, Field: field(t, "Name"), Value: "Snickers"}, true},
		{"starts with case-sensitive", Text{Op: TextStartsWith, Field: field(t, "Name"), Value: "snickers"}, false},
		{"ends with", Text{Op: TextEndsWith, Field: field(t, "Name"), Value: "bar"}, true},
		{"contains", Text{Op: TextContains, Field: field(t, "Name"), Value: "ers b"}, true},
		{"contains empty", Text{Op: TextContains, Field: field(t, "Name"), Value: ""}, true},
		{"in hit", In{Field: field(t, "Code"), Values: []any{int64(1), int64(7)}}, true},
		{"in miss", In{Field: field(t, "Code"), Values: []any{int64(1), nil}}, false},
		{"in empty", In{Field: field(t, "Code")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eval(tt.e, rec))
			assert.Equal(t, tt.want, Eval(tt.e, &rec))
		})
	}
}

func TestEval_NullMember(t *testing.T) {
	rec := item{Name: "x"}

	eq := Compare{Op: OpEq, Field: field(t, "Code"), Value: int64(1)}
	assert.False(t, Eval(eq, rec), "equals on null member")
	assert.True(t, Eval(Not{Expr: eq}, rec), "not equals on null member")

	gt := Compare{Op: OpGt, Field: field(t, "Expires"), Value: time.Unix(0, 0).UTC()}
	assert.False(t, Eval(gt, rec))

	text := Text{Op: TextContains, Field: field(t, "Note"), Value: ""}
	assert.False(t, Eval(text, rec), "text predicates never match null")
	assert.True(t, Eval(Not{Expr: text}, rec))

	assert.True(t, Eval(In{Field: field(t, "Code"), Values: []any{nil}}, rec))
	assert.False(t, Eval(In{Field: field(t, "Code"), Values: []any{int64(1)}}, rec))
	assert.False(t, Eval(In{Field: field(t, "Code"), Values: []any{}}, rec))

	exists := Not{Expr: IsNull{Field: field(t, "Note")}}
	assert.False(t, Eval(exists, rec))
	rec.Note = strPtr("")
	assert.True(t, Eval(exists, rec), "empty string exists")
}

func TestEval_Binary(t *testing.T) {
	tr, fa := Const{Value: true}, Const{Value: false}

	assert.True(t, Eval(And{Left: tr, Right: tr}, item{}))
	assert.False(t, Eval(And{Left: tr, Right: fa}, item{}))
	assert.True(t, Eval(Or{Left: fa, Right: tr}, item{}))
	assert.False(t, Eval(Or{Left: fa, Right: fa}, item{}))
	assert.True(t, Eval(Conjoin(), item{}))
	assert.False(t, Eval(Conjoin(tr, tr, fa), item{}))
}

func TestEval_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { Eval(nil, item{}) })
}

func TestShape(t *testing.T) {
	leaf := Const{Value: true}

	tests := []struct {
		name string
		e    Expr
		want string
	}{
		{"leaf", leaf, "1"},
		{"flat and", And{Left: leaf, Right: leaf}, "1 and 2"},
		{"or of and", Or{Left: leaf, Right: And{Left: leaf, Right: leaf}}, "1 or (2 and 3)"},
		{"not is leaf", And{Left: Not{Expr: Or{Left: leaf, Right: leaf}}, Right: leaf}, "1 and 2"},
		{
			"nested",
			Or{Left: Or{Left: leaf, Right: And{Left: leaf, Right: leaf}}, Right: Or{Left: And{Left: leaf, Right: leaf}, Right: leaf}},
			"(1 or (2 and 3)) or ((4 and 5) or 6)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Shape(tt.e))
		})
	}
}

func TestString_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	e := Or{
		Left: And{
			Left:  Text{Op: TextStartsWith, Field: field(t, "Name"), Value: "Snickers"},
			Right: Compare{Op: OpGte, Field: field(t, "Price"), Value: decimal.RequireFromString("10")},
		},
		Right: Not{Expr: In{Field: field(t, "Code"), Values: []any{int64(1), nil}}},
	}

	g.Assert(t, "string_mixed", []byte(String(e)+"\n"))
}

func TestString_Leaves(t *testing.T) {
	ref := uuid.MustParse("6f9619ff-8b86-d011-b42d-00c04fc964ff")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		e    Expr
		want string
	}{
		{Const{Value: false}, "false"},
		{Truth{Field: field(t, "Active")}, "Active"},
		{Not{Expr: Truth{Field: field(t, "Active")}}, "not (Active)"},
		{IsNull{Field: field(t, "Note")}, "Note is null"},
		{Compare{Op: OpEq, Field: field(t, "Ref"), Value: ref}, "Ref = 6f9619ff-8b86-d011-b42d-00c04fc964ff"},
		{Compare{Op: OpLt, Field: field(t, "Expires"), Value: at}, "Expires < 2024-01-02T03:04:05Z"},
		{Text{Op: TextEndsWith, Field: field(t, "Name"), Value: `a"b`}, `Name endswith "a\"b"`},
		{In{Field: field(t, "Code")}, "Code in ()"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, String(tt.e))
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(And{
		Left:  Truth{Field: field(t, "Active")},
		Right: Not{Expr: IsNull{Field: field(t, "Note")}},
	}))

	err := Validate(Or{
		Left:  Compare{Op: OpGt, Field: field(t, "Name"), Value: "a"},
		Right: And{Left: nil, Right: IsNull{Field: field(t, "Name")}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name is not orderable")
	assert.Contains(t, err.Error(), "nil expression")
	assert.Contains(t, err.Error(), "Name is not nullable")

	assert.ErrorContains(t, Validate(Compare{Op: OpEq, Field: field(t, "Code")}), "nil value")
	assert.ErrorContains(t, Validate(Text{Field: field(t, "Price")}), "not a string")
	assert.ErrorContains(t, Validate(Truth{Field: field(t, "Name")}), "not a non-nullable bool")
	assert.ErrorContains(t, Validate(In{}), "nil field")
}

func TestCompareValues(t *testing.T) {
	c, ok := CompareValues(int64(1), int64(2))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = CompareValues(false, true)
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	_, ok = CompareValues(int64(1), uint64(1))
	assert.False(t, ok)

	assert.True(t, EqualValues(nil, nil))
	assert.False(t, EqualValues(nil, int64(0)))
	assert.True(t, EqualValues(time.Unix(10, 0), time.Unix(10, 0).UTC()))

	for _, other := range []float64{math.NaN(), 0, math.Inf(1)} {
		_, ok = CompareValues(math.NaN(), other)
		assert.False(t, ok, "NaN vs %v", other)
		_, ok = CompareValues(other, math.NaN())
		assert.False(t, ok, "%v vs NaN", other)
	}
	assert.False(t, EqualValues(math.NaN(), math.NaN()))
	assert.Equal(t, -1, Order(math.NaN(), -math.MaxFloat64))
	assert.Equal(t, 0, Order(math.NaN(), nil))

	assert.Equal(t, -1, Order(nil, "a"))
	assert.Equal(t, 1, Order("b", "a"))
	assert.Equal(t, 0, Order(nil, nil))
}
