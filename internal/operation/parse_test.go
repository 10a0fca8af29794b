package operation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynfilter/internal/fault"
	"github.com/roach88/dynfilter/internal/filter"
)

func TestParse_AllOperations(t *testing.T) {
	data := `[
		{"Name": "Where", "Arguments": {
			"Conditions": [
				{"Field": "Name", "Operator": "StartsWith", "Value": ["Snickers"]},
				{"Field": "Price", "Operator": "GreaterOrEqual", "Value": ["10"], "Logic": "Or"}
			],
			"Groups": [{"Start": 1, "End": 2, "Level": 1}]
		}},
		{"name": "orderbydescending", "arguments": "Price"},
		{"name": "thenby", "arguments": "Name"},
		{"name": "skip", "arguments": 1},
		{"name": "take", "arguments": 2},
		{"name": "distinct"},
		{"name": "select", "arguments": ["Name", "Price"]},
		{"name": "SELECT", "arguments": "Name"},
		{"name": "orderby"}
	]`

	ops, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, ops, 9)

	where, ok := ops[0].(Where)
	require.True(t, ok)
	assert.Len(t, where.Conditions, 2)
	assert.Equal(t, filter.StartsWith, where.Conditions[0].Operator)
	assert.Equal(t, filter.Or, where.Conditions[1].Logic)
	assert.Equal(t, []filter.Group{{Start: 1, End: 2, Level: 1}}, where.Groups)

	assert.Equal(t, OrderBy{Field: "Price", Descending: true}, ops[1])
	assert.Equal(t, ThenBy{Field: "Name"}, ops[2])
	assert.Equal(t, Skip{Count: 1}, ops[3])
	assert.Equal(t, Take{Count: 2}, ops[4])
	assert.Equal(t, Distinct{}, ops[5])
	assert.Equal(t, Select{Fields: []string{"Name", "Price"}}, ops[6])
	assert.Equal(t, Select{Fields: []string{"Name"}, Single: true}, ops[7])
	assert.Equal(t, OrderBy{}, ops[8])
}

func TestParse_EnvelopeErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"not an array", `{"name": "take"}`, "operations"},
		{"unknown name", `[{"name": "groupby", "arguments": "Name"}]`, "operations.0.name"},
		{"missing where arguments", `[{"name": "where"}]`, "operations.0.arguments"},
		{"count not integer", `[{"name": "distinct"}, {"name": "take", "arguments": "5"}]`, "operations.1.arguments"},
		{"order field not string", `[{"name": "orderby", "arguments": 3}]`, "operations.0.arguments"},
		{"select not strings", `[{"name": "select", "arguments": [1]}]`, "operations.0.arguments"},
		{"bad operator", `[{"name": "where", "arguments": {"conditions": [{"field": "A", "operator": "Like"}]}}]`, "operations.0.arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, fault.IsInvalidArgument(err))
			assert.Contains(t, fault.Fields(err), tt.field)
		})
	}
}

func TestParse_EmptyList(t *testing.T) {
	ops, err := Parse([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestMarshal_Canonical(t *testing.T) {
	ops := []Operation{
		Where{
			Conditions: []filter.Condition{
				{Field: "Name", Operator: filter.Contains, Values: filter.Texts("bar")},
				{Field: "Note", Operator: filter.Equals, Values: []*string{nil}, Logic: filter.And},
			},
		},
		OrderBy{Field: "Price", Descending: true},
		Take{Count: 3},
		Select{Fields: []string{"Name"}, Single: true},
		Distinct{},
	}

	data, err := Marshal(ops)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"name": "where", "arguments": {"conditions": [
			{"field": "Name", "operator": "Contains", "values": ["bar"]},
			{"field": "Note", "operator": "Equals", "values": [null], "logic": "And"}
		]}},
		{"name": "orderbydescending", "arguments": "Price"},
		{"name": "take", "arguments": 3},
		{"name": "select", "arguments": "Name"},
		{"name": "distinct"}
	]`, string(data))

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, ops, back)
}

func TestDocument_IsJSONCompatible(t *testing.T) {
	doc := Document([]Operation{Select{Fields: []string{"A", "B"}}})
	_, err := json.Marshal(doc)
	require.NoError(t, err)
}
