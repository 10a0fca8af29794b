package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition_UnmarshalJSON(t *testing.T) {
	data := `[
		{"Field": "Name", "Operator": "startswith", "Value": ["Snickers"]},
		{"field": "Price", "operator": 5, "values": [10, null, true], "logic": "AND"},
		{"FIELD": "Id", "OPERATOR": "Any", "Values": [], "Logic": 2}
	]`

	var conds []Condition
	require.NoError(t, json.Unmarshal([]byte(data), &conds))
	require.Len(t, conds, 3)

	assert.Equal(t, "Name", conds[0].Field)
	assert.Equal(t, StartsWith, conds[0].Operator)
	assert.Equal(t, Texts("Snickers"), conds[0].Values)
	assert.Equal(t, LogicNone, conds[0].Logic)

	assert.Equal(t, GreaterOrEqual, conds[1].Operator)
	assert.Equal(t, []*string{Text("10"), nil, Text("true")}, conds[1].Values)
	assert.Equal(t, And, conds[1].Logic)

	assert.Equal(t, Any, conds[2].Operator)
	assert.NotNil(t, conds[2].Values)
	assert.Empty(t, conds[2].Values)
	assert.Equal(t, Or, conds[2].Logic)
}

func TestCondition_UnmarshalJSONErrors(t *testing.T) {
	tests := map[string]string{
		"unknown operator": `{"field": "A", "operator": "Like"}`,
		"operator range":   `{"field": "A", "operator": 14}`,
		"unknown logic":    `{"field": "A", "operator": 1, "logic": "Xor"}`,
		"nested value":     `{"field": "A", "operator": 1, "values": [["x"]]}`,
		"operator type":    `{"field": "A", "operator": true}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var c Condition
			assert.Error(t, json.Unmarshal([]byte(data), &c))
		})
	}
}

func TestCondition_MarshalRoundTrip(t *testing.T) {
	c := Condition{Field: "Name", Operator: NotContains, Values: []*string{Text("x"), nil}, Logic: Or}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"field":"Name","operator":"NotContains","values":["x",null],"logic":"Or"}`, string(data))

	var back Condition
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c, back)

	first, err := json.Marshal(Condition{Field: "A", Operator: Exists})
	require.NoError(t, err)
	assert.NotContains(t, string(first), "logic")
}

func TestGroup_JSON(t *testing.T) {
	var groups []Group
	require.NoError(t, json.Unmarshal([]byte(`[{"Start":1,"END":3,"level":2}]`), &groups))
	assert.Equal(t, []Group{{Start: 1, End: 3, Level: 2}}, groups)
	assert.Equal(t, "[1-3]@2", groups[0].String())
}

func TestOperatorStrings(t *testing.T) {
	assert.Equal(t, "GreaterOrEqual", GreaterOrEqual.String())
	assert.Equal(t, "SearchOperator(0)", SearchOperator(0).String())
	assert.False(t, SearchOperator(0).Valid())
	assert.Equal(t, "None", LogicNone.String())
	assert.Equal(t, "Or", Or.String())

	_, err := json.Marshal(SearchOperator(42))
	assert.Error(t, err)
}
