package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
)

// SearchOperator is the comparison applied by a condition.
//
// Numeric values match the wire format: a payload may send either the
// name (case-insensitive) or the number.
type SearchOperator int

const (
	// Supported by every type.
	Equals    SearchOperator = 1
	NotEquals SearchOperator = 2
	Any       SearchOperator = 3

	// Orderable types only.
	Greater        SearchOperator = 4
	GreaterOrEqual SearchOperator = 5
	Less           SearchOperator = 6
	LessOrEqual    SearchOperator = 7

	// Nullable types only.
	Exists    SearchOperator = 8
	NotExists SearchOperator = 9

	// String only.
	StartsWith  SearchOperator = 10
	EndsWith    SearchOperator = 11
	Contains    SearchOperator = 12
	NotContains SearchOperator = 13
)

var searchOperatorNames = map[SearchOperator]string{
	Equals:         "Equals",
	NotEquals:      "NotEquals",
	Any:            "Any",
	Greater:        "Greater",
	GreaterOrEqual: "GreaterOrEqual",
	Less:           "Less",
	LessOrEqual:    "LessOrEqual",
	Exists:         "Exists",
	NotExists:      "NotExists",
	StartsWith:     "StartsWith",
	EndsWith:       "EndsWith",
	Contains:       "Contains",
	NotContains:    "NotContains",
}

func (op SearchOperator) String() string {
	if s, ok := searchOperatorNames[op]; ok {
		return s
	}
	return fmt.Sprintf("SearchOperator(%d)", int(op))
}

// Valid reports whether op is a declared operator.
func (op SearchOperator) Valid() bool {
	_, ok := searchOperatorNames[op]
	return ok
}

// MarshalJSON encodes the operator by name.
func (op SearchOperator) MarshalJSON() ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("invalid search operator %d", int(op))
	}
	return json.Marshal(op.String())
}

// UnmarshalJSON accepts a name (case-insensitive) or a number.
func (op *SearchOperator) UnmarshalJSON(data []byte) error {
	n, err := decodeEnum(data, "search operator", searchOperatorNames)
	if err != nil {
		return err
	}
	*op = SearchOperator(n)
	return nil
}

// LogicOperator attaches a condition or group to its left sibling.
// LogicNone is only meaningful for the first condition of a list.
type LogicOperator int

const (
	LogicNone LogicOperator = 0
	And       LogicOperator = 1
	Or        LogicOperator = 2
)

var logicOperatorNames = map[LogicOperator]string{
	And: "And",
	Or:  "Or",
}

func (l LogicOperator) String() string {
	if l == LogicNone {
		return "None"
	}
	if s, ok := logicOperatorNames[l]; ok {
		return s
	}
	return fmt.Sprintf("LogicOperator(%d)", int(l))
}

// MarshalJSON encodes And/Or by name and LogicNone as null.
func (l LogicOperator) MarshalJSON() ([]byte, error) {
	if l == LogicNone {
		return []byte("null"), nil
	}
	if _, ok := logicOperatorNames[l]; !ok {
		return nil, fmt.Errorf("invalid logic operator %d", int(l))
	}
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts a name (case-insensitive), a number or null.
func (l *LogicOperator) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = LogicNone
		return nil
	}
	n, err := decodeEnum(data, "logic operator", logicOperatorNames)
	if err != nil {
		return err
	}
	*l = LogicOperator(n)
	return nil
}

func decodeEnum[E ~int](data []byte, what string, names map[E]string) (int, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		fold := cases.Fold()
		want := fold.String(s)
		for v, name := range names {
			if fold.String(name) == want {
				return int(v), nil
			}
		}
		if n, err := strconv.Atoi(s); err == nil {
			if _, ok := names[E(n)]; ok {
				return n, nil
			}
		}
		return 0, fmt.Errorf("unknown %s %q", what, s)
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("%s must be a string or integer: %s", what, data)
	}
	if _, ok := names[E(n)]; !ok {
		return 0, fmt.Errorf("unknown %s %d", what, n)
	}
	return n, nil
}

// Condition is one atomic comparison between a record member and literal
// values.
type Condition struct {
	// Field names the record member (case-sensitive).
	Field string `json:"field"`

	// Operator is the comparison to apply.
	Operator SearchOperator `json:"operator"`

	// Values holds the literal text values. nil elements are null
	// literals. Single-value operators use the first element.
	Values []*string `json:"values"`

	// Logic attaches the condition to its left sibling. It is LogicNone
	// for the first condition.
	Logic LogicOperator `json:"logic,omitempty"`
}

// UnmarshalJSON accepts the literal list under "values" or "value". Array
// elements may be strings, numbers, booleans or null; non-string scalars
// are kept as their JSON text.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var aux struct {
		Field    string            `json:"field"`
		Operator SearchOperator    `json:"operator"`
		Value    []json.RawMessage `json:"value"`
		Values   []json.RawMessage `json:"values"`
		Logic    LogicOperator     `json:"logic"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	raw := aux.Values
	if raw == nil {
		raw = aux.Value
	}
	values, err := decodeLiterals(raw)
	if err != nil {
		return fmt.Errorf("condition %q: %w", aux.Field, err)
	}
	*c = Condition{
		Field:    aux.Field,
		Operator: aux.Operator,
		Values:   values,
		Logic:    aux.Logic,
	}
	return nil
}

func decodeLiterals(raw []json.RawMessage) ([]*string, error) {
	if raw == nil {
		return nil, nil
	}
	out := make([]*string, 0, len(raw))
	for i, r := range raw {
		r = bytes.TrimSpace(r)
		switch {
		case bytes.Equal(r, []byte("null")):
			out = append(out, nil)
		case len(r) > 0 && r[0] == '"':
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				return nil, fmt.Errorf("value %d: %w", i, err)
			}
			out = append(out, &s)
		case len(r) > 0 && (r[0] == '[' || r[0] == '{'):
			return nil, fmt.Errorf("value %d: nested arrays and objects are not supported", i)
		default:
			s := string(r)
			out = append(out, &s)
		}
	}
	return out, nil
}

// Group is a 1-based inclusive range of conditions that is combined as
// one parenthesized sub-expression. Groups at lower levels nest inside
// groups at higher levels whose range contains them.
type Group struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Level int `json:"level"`
}

func (g Group) String() string {
	return fmt.Sprintf("[%d-%d]@%d", g.Start, g.End, g.Level)
}

func (g Group) contains(other Group) bool {
	return g.Start <= other.Start && other.End <= g.End
}

func (g Group) overlaps(other Group) bool {
	return g.Start <= other.End && other.Start <= g.End
}

// Text returns a pointer to s, for building condition literals.
func Text(s string) *string {
	return &s
}

// Texts returns pointers to each of ss.
func Texts(ss ...string) []*string {
	out := make([]*string, len(ss))
	for i := range ss {
		out[i] = &ss[i]
	}
	return out
}
