package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/dynfilter/internal/expr"
	"github.com/roach88/dynfilter/internal/operation"
)

// AssertionError is returned when an assertion fails.
// It includes the elements to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Items    []any  // Elements for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nElements:\n")
	for i, item := range e.Items {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, compact(item))
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in assertion order.
func EvaluateAssertions(p *operation.Pipeline, result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertContains:
			err = assertContains(result.Items, a)
		case AssertExcludes:
			err = assertExcludes(result.Items, a)
		case AssertCount:
			err = assertCount(result.Items, a)
		case AssertSorted:
			err = assertSorted(p, result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func assertContains(items []any, a Assertion) error {
	if countMatches(items, a.Item) > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertContains,
		Expected: fmt.Sprintf("an element matching %s", compact(a.Item)),
		Actual:   "not found",
		Items:    items,
	}
}

func assertExcludes(items []any, a Assertion) error {
	n := countMatches(items, a.Item)
	if n == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertExcludes,
		Expected: fmt.Sprintf("no element matching %s", compact(a.Item)),
		Actual:   fmt.Sprintf("%d matching element(s)", n),
		Items:    items,
	}
}

func assertCount(items []any, a Assertion) error {
	n := countMatches(items, a.Item)
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCount,
		Expected: fmt.Sprintf("%d element(s) matching %s", a.Count, compact(a.Item)),
		Actual:   fmt.Sprintf("%d", n),
		Items:    items,
	}
}

// assertSorted checks the canonical values of the memory backend, so
// decimals and times are ordered by value rather than by their text.
func assertSorted(p *operation.Pipeline, result *Result, a Assertion) error {
	key, err := sortValue(p, a.Field)
	if err != nil {
		return &AssertionError{Type: AssertSorted, Expected: "a sortable field", Actual: err.Error(), Items: result.Items}
	}

	for i := 1; i < len(result.elems); i++ {
		c := expr.Order(key(result.elems[i-1]), key(result.elems[i]))
		if a.Descending {
			c = -c
		}
		if c > 0 {
			dir := "ascending"
			if a.Descending {
				dir = "descending"
			}
			name := a.Field
			if name == "" {
				name = "element"
			}
			return &AssertionError{
				Type:     AssertSorted,
				Expected: fmt.Sprintf("elements %s by %s", dir, name),
				Actual:   fmt.Sprintf("element %d is out of order", i+1),
				Items:    result.Items,
			}
		}
	}
	return nil
}

func sortValue(p *operation.Pipeline, field string) (func(any) any, error) {
	proj := p.Projection()
	switch {
	case field == "":
		if proj == nil || !proj.Single {
			return nil, fmt.Errorf("ordering by the element needs a single-value select")
		}
		return func(e any) any { return e }, nil
	case proj == nil:
		f, err := p.Schema.Field(field)
		if err != nil {
			return nil, err
		}
		return f.Value, nil
	case proj.Single:
		if proj.Fields[0].Name != field {
			return nil, fmt.Errorf("field %s is not selected", field)
		}
		return func(e any) any { return e }, nil
	default:
		for _, f := range proj.Fields {
			if f.Name == field {
				return func(e any) any { return e.(operation.Row)[field] }, nil
			}
		}
		return nil, fmt.Errorf("field %s is not selected", field)
	}
}

func countMatches(items []any, want any) int {
	want = normalizeOne(want)
	n := 0
	for _, item := range items {
		if matchSubset(item, want) {
			n++
		}
	}
	return n
}

// matchSubset reports whether actual contains expected: maps match when
// every expected key matches, other values must be equal.
func matchSubset(actual, expected any) bool {
	em, ok := expected.(map[string]any)
	if !ok {
		return reflect.DeepEqual(actual, expected)
	}
	am, ok := actual.(map[string]any)
	if !ok {
		return false
	}
	for k, ev := range em {
		av, exists := am[k]
		if !exists || !matchSubset(av, ev) {
			return false
		}
	}
	return true
}

func normalizeOne(v any) any {
	out, err := normalize([]any{v})
	if err != nil || len(out) != 1 {
		return v
	}
	return out[0]
}
