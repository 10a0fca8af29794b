package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a filter test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario (and its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Products are the catalog entries, member name to text value.
	Products []map[string]*string `yaml:"products,omitempty"`

	// Generate appends deterministic generated products.
	Generate *GenerateSpec `yaml:"generate,omitempty"`

	// Operations is the operation list, in the JSON request shape.
	Operations []any `yaml:"operations"`

	// Expect specifies the expected elements or rejection.
	Expect *Expect `yaml:"expect,omitempty"`

	// Assertions validate properties of the resulting elements.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// GenerateSpec configures catalog.Generate.
type GenerateSpec struct {
	Count int   `yaml:"count"`
	Seed  int64 `yaml:"seed"`
}

// Expect specifies the outcome of a scenario.
type Expect struct {
	// Count is the expected number of elements.
	Count *int `yaml:"count,omitempty"`

	// Items are the expected presented elements, compared in order.
	Items []any `yaml:"items,omitempty"`

	// Error expects the operations to be rejected.
	Error *ExpectError `yaml:"error,omitempty"`
}

// ExpectError matches a rejection by fault code and, optionally, by a
// field named in its per-field messages.
type ExpectError struct {
	Code  string `yaml:"code"`
	Field string `yaml:"field,omitempty"`
}

// Assertion validates the resulting elements.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Item is a subset of an element (used by contains, excludes, count).
	// For single-value selections it is compared with the whole element.
	Item any `yaml:"item,omitempty"`

	// Field is the member checked by sorted; empty means the element.
	Field string `yaml:"field,omitempty"`

	// Descending flips the sorted check.
	Descending bool `yaml:"descending,omitempty"`

	// Count is the expected number of matches (used by count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertContains = "contains"
	AssertExcludes = "excludes"
	AssertSorted   = "sorted"
	AssertCount    = "count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Operations == nil {
		return fmt.Errorf("operations list is required (use [] for none)")
	}

	if s.Generate != nil && s.Generate.Count < 1 {
		return fmt.Errorf("generate.count must be at least 1")
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	if s.Expect != nil && s.Expect.Error != nil {
		if s.Expect.Error.Code == "" {
			return fmt.Errorf("expect.error: code is required")
		}
		if s.Expect.Count != nil || s.Expect.Items != nil || len(s.Assertions) > 0 {
			return fmt.Errorf("expect.error cannot be combined with count, items or assertions")
		}
	}

	if s.Expect != nil && s.Expect.Count != nil && *s.Expect.Count < 0 {
		return fmt.Errorf("expect.count must be non-negative")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertContains, AssertExcludes:
		if a.Item == nil {
			return fmt.Errorf("assertions[%d]: item is required for %s", index, a.Type)
		}
	case AssertCount:
		if a.Item == nil {
			return fmt.Errorf("assertions[%d]: item is required for count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertSorted:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
