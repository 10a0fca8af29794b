package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: the backends agree and every
	// expectation and assertion holds.
	Pass bool `json:"pass"`

	// Pipeline is the resolved pipeline (operation.Pipeline.String), empty
	// when the operations were rejected.
	Pipeline string `json:"pipeline,omitempty"`

	// Items are the presented elements, normalized to JSON values.
	Items []any `json:"items"`

	// Rejection is the error the operations were rejected with, if any.
	Rejection string `json:"rejection,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// elems are the canonical elements of the memory backend.
	elems []any
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Items:  []any{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
