package harness

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when both repositories returned the expected ids.
	Pass bool `json:"pass"`

	// Query is the rendered query.
	Query string `json:"query"`

	// Memory and SQL are the ids each repository returned, in order.
	Memory []string `json:"memory"`
	SQL    []string `json:"sql"`

	// Count is what the SQL repository's Count returned.
	Count int `json:"count"`

	// Statement and Params are the SQL the SQL repository ran. Empty when
	// the query was evaluated in memory.
	Statement string `json:"statement,omitempty"`
	Params    []any  `json:"params,omitempty"`

	// Warnings are the portability warnings of the built query.
	Warnings []string `json:"warnings,omitempty"`

	// Errors contains mismatch messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
