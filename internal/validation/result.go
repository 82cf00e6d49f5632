package validation

// Issue is one reported error or warning. Line and Column are zero-based
// and nil when no location is known. The JSON field set matches the doctor
// wire format; error-only and warning-only fields are omitted when empty.
type Issue struct {
	File          string `json:"file"`
	Line          *int   `json:"line"`
	Column        *int   `json:"column"`
	Level         string `json:"level"`
	Message       string `json:"message"`
	Context       string `json:"context,omitempty"`
	Documentation string `json:"documentation,omitempty"`
	Suggestion    string `json:"suggestion,omitempty"`
}

// Suggestion is a free-standing recommendation, optionally with an example.
type Suggestion struct {
	Message string `json:"message"`
	Example string `json:"example,omitempty"`
}

// Result collects every issue found while validating one document. The three
// sequences keep first-found-first-reported order and are reproducible for
// identical input.
type Result struct {
	Errors      []Issue      `json:"errors"`
	Warnings    []Issue      `json:"warnings"`
	Suggestions []Suggestion `json:"suggestions"`
}

// NewResult returns an empty result. The slices are allocated so the JSON
// rendering emits arrays rather than nulls.
func NewResult() *Result {
	return &Result{
		Errors:      []Issue{},
		Warnings:    []Issue{},
		Suggestions: []Suggestion{},
	}
}

// HasErrors reports whether at least one error (not warning or suggestion)
// was found. This drives the doctor exit code.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// ErrorCount returns the number of errors.
func (r *Result) ErrorCount() int { return len(r.Errors) }

// WarningCount returns the number of warnings.
func (r *Result) WarningCount() int { return len(r.Warnings) }

// Merge appends other's issues after r's, preserving both orders.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Suggestions = append(r.Suggestions, other.Suggestions...)
}
