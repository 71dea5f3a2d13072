package checks

import "fmt"

// Violation is one failed expectation. Checks are independent: every
// violation is recorded and execution continues, so a report lists everything
// that went wrong in a run, not just the first mismatch.
type Violation struct {
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

func (v Violation) String() string { return v.Check + ": " + v.Detail }

// Report accumulates violations across checks.
type Report struct {
	violations []Violation
}

func NewReport() *Report { return &Report{} }

func (r *Report) addf(check, format string, args ...any) {
	r.violations = append(r.violations, Violation{Check: check, Detail: fmt.Sprintf(format, args...)})
}

// Passed reports whether no check recorded a violation.
func (r *Report) Passed() bool { return len(r.violations) == 0 }

// Violations returns the recorded violations in order.
func (r *Report) Violations() []Violation { return r.violations }
