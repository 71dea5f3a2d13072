package history

import (
	"context"
	"time"
)

// RunRecord summarizes one conformance run for export to external
// statistics/reporting systems.
type RunRecord struct {
	Service    string    `json:"service"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Checks     int       `json:"checks"`
	Violations int       `json:"violations"`
	Passed     bool      `json:"passed"`
	Detail     string    `json:"detail,omitempty"`
}

// Sink is a destination for run records. Implementations must be safe for
// concurrent use.
type Sink interface {
	Send(ctx context.Context, r RunRecord) error
}
