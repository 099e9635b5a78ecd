package persistence

import (
	"context"
	"time"
)

// Run is one stored assessment run.
type Run struct {
	ID          string    `json:"id" db:"id"`
	StartedAt   time.Time `json:"started_at" db:"started_at"`
	FinishedAt  time.Time `json:"finished_at" db:"finished_at"`
	Passed      int       `json:"passed" db:"passed"`
	Total       int       `json:"total" db:"total"`
	OverallPass bool      `json:"overall_pass" db:"overall_pass"`
}

// Outcome is one stored case verdict.
type Outcome struct {
	ID             int64     `json:"id" db:"id"`
	RunID          string    `json:"run_id" db:"run_id"`
	CaseID         string    `json:"case_id" db:"case_id"`
	Dataset        string    `json:"dataset" db:"dataset"`
	Passed         bool      `json:"passed" db:"passed"`
	FailureReasons []string  `json:"failure_reasons" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// RunsRepo stores run-level summaries.
type RunsRepo interface {
	Insert(ctx context.Context, run Run) error
	Latest(ctx context.Context) (*Run, error)
}

// OutcomesRepo stores per-case verdicts with their reason lists.
type OutcomesRepo interface {
	Insert(ctx context.Context, outcome Outcome) error
	ListByRun(ctx context.Context, runID string) ([]Outcome, error)
}
