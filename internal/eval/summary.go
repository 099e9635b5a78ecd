package eval

import "sync"

// RunSummary is the run-level verdict: a strict AND over case outcomes,
// never a threshold.
type RunSummary struct {
	Passed      int  `json:"passed"`
	Total       int  `json:"total"`
	OverallPass bool `json:"overall_pass"`
}

// Aggregator folds case outcomes into a RunSummary. It only counts — case
// content never influences it — and is safe for concurrent use, so one
// worker per case can report directly.
type Aggregator struct {
	mu     sync.Mutex
	passed int
	total  int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add folds one completed case into the counters. Each outcome must be
// added exactly once; a cancelled run simply stops adding, leaving the
// counts reflecting completed cases only.
func (a *Aggregator) Add(outcome EvaluationOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	if outcome.Passed {
		a.passed++
	}
}

// Summary snapshots the current counters.
func (a *Aggregator) Summary() RunSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return RunSummary{
		Passed:      a.passed,
		Total:       a.total,
		OverallPass: a.passed == a.total,
	}
}
