package eval

import (
	"time"

	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

// DefaultMinAttempts is the attempt floor applied when a case does not set
// its own. The candidate must probe at least this many dates per symbol
// before settling on a closest match.
const DefaultMinAttempts = 3

// BestQuantityTolerance is the absolute tolerance used when comparing the
// candidate's reported best quantity against the recomputed maximum.
const BestQuantityTolerance = 1e-4

// CaseConfig is the fully resolved description of one graded case.
// It is built once by Normalize and never mutated afterwards.
type CaseConfig struct {
	ID            string
	Family        domain.DatasetFamily
	Symbols       []string // uppercased, deduplicated, first-seen order
	RequestedDate time.Time
	MinAttempts   int
	Bucket        *domain.MaturityBucket // treasury cases only
	Benchmark     string                 // "On-the-run" or "Off-the-run"
	RequiresDelta bool                   // treasury year-over-year comparison
	Question      string
}

// MultiSymbol reports whether the case expects one result per symbol.
func (c CaseConfig) MultiSymbol() bool {
	return len(c.Symbols) > 1
}

// Attempt is one candidate-reported probe for a date, tagged with whether
// it yielded a usable record.
type Attempt struct {
	Symbol string
	Date   time.Time
	Value  *float64
	Valid  bool
}

// ResolvedResult is the candidate's declared final answer for one symbol.
type ResolvedResult struct {
	Symbol     string
	ChosenDate time.Time
	Value      float64
}

// TreasuryRecord is one treasury daily-aggregate row as reported by the
// candidate, optionally paired with a prior-year observation.
type TreasuryRecord struct {
	TradeDate            time.Time
	Bucket               domain.MaturityBucket
	Benchmark            string
	DealerCustomerVolume float64
	PreviousTradeDate    *time.Time
	PreviousVolume       *float64
}

// EvaluationOutcome is the verdict for one case. Passed is true exactly
// when the reason list is empty.
type EvaluationOutcome struct {
	CaseID         string   `json:"case_id"`
	Passed         bool     `json:"passed"`
	FailureReasons []Reason `json:"failure_reasons"`
}

// NewOutcome finalizes a verdict from accumulated reasons.
func NewOutcome(caseID string, reasons []Reason) EvaluationOutcome {
	return EvaluationOutcome{
		CaseID:         caseID,
		Passed:         len(reasons) == 0,
		FailureReasons: reasons,
	}
}
