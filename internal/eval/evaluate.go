package eval

import (
	"github.com/rs/zerolog/log"

	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

// Evaluate runs the fixed battery of checks for one case against a parsed
// candidate envelope and returns the verdict.
//
// The dataset-selection check runs first; when the candidate answered from
// the wrong dataset none of the shape-dependent checks are meaningful, so
// that mismatch is the sole reason. Every other failure accumulates, so a
// failing verdict carries the complete reason list.
func Evaluate(cfg CaseConfig, env Envelope) EvaluationOutcome {
	if reason, ok := checkDataset(cfg, env); !ok {
		return NewOutcome(cfg.ID, []Reason{reason})
	}

	var reasons []Reason
	switch cfg.Family {
	case domain.FamilyShortInterest, domain.FamilyWeeklySummary:
		if cfg.MultiSymbol() {
			reasons = extractMulti(cfg, env)
		} else {
			reasons = extractSingle(cfg, env)
		}
	case domain.FamilyTreasuryAggregate:
		reasons = extractTreasury(cfg, env)
	}

	outcome := NewOutcome(cfg.ID, reasons)
	log.Debug().
		Str("case_id", cfg.ID).
		Str("dataset", cfg.Family.String()).
		Bool("passed", outcome.Passed).
		Int("reasons", len(reasons)).
		Msg("case evaluated")
	return outcome
}

// checkDataset compares the candidate's declared dataset against the
// family the case was normalized to.
func checkDataset(cfg CaseConfig, env Envelope) (Reason, bool) {
	declared, ok := fieldString(env, "dataset_name", "datasetName", "dataset_group", "datasetGroup")
	if !ok {
		return Reasonf(ReasonDatasetMismatch,
			"dataset_name missing (expected %s)", cfg.Family.DatasetName()), false
	}
	family, ok := domain.ParseDatasetName(declared)
	if !ok || family != cfg.Family {
		return Reasonf(ReasonDatasetMismatch,
			"expected %s, got %s", cfg.Family.DatasetName(), declared), false
	}
	return Reason{}, true
}
