package eval

import (
	"strings"

	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

// extractSingle grades a single-symbol answer: the same attempt-count and
// closest-date battery as the multi-symbol case, plus presence of the
// dataset-specific metric and agreement of any echoed raw record.
func extractSingle(cfg CaseConfig, env Envelope) []Reason {
	symbol := cfg.Symbols[0]
	var reasons []Reason

	attempts, hasAttempts := parseAttempts(env, symbol, cfg.Family)
	if !hasAttempts || len(attempts) < cfg.MinAttempts {
		shortfall := cfg.MinAttempts - len(attempts)
		reasons = append(reasons, Reasonf(ReasonInsufficientAttempts,
			"%s: %d attempts reported, %d required (shortfall %d)",
			symbol, len(attempts), cfg.MinAttempts, shortfall))
	}

	closest, err := domain.ClosestDate(cfg.RequestedDate, validDates(attempts))
	if err != nil {
		reasons = append(reasons, Reasonf(ReasonNoValidDate,
			"%s: no attempt yielded a usable record", symbol))
	} else {
		chosen, ok := resultChosenDate(env, cfg.Family)
		if !ok {
			reasons = append(reasons, Reasonf(ReasonNonClosestDate, "%s: missing chosen_date", symbol))
		} else if !chosen.Equal(closest) {
			reasons = append(reasons, Reasonf(ReasonNonClosestDate,
				"%s: chosen_date %s is not the closest attempted date to %s (expected %s)",
				symbol, domain.FormatDate(chosen), domain.FormatDate(cfg.RequestedDate), domain.FormatDate(closest)))
		}
	}

	metric := cfg.Family.MetricField()
	if _, ok := metricValue(env, metric); !ok {
		reasons = append(reasons, Reasonf(ReasonMissingMetric,
			"%s: %s missing or not numeric", symbol, metric))
	}

	reasons = append(reasons, checkEchoedRecord(cfg, env, symbol)...)
	return reasons
}

// metricValue looks for the metric on the envelope itself, then inside an
// embedded raw record.
func metricValue(env Envelope, metric string) (float64, bool) {
	if v, ok := fieldNumber(env, metric); ok {
		return v, true
	}
	if record, ok := fieldMap(env, "record"); ok {
		return fieldNumber(record, metric)
	}
	return 0, false
}

// checkEchoedRecord verifies that a raw dataset row echoed by the
// candidate is actually about the requested symbol and date. Both fields
// are optional; only a contradiction fails.
func checkEchoedRecord(cfg CaseConfig, env Envelope, symbol string) []Reason {
	record, ok := fieldMap(env, "record")
	if !ok {
		return nil
	}

	var reasons []Reason
	if recordSymbol, ok := fieldString(record, "symbolCode", "issueSymbolIdentifier", "symbol"); ok {
		if !strings.EqualFold(recordSymbol, symbol) {
			reasons = append(reasons, Reasonf(ReasonMissingSymbol,
				"record symbol mismatch: expected %s, got %s", symbol, recordSymbol))
		}
	}
	if recordDate, ok := fieldDate(record, chosenDateKeys(cfg.Family)[1:]...); ok {
		if chosen, okChosen := resultChosenDate(env, cfg.Family); okChosen && !recordDate.Equal(chosen) {
			reasons = append(reasons, Reasonf(ReasonNonClosestDate,
				"record date %s disagrees with chosen_date %s",
				domain.FormatDate(recordDate), domain.FormatDate(chosen)))
		}
	}
	return reasons
}
