package eval

import (
	"strings"

	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

// extractMulti grades a multi-symbol short-interest or weekly-summary
// answer: one result per requested symbol, enough attempts each, a chosen
// date that really is the closest attempted one, and a best-of answer that
// matches an independent recomputation.
func extractMulti(cfg CaseConfig, env Envelope) []Reason {
	var reasons []Reason

	results, ok := fieldList(env, "results")
	if !ok || len(results) == 0 {
		return append(reasons, Reasonf(ReasonMissingSymbol,
			"results list missing; no result for symbols: %s", strings.Join(cfg.Symbols, ", ")))
	}

	bySymbol := make(map[string]map[string]interface{}, len(results))
	for _, result := range results {
		if sym, ok := resultSymbol(result); ok {
			if _, dup := bySymbol[sym]; !dup {
				bySymbol[sym] = result
			}
		}
	}

	var missing []string
	resolved := make(map[string]ResolvedResult, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		result, ok := bySymbol[symbol]
		if !ok {
			missing = append(missing, symbol)
			continue
		}
		if r, rs := extractSymbolResult(cfg, symbol, result); rs != nil {
			reasons = append(reasons, rs...)
		} else {
			resolved[symbol] = r
		}
	}
	if len(missing) > 0 {
		reasons = append(reasons, Reasonf(ReasonMissingSymbol,
			"no result for symbols: %s", strings.Join(missing, ", ")))
	}

	reasons = append(reasons, checkBest(cfg, env, resolved)...)
	return reasons
}

// extractSymbolResult runs the per-symbol battery: attempt count, closest
// date, metric presence. A nil reason slice means the symbol resolved.
func extractSymbolResult(cfg CaseConfig, symbol string, result map[string]interface{}) (ResolvedResult, []Reason) {
	var reasons []Reason

	attempts, hasAttempts := parseAttempts(result, symbol, cfg.Family)
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
		return ResolvedResult{}, reasons
	}

	chosen, ok := resultChosenDate(result, cfg.Family)
	if !ok {
		reasons = append(reasons, Reasonf(ReasonNonClosestDate, "%s: missing chosen_date", symbol))
	} else if !chosen.Equal(closest) {
		reasons = append(reasons, Reasonf(ReasonNonClosestDate,
			"%s: chosen_date %s is not the closest attempted date to %s (expected %s)",
			symbol, domain.FormatDate(chosen), domain.FormatDate(cfg.RequestedDate), domain.FormatDate(closest)))
	}

	// The attempt log at the chosen date is authoritative; the result-level
	// metric is only a fallback, otherwise a candidate could inflate its
	// per-symbol figure and a matching best_quantity in lockstep.
	metric := cfg.Family.MetricField()
	value, ok := attemptValueOn(attempts, closest)
	if !ok {
		value, ok = fieldNumber(result, metric, "quantity")
	}
	if !ok {
		reasons = append(reasons, Reasonf(ReasonMissingMetric,
			"%s: %s missing or not numeric", symbol, metric))
	}

	if reasons != nil {
		return ResolvedResult{}, reasons
	}
	return ResolvedResult{Symbol: symbol, ChosenDate: closest, Value: value}, nil
}

// checkBest recomputes best_symbol/best_quantity as the maximum resolved
// metric (ties broken by first-seen symbol order) and compares it against
// the candidate's claim.
func checkBest(cfg CaseConfig, env Envelope, resolved map[string]ResolvedResult) []Reason {
	var bestSymbol string
	var bestValue float64
	haveBest := false
	for _, symbol := range cfg.Symbols {
		r, ok := resolved[symbol]
		if !ok {
			continue
		}
		if !haveBest || r.Value > bestValue {
			bestSymbol = symbol
			bestValue = r.Value
			haveBest = true
		}
	}
	if !haveBest {
		// Per-symbol reasons already explain what went wrong.
		return nil
	}

	var reasons []Reason
	claimedSymbol, okSym := fieldString(env, "best_symbol", "bestSymbol")
	if !okSym || !strings.EqualFold(claimedSymbol, bestSymbol) {
		reasons = append(reasons, Reasonf(ReasonBestValueMismatch,
			"best_symbol: expected %s, got %q", bestSymbol, claimedSymbol))
	}
	claimedValue, okVal := fieldNumber(env, "best_quantity", "bestQuantity")
	if !okVal || absFloat(claimedValue-bestValue) > BestQuantityTolerance {
		reasons = append(reasons, Reasonf(ReasonBestValueMismatch,
			"best_quantity: expected %v, got %v", bestValue, claimedValue))
	}
	return reasons
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
