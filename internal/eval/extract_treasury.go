package eval

import (
	"time"

	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

// extractTreasury grades a treasury daily-aggregates answer: the reported
// record must sit on the closest attempted trade date and match the
// requested maturity bucket and benchmark, carry a numeric dealer-customer
// volume, and — for year-over-year cases — pair it with the closest
// available prior-year trade date.
func extractTreasury(cfg CaseConfig, env Envelope) []Reason {
	var reasons []Reason

	attempts, hasAttempts := parseAttempts(env, "", cfg.Family)
	if !hasAttempts || len(attempts) < cfg.MinAttempts {
		shortfall := cfg.MinAttempts - len(attempts)
		reasons = append(reasons, Reasonf(ReasonInsufficientAttempts,
			"%d attempts reported, %d required (shortfall %d)",
			len(attempts), cfg.MinAttempts, shortfall))
	}

	closest, err := domain.ClosestDate(cfg.RequestedDate, validDates(attempts))
	if err != nil {
		reasons = append(reasons, Reasonf(ReasonNoValidDate,
			"no attempt yielded a usable trade date"))
		return reasons
	}

	record, recordReasons := locateTreasuryRecord(cfg, env, closest)
	reasons = append(reasons, recordReasons...)
	if record == nil {
		return reasons
	}

	if cfg.RequiresDelta {
		// Prior-year fields may sit beside the records array rather than
		// inside the matched record.
		if record.PreviousTradeDate == nil {
			if prev, ok := fieldDate(env, "previous_trade_date", "previousTradeDate"); ok {
				record.PreviousTradeDate = &prev
			}
		}
		if record.PreviousVolume == nil {
			if prevVol, ok := fieldNumber(env, "previous_dealerCustomerVolume", "previous_dealer_customer_volume"); ok {
				record.PreviousVolume = &prevVol
			}
		}
		reasons = append(reasons, checkDelta(cfg, env, attempts, record)...)
	}
	return reasons
}

// locateTreasuryRecord finds the candidate record on the closest trade
// date whose maturity bucket and benchmark match the case. When the
// envelope carries no records array, its top-level fields form the single
// candidate record.
func locateTreasuryRecord(cfg CaseConfig, env Envelope, closest time.Time) (*TreasuryRecord, []Reason) {
	candidates, ok := fieldList(env, "records")
	if !ok {
		candidates = []map[string]interface{}{env}
	}

	// Bucket parse failures only matter when no record matches at all:
	// live data carries maturity buckets outside the graded set, and a
	// non-matching sibling record must not fail an otherwise valid answer.
	var parseFailures []Reason
	for _, candidate := range candidates {
		tradeDate, ok := fieldDate(candidate, "trade_date", "tradeDate")
		if !ok || !tradeDate.Equal(closest) {
			continue
		}

		bucketText, hasBucket := fieldString(candidate, "yearsToMaturity", "years_to_maturity", "maturity")
		var bucket domain.MaturityBucket
		if hasBucket {
			parsed, err := domain.ParseMaturityBucket(bucketText)
			if err != nil {
				parseFailures = append(parseFailures, Reasonf(ReasonUnrecognizedBucket,
					"yearsToMaturity %q: %v", bucketText, err))
				continue
			}
			bucket = parsed
		}
		if cfg.Bucket != nil && (!hasBucket || bucket != *cfg.Bucket) {
			continue
		}

		benchmark, _ := fieldString(candidate, "benchmark", "benchmarkName")
		if cfg.Benchmark != "" {
			normalized, err := NormalizeBenchmark(benchmark)
			if err != nil || normalized != cfg.Benchmark {
				continue
			}
		}

		var reasons []Reason
		record := &TreasuryRecord{TradeDate: tradeDate, Bucket: bucket, Benchmark: cfg.Benchmark}
		volume, ok := fieldNumber(candidate, "dealerCustomerVolume", "dealer_customer_volume")
		if !ok {
			reasons = append(reasons, Reasonf(ReasonMissingMetric,
				"dealerCustomerVolume missing or not numeric"))
		} else {
			record.DealerCustomerVolume = volume
		}

		if prev, ok := fieldDate(candidate, "previous_trade_date", "previousTradeDate"); ok {
			record.PreviousTradeDate = &prev
		}
		if prevVol, ok := fieldNumber(candidate, "previous_dealerCustomerVolume", "previous_dealer_customer_volume"); ok {
			record.PreviousVolume = &prevVol
		}
		return record, reasons
	}

	return nil, append(parseFailures, Reasonf(ReasonTreasuryRecordMissing,
		"no record on %s matching bucket/benchmark", domain.FormatDate(closest)))
}

// checkDelta verifies the year-over-year pairing: the reported
// previous_trade_date must be the closest valid attempted date to one
// calendar year before the requested date, and a prior volume must ride
// along with it.
func checkDelta(cfg CaseConfig, env Envelope, attempts []Attempt, record *TreasuryRecord) []Reason {
	var reasons []Reason

	priorTarget := cfg.RequestedDate.AddDate(-1, 0, 0)
	priorAttempts, ok := parseAttempts(env, "", cfg.Family, "previous_attempts", "previousAttempts")
	if !ok {
		priorAttempts = attempts
	}

	priorClosest, err := domain.ClosestDate(priorTarget, validDates(priorAttempts))
	if err != nil {
		return append(reasons, Reasonf(ReasonNoValidDate,
			"no valid attempt near prior-year date %s", domain.FormatDate(priorTarget)))
	}

	switch {
	case record.PreviousTradeDate == nil:
		reasons = append(reasons, Reasonf(ReasonDeltaDateMismatch,
			"previous_trade_date missing (expected %s)", domain.FormatDate(priorClosest)))
	case !record.PreviousTradeDate.Equal(priorClosest):
		reasons = append(reasons, Reasonf(ReasonDeltaDateMismatch,
			"previous_trade_date %s is not the closest available date to %s (expected %s)",
			domain.FormatDate(*record.PreviousTradeDate), domain.FormatDate(priorTarget),
			domain.FormatDate(priorClosest)))
	}

	if record.PreviousVolume == nil {
		reasons = append(reasons, Reasonf(ReasonMissingMetric,
			"previous_dealerCustomerVolume missing or not numeric"))
	}
	return reasons
}
