package eval

import (
	"strconv"
	"strings"
	"time"

	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

// Field-access helpers over the untyped envelope. Candidates are graded on
// semantics, not key spelling, so each accessor walks a fixed fallback
// chain of the key variants seen in real FINRA tooling output.

func fieldString(m map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
	}
	return "", false
}

// fieldNumber coerces a numeric field. Quantities occasionally arrive as
// strings; those parse too, but anything else is rejected.
func fieldNumber(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if n, ok := coerceNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

func coerceNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func fieldList(m map[string]interface{}, keys ...string) ([]map[string]interface{}, bool) {
	for _, key := range keys {
		raw, ok := m[key].([]interface{})
		if !ok {
			continue
		}
		out := make([]map[string]interface{}, 0, len(raw))
		for _, item := range raw {
			if obj, ok := item.(map[string]interface{}); ok {
				out = append(out, obj)
			}
		}
		return out, true
	}
	return nil, false
}

func fieldMap(m map[string]interface{}, keys ...string) (map[string]interface{}, bool) {
	for _, key := range keys {
		if obj, ok := m[key].(map[string]interface{}); ok {
			return obj, true
		}
	}
	return nil, false
}

func fieldDate(m map[string]interface{}, keys ...string) (time.Time, bool) {
	s, ok := fieldString(m, keys...)
	if !ok {
		return time.Time{}, false
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// resultSymbol extracts a symbol from a per-symbol result object.
func resultSymbol(m map[string]interface{}) (string, bool) {
	s, ok := fieldString(m, "symbol", "symbolCode", "issueSymbolIdentifier")
	if !ok {
		return "", false
	}
	return strings.ToUpper(s), true
}

// resultChosenDate extracts the candidate's declared final date for a
// result, checking the result itself and its embedded raw record.
func resultChosenDate(m map[string]interface{}, family domain.DatasetFamily) (time.Time, bool) {
	keys := chosenDateKeys(family)
	if t, ok := fieldDate(m, keys...); ok {
		return t, true
	}
	if record, ok := fieldMap(m, "record"); ok {
		return fieldDate(record, keys...)
	}
	return time.Time{}, false
}

func chosenDateKeys(family domain.DatasetFamily) []string {
	switch family {
	case domain.FamilyWeeklySummary:
		return []string{"chosen_date", "weekStartDate", "summaryStartDate", "week_start_date"}
	case domain.FamilyTreasuryAggregate:
		return []string{"chosen_date", "trade_date", "tradeDate"}
	default:
		return []string{"chosen_date", "settlement_date", "settlementDate"}
	}
}

// parseAttempts decodes an attempts array. An attempt is valid when the
// candidate marks it so explicitly, or, absent the flag, when it carries a
// numeric quantity — an attempt that found no record has neither.
func parseAttempts(m map[string]interface{}, symbol string, family domain.DatasetFamily, keys ...string) ([]Attempt, bool) {
	if len(keys) == 0 {
		keys = []string{"attempts"}
	}
	items, ok := fieldList(m, keys...)
	if !ok {
		return nil, false
	}

	attempts := make([]Attempt, 0, len(items))
	for _, item := range items {
		date, ok := fieldDate(item, "attempted_date", "settlement_date", "date", "trade_date")
		if !ok {
			continue
		}
		attempt := Attempt{Symbol: symbol, Date: date}
		if v, ok := fieldNumber(item, "quantity", "value", family.MetricField()); ok {
			attempt.Value = &v
		}
		if valid, ok := item["valid"].(bool); ok {
			attempt.Valid = valid
		} else {
			attempt.Valid = attempt.Value != nil
		}
		attempts = append(attempts, attempt)
	}
	return attempts, true
}

// validDates filters an attempt sequence down to the dates that yielded a
// usable record, in attempt order.
func validDates(attempts []Attempt) []time.Time {
	dates := make([]time.Time, 0, len(attempts))
	for _, a := range attempts {
		if a.Valid {
			dates = append(dates, a.Date)
		}
	}
	return dates
}

// attemptValueOn returns the value of the first valid attempt on a date.
func attemptValueOn(attempts []Attempt, date time.Time) (float64, bool) {
	for _, a := range attempts {
		if a.Valid && a.Date.Equal(date) && a.Value != nil {
			return *a.Value, true
		}
	}
	return 0, false
}
