package domain

import (
	"errors"
	"time"
)

// ErrNoValidDate is returned when a closest-date search has no candidates.
var ErrNoValidDate = errors.New("no valid candidate dates")

const isoDate = "2006-01-02"

// ParseDate parses an ISO calendar date (YYYY-MM-DD). Timestamps with a
// trailing time component are accepted by truncating at the date prefix.
func ParseDate(value string) (time.Time, error) {
	trimmed := value
	if len(trimmed) > len(isoDate) {
		trimmed = trimmed[:len(isoDate)]
	}
	return time.Parse(isoDate, trimmed)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(isoDate)
}

// ClosestDate returns the candidate minimizing absolute calendar-day
// distance to target. A tie between an earlier and a later candidate is
// broken in favor of the earlier date. Candidate order does not matter.
func ClosestDate(target time.Time, candidates []time.Time) (time.Time, error) {
	if len(candidates) == 0 {
		return time.Time{}, ErrNoValidDate
	}

	best := candidates[0]
	bestDiff := absDays(target, best)
	for _, c := range candidates[1:] {
		diff := absDays(target, c)
		if diff < bestDiff || (diff == bestDiff && c.Before(best)) {
			best = c
			bestDiff = diff
		}
	}
	return best, nil
}

// absDays measures whole calendar days between two dates, sign-free.
func absDays(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
