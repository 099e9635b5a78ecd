package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnrecognizedBucket is returned when a maturity phrase cannot be mapped
// onto one of the canonical buckets. There is no fuzzy rounding: bounds
// either line up with a bucket or the parse fails.
var ErrUnrecognizedBucket = errors.New("unrecognized maturity bucket")

// MaturityBucket is one of the five canonical treasury maturity ranges,
// expressed as a (lower, upper] pair of years. The shortest bucket has no
// lower bound.
type MaturityBucket int

const (
	BucketUpTo2Y MaturityBucket = iota
	Bucket2YTo3Y
	Bucket3YTo5Y
	Bucket5YTo7Y
	Bucket7YTo10Y
)

var bucketBounds = map[MaturityBucket][2]float64{
	BucketUpTo2Y:  {0, 2},
	Bucket2YTo3Y:  {2, 3},
	Bucket3YTo5Y:  {3, 5},
	Bucket5YTo7Y:  {5, 7},
	Bucket7YTo10Y: {7, 10},
}

func (b MaturityBucket) String() string {
	switch b {
	case BucketUpTo2Y:
		return "<= 2 years"
	case Bucket2YTo3Y:
		return "> 2 years and <= 3 years"
	case Bucket3YTo5Y:
		return "> 3 years and <= 5 years"
	case Bucket5YTo7Y:
		return "> 5 years and <= 7 years"
	case Bucket7YTo10Y:
		return "> 7 years and <= 10 years"
	default:
		return "unknown"
	}
}

// Bound phrases are ordered longest-alternative-first so that
// "less than or equal to" is not swallowed by a shorter prefix.
var (
	upperBoundRe = regexp.MustCompile(`(?:<=|less than or equal to|up to|at most|no more than|not exceeding)\s*(\d+(?:\.\d+)?)`)
	lowerBoundRe = regexp.MustCompile(`(?:>|greater than|more than|over|above|exceeding)\s*(\d+(?:\.\d+)?)`)
)

// ParseMaturityBucket maps a free-text maturity phrase ("<= 2 years",
// "over 5 and up to 7 years") onto a canonical bucket.
//
// An upper bound alone only resolves the shortest bucket: every other
// boundary year belongs to two buckets (as upper of one and lower of the
// next), so phrases such as "up to 7 years" are ambiguous and must carry
// explicit lower-bound text.
func ParseMaturityBucket(text string) (MaturityBucket, error) {
	normalized := normalizeMaturityText(text)
	if normalized == "" {
		return 0, fmt.Errorf("%w: empty phrase", ErrUnrecognizedBucket)
	}

	lower, hasLower := extractBound(lowerBoundRe, normalized)
	upper, hasUpper := extractBound(upperBoundRe, stripLowerClause(normalized))

	switch {
	case hasLower && hasUpper:
		for bucket, bounds := range bucketBounds {
			if bucket != BucketUpTo2Y && bounds[0] == lower && bounds[1] == upper {
				return bucket, nil
			}
		}
		return 0, fmt.Errorf("%w: bounds (%g, %g] match no bucket", ErrUnrecognizedBucket, lower, upper)
	case hasUpper:
		if upper == 2 {
			return BucketUpTo2Y, nil
		}
		return 0, fmt.Errorf("%w: upper bound %g alone is ambiguous", ErrUnrecognizedBucket, upper)
	case hasLower:
		return 0, fmt.Errorf("%w: lower bound %g without an upper bound", ErrUnrecognizedBucket, lower)
	default:
		return 0, fmt.Errorf("%w: no bound pattern in %q", ErrUnrecognizedBucket, strings.TrimSpace(text))
	}
}

func normalizeMaturityText(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, "≤", "<=")
	s = strings.ReplaceAll(s, "≥", ">=")
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// stripLowerClause removes strict lower-bound markers so that the upper
// regexp cannot latch onto the number of a "> 5" clause via "up to".
func stripLowerClause(s string) string {
	return lowerBoundRe.ReplaceAllString(s, "")
}

func extractBound(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
