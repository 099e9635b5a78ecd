package eval

import "fmt"

// ReasonCode names one class of case failure. Codes are stable identifiers
// surfaced in verdict documents and metrics labels.
type ReasonCode string

const (
	ReasonNormalization         ReasonCode = "NormalizationError"
	ReasonMalformedResponse     ReasonCode = "MalformedResponseError"
	ReasonDatasetMismatch       ReasonCode = "DatasetMismatchError"
	ReasonMissingSymbol         ReasonCode = "MissingSymbolError"
	ReasonInsufficientAttempts  ReasonCode = "InsufficientAttemptsError"
	ReasonNonClosestDate        ReasonCode = "NonClosestDateError"
	ReasonBestValueMismatch     ReasonCode = "BestValueMismatchError"
	ReasonMissingMetric         ReasonCode = "MissingMetricError"
	ReasonTreasuryRecordMissing ReasonCode = "TreasuryRecordNotFoundError"
	ReasonDeltaDateMismatch     ReasonCode = "DeltaDateMismatchError"
	ReasonUnrecognizedBucket    ReasonCode = "UnrecognizedBucketError"
	ReasonNoValidDate           ReasonCode = "NoValidDateError"
	ReasonTimeout               ReasonCode = "TimeoutError"
)

// Reason is one human-readable failure attached to a case outcome.
type Reason struct {
	Code    ReasonCode `json:"code"`
	Message string     `json:"message"`
}

func (r Reason) String() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Reasonf builds a Reason with a formatted message.
func Reasonf(code ReasonCode, format string, args ...interface{}) Reason {
	return Reason{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ReasonStrings renders a reason list for verdict output.
func ReasonStrings(reasons []Reason) []string {
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		out = append(out, r.String())
	}
	return out
}
