package eval

import (
	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

// RequestArgs carries the query parameters the candidate should run with.
type RequestArgs struct {
	Symbols        []string `json:"symbols,omitempty"`
	Symbol         string   `json:"symbol,omitempty"`
	SettlementDate string   `json:"settlement_date"`
}

// RequestPayload is the task description handed to the transport layer.
// It tells the candidate which dataset to query, the exact response shape
// expected back, and how many date attempts it must make per symbol.
type RequestPayload struct {
	Task                    string            `json:"task"`
	Args                    RequestArgs       `json:"args"`
	RequestedSettlementDate string            `json:"requested_settlement_date"`
	DatasetGroup            string            `json:"dataset_group"`
	DatasetName             string            `json:"dataset_name"`
	ExpectedResponse        map[string]string `json:"expected_response"`
	MinAttempts             int               `json:"min_attempts"`
	Notes                   string            `json:"notes"`
	Question                string            `json:"question,omitempty"`
	MaturityBucket          string            `json:"yearsToMaturity,omitempty"`
	Benchmark               string            `json:"benchmark,omitempty"`
	ComparePreviousYear     bool              `json:"compare_previous_year,omitempty"`
	FinraClientID           string            `json:"finra_client_id,omitempty"`
	FinraClientSecret       string            `json:"finra_client_secret,omitempty"`
	TimeoutSeconds          int               `json:"timeout,omitempty"`
}

// Credentials are FINRA API credentials forwarded to the candidate.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// BuildRequest turns a resolved case into the payload sent to the
// candidate. Pure transformation; the CaseConfig contract guarantees the
// inputs are well formed.
func BuildRequest(cfg CaseConfig, creds Credentials, timeoutSeconds int) RequestPayload {
	requested := domain.FormatDate(cfg.RequestedDate)

	payload := RequestPayload{
		Args:                    RequestArgs{SettlementDate: requested},
		RequestedSettlementDate: requested,
		DatasetGroup:            cfg.Family.DatasetGroup(),
		DatasetName:             cfg.Family.DatasetName(),
		MinAttempts:             cfg.MinAttempts,
		Question:                cfg.Question,
		FinraClientID:           creds.ClientID,
		FinraClientSecret:       creds.ClientSecret,
		TimeoutSeconds:          timeoutSeconds,
	}

	switch cfg.Family {
	case domain.FamilyShortInterest, domain.FamilyWeeklySummary:
		metric := cfg.Family.MetricField()
		dateField := cfg.Family.DateField()
		if cfg.MultiSymbol() {
			payload.Task = "max_short_interest"
			payload.Args.Symbols = cfg.Symbols
			payload.ExpectedResponse = map[string]string{
				"dataset_name":  "string",
				"best_symbol":   "string",
				"best_quantity": "number (" + metric + ")",
				"results":       "array of {symbol, chosen_date, " + metric + ", attempts}",
			}
			payload.Notes = "Query each symbol. Try multiple dates around the requested " +
				"date, record every attempt with attempted_date and whether a record was found, " +
				"report the closest available " + dateField + " as chosen_date. Return JSON only."
		} else {
			payload.Task = "fetch_short_interest"
			payload.Args.Symbol = cfg.Symbols[0]
			payload.ExpectedResponse = map[string]string{
				"dataset_name": "string",
				"symbol":       "string",
				"chosen_date":  "YYYY-MM-DD",
				metric:         "number",
				"attempts":     "array of {attempted_date, valid}",
			}
			payload.Notes = "Query the symbol, trying multiple dates to find the closest " +
				"available " + dateField + "; include every attempt. Return JSON only."
		}
	case domain.FamilyTreasuryAggregate:
		payload.Task = "fetch_treasury_aggregates"
		if cfg.Bucket != nil {
			payload.MaturityBucket = cfg.Bucket.String()
		}
		payload.Benchmark = cfg.Benchmark
		payload.ComparePreviousYear = cfg.RequiresDelta
		payload.ExpectedResponse = map[string]string{
			"dataset_name":         "string",
			"trade_date":           "YYYY-MM-DD",
			"yearsToMaturity":      "string (maturity range)",
			"benchmark":            "On-the-run | Off-the-run",
			"dealerCustomerVolume": "number",
			"attempts":             "array of {attempted_date, valid}",
		}
		if cfg.RequiresDelta {
			payload.ExpectedResponse["previous_trade_date"] = "YYYY-MM-DD (closest to one year before)"
			payload.ExpectedResponse["previous_dealerCustomerVolume"] = "number"
		}
		payload.Notes = "Query treasury daily aggregates for the requested trade date, " +
			"matching the maturity range and benchmark. Try nearby dates when the market was " +
			"closed and record every attempt. Return JSON only."
	}

	return payload
}
