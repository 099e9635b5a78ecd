package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

func singleCase(t *testing.T, family domain.DatasetFamily, symbol string) CaseConfig {
	t.Helper()
	return CaseConfig{
		ID:            "single-1",
		Family:        family,
		Symbols:       []string{symbol},
		RequestedDate: evalDate(t, "2025-06-13"),
		MinAttempts:   3,
	}
}

const passingSingleEnvelope = `{
	"dataset_name": "weeklySummary",
	"symbol": "TSLA",
	"chosen_date": "2025-06-09",
	"totalWeeklyShareQuantity": 120000,
	"attempts": [
		{"attempted_date": "2025-06-02", "quantity": 110000},
		{"attempted_date": "2025-06-09", "quantity": 120000},
		{"attempted_date": "2025-06-16", "quantity": 125000}
	],
	"record": {
		"issueSymbolIdentifier": "TSLA",
		"weekStartDate": "2025-06-09",
		"totalWeeklyShareQuantity": 120000
	}
}`

func TestExtractSingle_Pass(t *testing.T) {
	cfg := singleCase(t, domain.FamilyWeeklySummary, "TSLA")
	// 2025-06-09 is one day from the request, closer than 06-02 or 06-16.
	cfg.RequestedDate = evalDate(t, "2025-06-10")

	reasons := extractSingle(cfg, parseEnv(t, passingSingleEnvelope))
	assert.Empty(t, reasons)
}

func TestExtractSingle_MetricFromRecordOnly(t *testing.T) {
	cfg := singleCase(t, domain.FamilyWeeklySummary, "TSLA")
	cfg.RequestedDate = evalDate(t, "2025-06-10")
	env := parseEnv(t, passingSingleEnvelope)
	delete(env, "totalWeeklyShareQuantity")

	reasons := extractSingle(cfg, env)
	assert.Empty(t, reasons)
}

func TestExtractSingle_MissingMetric(t *testing.T) {
	cfg := singleCase(t, domain.FamilyWeeklySummary, "TSLA")
	cfg.RequestedDate = evalDate(t, "2025-06-10")
	env := parseEnv(t, passingSingleEnvelope)
	delete(env, "totalWeeklyShareQuantity")
	record, _ := fieldMap(env, "record")
	delete(record, "totalWeeklyShareQuantity")

	reasons := extractSingle(cfg, env)
	require.Len(t, reasons, 1)
	assert.Equal(t, ReasonMissingMetric, reasons[0].Code)
	assert.Contains(t, reasons[0].Message, "totalWeeklyShareQuantity")
}

func TestExtractSingle_RecordSymbolMismatch(t *testing.T) {
	cfg := singleCase(t, domain.FamilyWeeklySummary, "TSLA")
	cfg.RequestedDate = evalDate(t, "2025-06-10")
	env := parseEnv(t, passingSingleEnvelope)
	record, _ := fieldMap(env, "record")
	record["issueSymbolIdentifier"] = "AAPL"

	reasons := extractSingle(cfg, env)
	require.Len(t, reasons, 1)
	assert.Equal(t, ReasonMissingSymbol, reasons[0].Code)
}

func TestExtractSingle_RecordDateDisagrees(t *testing.T) {
	cfg := singleCase(t, domain.FamilyWeeklySummary, "TSLA")
	cfg.RequestedDate = evalDate(t, "2025-06-10")
	env := parseEnv(t, passingSingleEnvelope)
	env["chosen_date"] = "2025-06-09"
	record, _ := fieldMap(env, "record")
	record["weekStartDate"] = "2025-06-02"

	reasons := extractSingle(cfg, env)
	require.NotEmpty(t, reasons)
	assert.Contains(t, reasonCodes(reasons), ReasonNonClosestDate)
}

func TestExtractSingle_NoValidDates(t *testing.T) {
	cfg := singleCase(t, domain.FamilyShortInterest, "AAPL")
	env := parseEnv(t, `{
		"symbol": "AAPL",
		"currentShortPositionQuantity": 500,
		"attempts": [
			{"attempted_date": "2025-06-10", "valid": false},
			{"attempted_date": "2025-06-11", "valid": false},
			{"attempted_date": "2025-06-12", "valid": false}
		]
	}`)

	reasons := extractSingle(cfg, env)
	assert.Contains(t, reasonCodes(reasons), ReasonNoValidDate)
}

func TestExtractSingle_NoAttempts(t *testing.T) {
	cfg := singleCase(t, domain.FamilyShortInterest, "AAPL")
	env := parseEnv(t, `{"symbol": "AAPL", "currentShortPositionQuantity": 500}`)

	reasons := extractSingle(cfg, env)
	codes := reasonCodes(reasons)
	assert.Contains(t, codes, ReasonInsufficientAttempts)
	assert.Contains(t, codes, ReasonNoValidDate)
}
