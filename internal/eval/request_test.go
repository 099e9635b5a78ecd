package eval

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

func TestBuildRequest_MultiSymbol(t *testing.T) {
	cfg := multiCase(t, "AAPL", "MSFT", "GOOG")
	payload := BuildRequest(cfg, Credentials{ClientID: "id", ClientSecret: "secret"}, 90)

	assert.Equal(t, "max_short_interest", payload.Task)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, payload.Args.Symbols)
	assert.Equal(t, "2025-06-13", payload.Args.SettlementDate)
	assert.Equal(t, "otcMarket", payload.DatasetGroup)
	assert.Equal(t, "consolidatedShortInterest", payload.DatasetName)
	assert.Equal(t, 3, payload.MinAttempts)
	assert.Equal(t, "id", payload.FinraClientID)
	assert.Equal(t, 90, payload.TimeoutSeconds)
	assert.Contains(t, payload.ExpectedResponse, "best_symbol")
	assert.Contains(t, payload.ExpectedResponse, "best_quantity")
}

func TestBuildRequest_SingleSymbol(t *testing.T) {
	cfg := singleCase(t, domain.FamilyWeeklySummary, "TSLA")
	payload := BuildRequest(cfg, Credentials{}, 0)

	assert.Equal(t, "fetch_short_interest", payload.Task)
	assert.Equal(t, "TSLA", payload.Args.Symbol)
	assert.Empty(t, payload.Args.Symbols)
	assert.Equal(t, "weeklySummary", payload.DatasetName)
	assert.Contains(t, payload.ExpectedResponse, "totalWeeklyShareQuantity")
}

func TestBuildRequest_Treasury(t *testing.T) {
	cfg := treasuryCase(t, domain.Bucket5YTo7Y, true)
	payload := BuildRequest(cfg, Credentials{}, 0)

	assert.Equal(t, "fetch_treasury_aggregates", payload.Task)
	assert.Equal(t, "fixedIncomeMarket", payload.DatasetGroup)
	assert.Equal(t, "> 5 years and <= 7 years", payload.MaturityBucket)
	assert.Equal(t, "On-the-run", payload.Benchmark)
	assert.True(t, payload.ComparePreviousYear)
	assert.Contains(t, payload.ExpectedResponse, "previous_trade_date")
}

func TestBuildRequest_CredentialsOmittedFromJSON(t *testing.T) {
	cfg := singleCase(t, domain.FamilyShortInterest, "AAPL")
	payload := BuildRequest(cfg, Credentials{}, 0)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "finra_client_id")
	assert.NotContains(t, string(data), "finra_client_secret")
}
