package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

func TestNormalize_MultiSymbolShortInterest(t *testing.T) {
	cfg, err := Normalize(RawCase{
		ID:          "case-1",
		Question:    "Which symbol had the highest short interest?",
		DatasetName: "consolidatedShortInterest",
		Symbols:     []string{"aapl", "MSFT", "aapl ", "goog"},
		Date:        "2025-06-13",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.FamilyShortInterest, cfg.Family)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, cfg.Symbols)
	assert.True(t, cfg.MultiSymbol())
	assert.Equal(t, "2025-06-13", domain.FormatDate(cfg.RequestedDate))
	assert.Equal(t, DefaultMinAttempts, cfg.MinAttempts)
}

func TestNormalize_SymbolsInputNotMutated(t *testing.T) {
	backing := []string{"aapl", "msft", "goog"}
	raw := RawCase{
		DatasetName: "consolidatedShortInterest",
		Symbols:     backing[:2],
		Symbol:      "tsla",
		Date:        "2025-06-13",
	}

	cfg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, cfg.Symbols)
	assert.Equal(t, []string{"aapl", "msft", "goog"}, backing)
}

func TestNormalize_FamilyFromGroup(t *testing.T) {
	cfg, err := Normalize(RawCase{
		DatasetGroup: "fixedIncomeMarket",
		Date:         "2025-06-13",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FamilyTreasuryAggregate, cfg.Family)
	assert.Empty(t, cfg.Symbols)
}

func TestNormalize_FamilyFromQuestion(t *testing.T) {
	cfg, err := Normalize(RawCase{
		Question: "What was the total weekly share quantity for TSLA?",
		Symbol:   "tsla",
		Date:     "2025-06-09",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FamilyWeeklySummary, cfg.Family)
	assert.Equal(t, []string{"TSLA"}, cfg.Symbols)
	assert.False(t, cfg.MultiSymbol())
}

func TestNormalize_SymbolDefault(t *testing.T) {
	cfg, err := Normalize(RawCase{
		Question: "How did these perform?",
		Symbols:  []string{"AAPL"},
		Date:     "2025-06-13",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FamilyShortInterest, cfg.Family)
}

func TestNormalize_TreasuryBucketAndBenchmark(t *testing.T) {
	cfg, err := Normalize(RawCase{
		DatasetName:    "treasuryDailyAggregates",
		Date:           "2025-06-13",
		MaturityBucket: "> 5 years and <= 7 years",
		Benchmark:      "on the run",
		RequiresDelta:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, cfg.Bucket)
	assert.Equal(t, domain.Bucket5YTo7Y, *cfg.Bucket)
	assert.Equal(t, "On-the-run", cfg.Benchmark)
	assert.True(t, cfg.RequiresDelta)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  RawCase
	}{
		{"undeterminable family", RawCase{Question: "hello", Date: "2025-06-13"}},
		{"missing date", RawCase{DatasetName: "weeklySummary", Symbol: "AAPL"}},
		{"bad date", RawCase{DatasetName: "weeklySummary", Symbol: "AAPL", Date: "06/13/2025"}},
		{"equity case without symbols", RawCase{DatasetName: "weeklySummary", Date: "2025-06-13"}},
		{"ambiguous bucket", RawCase{DatasetName: "treasuryDailyAggregates", Date: "2025-06-13", MaturityBucket: "up to 7 years"}},
		{"unknown benchmark", RawCase{DatasetName: "treasuryDailyAggregates", Date: "2025-06-13", Benchmark: "sideways"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			assert.ErrorIs(t, err, ErrNormalization)
		})
	}
}

func TestNormalizeBenchmark(t *testing.T) {
	for _, in := range []string{"on the run", "On-The-Run", "OTR"} {
		got, err := NormalizeBenchmark(in)
		require.NoError(t, err)
		assert.Equal(t, "On-the-run", got)
	}
	got, err := NormalizeBenchmark("off the run")
	require.NoError(t, err)
	assert.Equal(t, "Off-the-run", got)

	got, err = NormalizeBenchmark("")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
