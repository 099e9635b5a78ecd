package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wczubal1/GreenAgentWitty/internal/config"
	"github.com/wczubal1/GreenAgentWitty/internal/eval"
	"github.com/wczubal1/GreenAgentWitty/internal/metrics"
	"github.com/wczubal1/GreenAgentWitty/internal/persistence"
)

// fakeTransport answers from a canned function and records payloads.
type fakeTransport struct {
	mu       sync.Mutex
	payloads []eval.RequestPayload
	answer   func(payload eval.RequestPayload) (string, error)
}

func (f *fakeTransport) Ask(ctx context.Context, body []byte) (string, error) {
	var payload eval.RequestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	return f.answer(payload)
}

func passingMultiAnswer(payload eval.RequestPayload) (string, error) {
	type attempt struct {
		AttemptedDate string  `json:"attempted_date"`
		Quantity      float64 `json:"quantity"`
	}
	type result struct {
		Symbol     string    `json:"symbol"`
		ChosenDate string    `json:"chosen_date"`
		Quantity   float64   `json:"currentShortPositionQuantity"`
		Attempts   []attempt `json:"attempts"`
	}

	results := make([]result, 0, len(payload.Args.Symbols))
	best := ""
	bestValue := 0.0
	for i, symbol := range payload.Args.Symbols {
		value := float64(100 * (i + 1))
		results = append(results, result{
			Symbol:     symbol,
			ChosenDate: payload.RequestedSettlementDate,
			Quantity:   value,
			Attempts: []attempt{
				{payload.RequestedSettlementDate, value},
				{payload.RequestedSettlementDate, value},
				{payload.RequestedSettlementDate, value},
			},
		})
		if value > bestValue {
			best = symbol
			bestValue = value
		}
	}

	answer := map[string]interface{}{
		"dataset_name":  payload.DatasetName,
		"results":       results,
		"best_symbol":   best,
		"best_quantity": bestValue,
	}
	data, err := json.Marshal(answer)
	return string(data), err
}

func testRunnerConfig(symbols ...string) config.Config {
	cfg := config.Default()
	cfg.Assessment.Symbols = symbols
	cfg.Assessment.SettlementDate = "2025-06-13"
	cfg.Assessment.DatasetName = "consolidatedShortInterest"
	return cfg
}

func TestRun_AllPass(t *testing.T) {
	tr := &fakeTransport{answer: passingMultiAnswer}
	r := New(testRunnerConfig("AAPL", "MSFT", "GOOG"), tr, metrics.NewRegistry())

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "provided", result.DateReason)
	require.Len(t, result.Cases, 1)
	assert.True(t, result.Cases[0].Passed)
	assert.Equal(t, "case-1", result.Cases[0].CaseID)
	assert.True(t, result.Summary.OverallPass)
	assert.Equal(t, 1, result.Summary.Total)

	require.Len(t, tr.payloads, 1)
	assert.Equal(t, "max_short_interest", tr.payloads[0].Task)
	assert.Equal(t, "2025-06-13", tr.payloads[0].RequestedSettlementDate)
}

func TestRun_TransportFailureFailsCase(t *testing.T) {
	tr := &fakeTransport{answer: func(eval.RequestPayload) (string, error) {
		return "", fmt.Errorf("connection refused")
	}}
	r := New(testRunnerConfig("AAPL"), tr, metrics.NewRegistry())

	result, err := r.Run(context.Background())
	require.NoError(t, err, "a failed candidate call fails the case, not the run")

	require.Len(t, result.Cases, 1)
	assert.False(t, result.Cases[0].Passed)
	require.Len(t, result.Cases[0].FailureReasons, 1)
	assert.Contains(t, result.Cases[0].FailureReasons[0], string(eval.ReasonTimeout))
	assert.False(t, result.Summary.OverallPass)
}

func TestRun_MalformedAnswerFailsCase(t *testing.T) {
	tr := &fakeTransport{answer: func(eval.RequestPayload) (string, error) {
		return "sorry, no data available", nil
	}}
	r := New(testRunnerConfig("AAPL"), tr, metrics.NewRegistry())

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Cases, 1)
	assert.False(t, result.Cases[0].Passed)
	assert.Contains(t, result.Cases[0].FailureReasons[0], string(eval.ReasonMalformedResponse))
}

func TestRun_CasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cases:
  - id: si-1
    dataset_name_eval: consolidatedShortInterest
    symbols: [AAPL, MSFT]
    date: "2025-06-13"
  - id: bad-case
    question: "no dataset can be inferred from this"
    date: "2025-06-13"
`), 0644))

	cfg := config.Default()
	cfg.Assessment.CasesFile = path
	tr := &fakeTransport{answer: passingMultiAnswer}
	r := New(cfg, tr, metrics.NewRegistry())

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Cases, 2)
	assert.True(t, result.Cases[0].Passed)
	assert.False(t, result.Cases[1].Passed)
	assert.Contains(t, result.Cases[1].FailureReasons[0], string(eval.ReasonNormalization))
	assert.Equal(t, 1, result.Summary.Passed)
	assert.Equal(t, 2, result.Summary.Total)
	assert.False(t, result.Summary.OverallPass)
}

// memoryRepos capture persisted rows for assertions.
type memoryRuns struct {
	mu   sync.Mutex
	rows []persistence.Run
}

func (m *memoryRuns) Insert(ctx context.Context, run persistence.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, run)
	return nil
}

func (m *memoryRuns) Latest(ctx context.Context) (*persistence.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rows) == 0 {
		return nil, nil
	}
	return &m.rows[len(m.rows)-1], nil
}

type memoryOutcomes struct {
	mu   sync.Mutex
	rows []persistence.Outcome
}

func (m *memoryOutcomes) Insert(ctx context.Context, outcome persistence.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, outcome)
	return nil
}

func (m *memoryOutcomes) ListByRun(ctx context.Context, runID string) ([]persistence.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []persistence.Outcome
	for _, row := range m.rows {
		if row.RunID == runID {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestRun_Persistence(t *testing.T) {
	runs := &memoryRuns{}
	outcomes := &memoryOutcomes{}
	tr := &fakeTransport{answer: passingMultiAnswer}
	r := New(testRunnerConfig("AAPL", "MSFT"), tr, metrics.NewRegistry(),
		WithPersistence(runs, outcomes))

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	latest, err := runs.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, result.RunID, latest.ID)
	assert.True(t, latest.OverallPass)

	stored, err := outcomes.ListByRun(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "case-1", stored[0].CaseID)
	assert.True(t, stored[0].Passed)
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	tr := &fakeTransport{answer: passingMultiAnswer}
	r := New(testRunnerConfig("AAPL", "MSFT"), tr, metrics.NewRegistry())

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, WriteArtifacts(dir, result))

	data, err := os.ReadFile(filepath.Join(dir, "verdict.json"))
	require.NoError(t, err)
	var decoded RunResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.RunID, decoded.RunID)
	assert.True(t, decoded.Summary.OverallPass)

	md, err := os.ReadFile(filepath.Join(dir, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Assessment Report")
	assert.Contains(t, string(md), result.RunID)
	assert.Contains(t, string(md), "PASS")
}
