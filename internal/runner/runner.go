package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wczubal1/GreenAgentWitty/internal/cache"
	"github.com/wczubal1/GreenAgentWitty/internal/config"
	"github.com/wczubal1/GreenAgentWitty/internal/eval"
	"github.com/wczubal1/GreenAgentWitty/internal/metrics"
	"github.com/wczubal1/GreenAgentWitty/internal/persistence"
)

// Transport asks the candidate one question and returns its raw answer.
// Satisfied by transport.Client; tests substitute a fake.
type Transport interface {
	Ask(ctx context.Context, payload []byte) (string, error)
}

// CaseVerdict is one case's slice of the run verdict document.
type CaseVerdict struct {
	CaseID         string   `json:"case_id"`
	Dataset        string   `json:"dataset,omitempty"`
	Passed         bool     `json:"passed"`
	FailureReasons []string `json:"failure_reasons"`
}

// RunResult is the full verdict document for one assessment run.
type RunResult struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	DateReason string          `json:"requested_date_reason,omitempty"`
	Cases      []CaseVerdict   `json:"cases"`
	Summary    eval.RunSummary `json:"summary"`
}

// Runner drives one assessment run end to end: case synthesis,
// candidate calls, grading, aggregation, persistence and artifacts.
type Runner struct {
	cfg       config.Config
	transport Transport
	answers   cache.AnswerCache
	metrics   *metrics.Registry
	runs      persistence.RunsRepo
	outcomes  persistence.OutcomesRepo
}

// Option configures optional collaborators.
type Option func(*Runner)

// WithAnswerCache plugs in a non-default answer cache.
func WithAnswerCache(c cache.AnswerCache) Option {
	return func(r *Runner) { r.answers = c }
}

// WithPersistence stores runs and outcomes as they complete.
func WithPersistence(runs persistence.RunsRepo, outcomes persistence.OutcomesRepo) Option {
	return func(r *Runner) { r.runs = runs; r.outcomes = outcomes }
}

// New builds a runner.
func New(cfg config.Config, tr Transport, reg *metrics.Registry, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		transport: tr,
		answers:   cache.Noop{},
		metrics:   reg,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one assessment. Cases are graded independently on a
// bounded worker pool; cancelling the context stops dispatch and the
// summary reflects only completed cases.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	startedAt := time.Now().UTC()
	runID := uuid.NewString()
	r.metrics.ActiveRuns.Inc()
	defer r.metrics.ActiveRuns.Dec()

	rawCases, dateReason, err := r.prepareCases()
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("run_id", runID).
		Int("cases", len(rawCases)).
		Str("purple_url", r.cfg.Purple.URL).
		Msg("assessment run starting")

	workers := r.cfg.Assessment.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(rawCases) {
		workers = len(rawCases)
	}

	type indexed struct {
		idx     int
		verdict CaseVerdict
		outcome eval.EvaluationOutcome
		dataset string
	}

	jobs := make(chan int)
	resultsCh := make(chan indexed, len(rawCases))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcome, dataset := r.gradeCase(ctx, rawCases[idx])
				resultsCh <- indexed{
					idx: idx,
					verdict: CaseVerdict{
						CaseID:         outcome.CaseID,
						Dataset:        dataset,
						Passed:         outcome.Passed,
						FailureReasons: eval.ReasonStrings(outcome.FailureReasons),
					},
					outcome: outcome,
					dataset: dataset,
				}
			}
		}()
	}

dispatch:
	for idx := range rawCases {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(resultsCh)

	aggregator := eval.NewAggregator()
	verdicts := make([]CaseVerdict, len(rawCases))
	completed := make([]bool, len(rawCases))
	for res := range resultsCh {
		verdicts[res.idx] = res.verdict
		completed[res.idx] = true
		aggregator.Add(res.outcome)
		r.recordCase(ctx, runID, res.dataset, res.outcome)
	}

	// Drop slots for cases cancellation kept from running at all.
	cases := make([]CaseVerdict, 0, len(verdicts))
	for idx, done := range completed {
		if done {
			cases = append(cases, verdicts[idx])
		}
	}

	result := &RunResult{
		RunID:      runID,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		DateReason: dateReason,
		Cases:      cases,
		Summary:    aggregator.Summary(),
	}

	r.persistRun(ctx, result)

	log.Info().
		Str("run_id", runID).
		Int("passed", result.Summary.Passed).
		Int("total", result.Summary.Total).
		Bool("overall_pass", result.Summary.OverallPass).
		Msg("assessment run finished")
	return result, nil
}

// prepareCases loads or synthesizes the raw cases and stamps the
// run-level requested date onto cases that do not carry their own.
func (r *Runner) prepareCases() ([]eval.RawCase, string, error) {
	assessment := r.cfg.Assessment

	var rawCases []eval.RawCase
	var err error
	if assessment.CasesFile != "" {
		rawCases, err = LoadCases(assessment.CasesFile)
	} else {
		rawCases, err = SynthesizeCases(assessment)
	}
	if err != nil {
		return nil, "", err
	}

	date, reason, err := r.runDate(rawCases)
	if err != nil {
		return nil, "", err
	}

	for i := range rawCases {
		if rawCases[i].Date == "" {
			rawCases[i].Date = date
		}
		if rawCases[i].ID == "" {
			rawCases[i].ID = fmt.Sprintf("case-%d", i+1)
		}
		if rawCases[i].MinAttempts == 0 {
			rawCases[i].MinAttempts = assessment.MinAttempts
		}
	}
	return rawCases, reason, nil
}

// runDate resolves the run-level requested date lazily: only needed when
// at least one case has no date of its own.
func (r *Runner) runDate(rawCases []eval.RawCase) (string, string, error) {
	needed := false
	for _, raw := range rawCases {
		if raw.Date == "" {
			needed = true
			break
		}
	}
	if !needed {
		return "", "", nil
	}
	return PickRequestedDate(
		r.cfg.Assessment.SettlementDate,
		r.cfg.Assessment.TargetMonth,
		r.cfg.Assessment.RandomSeed,
	)
}

// gradeCase runs the full pipeline for one case. Every failure mode
// collapses into a failed outcome; nothing here aborts the run.
func (r *Runner) gradeCase(ctx context.Context, raw eval.RawCase) (eval.EvaluationOutcome, string) {
	start := time.Now()
	defer func() {
		r.metrics.CaseDuration.Observe(time.Since(start).Seconds())
	}()

	cfg, err := eval.Normalize(raw)
	if err != nil {
		return eval.NewOutcome(raw.ID, []eval.Reason{
			eval.Reasonf(eval.ReasonNormalization, "%v", err),
		}), ""
	}

	clientID, clientSecret := config.FinraCredentials()
	payload := eval.BuildRequest(cfg,
		eval.Credentials{ClientID: clientID, ClientSecret: clientSecret},
		r.cfg.Purple.TimeoutSeconds)
	body, err := json.Marshal(payload)
	if err != nil {
		// CaseConfig is produced by Normalize; this indicates a defect.
		return eval.NewOutcome(cfg.ID, []eval.Reason{
			eval.Reasonf(eval.ReasonNormalization, "failed to encode request: %v", err),
		}), cfg.Family.String()
	}

	answer, err := r.askCandidate(ctx, body)
	if err != nil {
		r.metrics.TransportFailures.Inc()
		return eval.NewOutcome(cfg.ID, []eval.Reason{
			eval.Reasonf(eval.ReasonTimeout, "candidate call failed: %v", err),
		}), cfg.Family.String()
	}

	env, err := eval.ParseEnvelope(answer)
	if err != nil {
		return eval.NewOutcome(cfg.ID, []eval.Reason{
			eval.Reasonf(eval.ReasonMalformedResponse, "%v", err),
		}), cfg.Family.String()
	}

	return eval.Evaluate(cfg, env), cfg.Family.String()
}

// askCandidate consults the answer cache before going to the transport.
func (r *Runner) askCandidate(ctx context.Context, body []byte) (string, error) {
	key := cache.Key(body)
	if answer, ok := r.answers.Get(ctx, key); ok {
		log.Debug().Str("key", key).Msg("answer cache hit")
		return answer, nil
	}
	answer, err := r.transport.Ask(ctx, body)
	if err != nil {
		return "", err
	}
	r.answers.Set(ctx, key, answer)
	return answer, nil
}

// recordCase updates metrics and persists one outcome.
func (r *Runner) recordCase(ctx context.Context, runID, dataset string, outcome eval.EvaluationOutcome) {
	result := "pass"
	if !outcome.Passed {
		result = "fail"
	}
	r.metrics.CasesTotal.WithLabelValues(dataset, result).Inc()
	for _, reason := range outcome.FailureReasons {
		r.metrics.FailureReasons.WithLabelValues(string(reason.Code)).Inc()
	}

	if r.outcomes == nil {
		return
	}
	err := r.outcomes.Insert(ctx, persistence.Outcome{
		RunID:          runID,
		CaseID:         outcome.CaseID,
		Dataset:        dataset,
		Passed:         outcome.Passed,
		FailureReasons: eval.ReasonStrings(outcome.FailureReasons),
	})
	if err != nil {
		log.Warn().Err(err).Str("case_id", outcome.CaseID).Msg("failed to persist outcome")
	}
}

func (r *Runner) persistRun(ctx context.Context, result *RunResult) {
	if r.runs == nil {
		return
	}
	err := r.runs.Insert(ctx, persistence.Run{
		ID:          result.RunID,
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Passed:      result.Summary.Passed,
		Total:       result.Summary.Total,
		OverallPass: result.Summary.OverallPass,
	})
	if err != nil {
		log.Warn().Err(err).Str("run_id", result.RunID).Msg("failed to persist run")
	}
}
