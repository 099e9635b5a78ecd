package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/wczubal1/GreenAgentWitty/internal/persistence"
)

// Schema for reference:
//
//	CREATE TABLE runs (
//	    id           TEXT PRIMARY KEY,
//	    started_at   TIMESTAMPTZ NOT NULL,
//	    finished_at  TIMESTAMPTZ NOT NULL,
//	    passed       INT NOT NULL,
//	    total        INT NOT NULL,
//	    overall_pass BOOLEAN NOT NULL
//	);
//
//	CREATE TABLE outcomes (
//	    id              BIGSERIAL PRIMARY KEY,
//	    run_id          TEXT NOT NULL REFERENCES runs(id),
//	    case_id         TEXT NOT NULL,
//	    dataset         TEXT NOT NULL,
//	    passed          BOOLEAN NOT NULL,
//	    failure_reasons TEXT[] NOT NULL DEFAULT '{}',
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
//	);

// Connect opens and pings a Postgres connection pool.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// runsRepo implements persistence.RunsRepo on PostgreSQL.
type runsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRunsRepo creates a PostgreSQL runs repository.
func NewRunsRepo(db *sqlx.DB, timeout time.Duration) persistence.RunsRepo {
	return &runsRepo{db: db, timeout: timeout}
}

func (r *runsRepo) Insert(ctx context.Context, run persistence.Run) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO runs (id, started_at, finished_at, passed, total, overall_pass)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query,
		run.ID, run.StartedAt, run.FinishedAt, run.Passed, run.Total, run.OverallPass); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (r *runsRepo) Latest(ctx context.Context) (*persistence.Run, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var run persistence.Run
	query := `
		SELECT id, started_at, finished_at, passed, total, overall_pass
		FROM runs
		ORDER BY finished_at DESC
		LIMIT 1`

	if err := r.db.GetContext(ctx, &run, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return &run, nil
}

// outcomesRepo implements persistence.OutcomesRepo on PostgreSQL.
type outcomesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewOutcomesRepo creates a PostgreSQL outcomes repository.
func NewOutcomesRepo(db *sqlx.DB, timeout time.Duration) persistence.OutcomesRepo {
	return &outcomesRepo{db: db, timeout: timeout}
}

func (r *outcomesRepo) Insert(ctx context.Context, outcome persistence.Outcome) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO outcomes (run_id, case_id, dataset, passed, failure_reasons)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query,
		outcome.RunID, outcome.CaseID, outcome.Dataset, outcome.Passed,
		pq.Array(outcome.FailureReasons)); err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}
	return nil
}

func (r *outcomesRepo) ListByRun(ctx context.Context, runID string) ([]persistence.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, run_id, case_id, dataset, passed, failure_reasons, created_at
		FROM outcomes
		WHERE run_id = $1
		ORDER BY id`

	rows, err := r.db.QueryxContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []persistence.Outcome
	for rows.Next() {
		var o persistence.Outcome
		var reasons pq.StringArray
		if err := rows.Scan(&o.ID, &o.RunID, &o.CaseID, &o.Dataset, &o.Passed, &reasons, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.FailureReasons = []string(reasons)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
