package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/fuelcycle/internal/sim"
)

const attemptsSchema = `CREATE TABLE IF NOT EXISTS attempts (
	run_id        TEXT    NOT NULL,
	scenario      TEXT    NOT NULL,
	number        INTEGER NOT NULL,
	tbr           REAL,
	i_startup     REAL    NOT NULL,
	doubling_time REAL,
	min_margin    REAL    NOT NULL,
	steps         INTEGER NOT NULL,
	outcome       TEXT    NOT NULL,
	recorded_at   INTEGER NOT NULL,
	PRIMARY KEY (run_id, number)
)`

// Archive keeps every calibration attempt of every run in SQLite.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates the attempts database at path.
func OpenArchive(path string) (*Archive, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(attemptsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create attempts table: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Record stores the attempts of one run in a single transaction.
func (a *Archive) Record(ctx context.Context, runID, scenario string, attempts []sim.Attempt) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO attempts (
		   run_id, scenario, number, tbr, i_startup, doubling_time,
		   min_margin, steps, outcome, recorded_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().UnixMilli()
	for _, at := range attempts {
		if _, err := stmt.ExecContext(ctx,
			runID, scenario, at.Number,
			nullable(at.TBR), at.IStartup, nullable(at.DoublingTime),
			at.MinMargin, at.Steps, at.Outcome.String(), now,
		); err != nil {
			return fmt.Errorf("insert attempt %d: %w", at.Number, err)
		}
	}
	return tx.Commit()
}

// ArchivedAttempt is one row of the attempts table.
type ArchivedAttempt struct {
	RunID    string
	Scenario string
	sim.Attempt
	OutcomeName string
}

// Attempts returns the attempts of a run ordered by number.
func (a *Archive) Attempts(ctx context.Context, runID string) ([]ArchivedAttempt, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT
		   run_id, scenario, number, tbr, i_startup, doubling_time,
		   min_margin, steps, outcome
		 FROM attempts WHERE run_id = ? ORDER BY number`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedAttempt
	for rows.Next() {
		var (
			r       ArchivedAttempt
			tbr, dt sql.NullFloat64
		)
		if err := rows.Scan(&r.RunID, &r.Scenario, &r.Number, &tbr, &r.IStartup, &dt,
			&r.MinMargin, &r.Steps, &r.OutcomeName); err != nil {
			return nil, err
		}
		r.TBR = fromNullable(tbr)
		r.DoublingTime = fromNullable(dt)
		r.Outcome = parseOutcome(r.OutcomeName)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs counts the archived attempts of every run.
func (a *Archive) Runs(ctx context.Context) (map[string]int, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT run_id, COUNT(*) FROM attempts GROUP BY run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func parseOutcome(name string) sim.Outcome {
	for _, o := range []sim.Outcome{sim.Accepted, sim.ReserveDeficit, sim.SlowDoubling} {
		if o.String() == name {
			return o
		}
	}
	return sim.Outcome(-1)
}
