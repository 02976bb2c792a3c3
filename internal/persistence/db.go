// Package persistence provides SQLite-based storage for simulation runs:
// one row per run, its daily summaries, and per-round summaries for the
// days of interest.
package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/config"
	"github.com/talgya/slot-exchange/internal/stats"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		policy TEXT NOT NULL,
		population INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		days_completed INTEGER NOT NULL DEFAULT 0,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS day_summaries (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		overall REAL NOT NULL,
		random_baseline REAL NOT NULL,
		optimum_baseline REAL NOT NULL,
		rounds INTEGER NOT NULL,
		proposals INTEGER NOT NULL,
		accepted INTEGER NOT NULL,
		favours INTEGER NOT NULL,
		settled INTEGER NOT NULL,
		dropped INTEGER NOT NULL,
		by_strategy_json TEXT NOT NULL,
		counters_json TEXT NOT NULL,
		PRIMARY KEY (run_id, day)
	);

	CREATE TABLE IF NOT EXISTS round_summaries (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		round INTEGER NOT NULL,
		overall REAL NOT NULL,
		settled INTEGER NOT NULL,
		mean_json TEXT NOT NULL,
		count_json TEXT NOT NULL,
		tally_json TEXT NOT NULL,
		PRIMARY KEY (run_id, day, round)
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one stored simulation run.
type Run struct {
	ID            string         `db:"id"`
	Seed          int64          `db:"seed"`
	Policy        string         `db:"policy"`
	Population    int            `db:"population"`
	StartedAt     string         `db:"started_at"`
	FinishedAt    sql.NullString `db:"finished_at"`
	DaysCompleted int            `db:"days_completed"`
	ConfigYAML    string         `db:"config_yaml"`
}

// Finished reports whether the run ended cleanly.
func (r Run) Finished() bool {
	return r.FinishedAt.Valid
}

// RunRecorder stores the records of one run. It satisfies the engine's
// Recorder interface.
type RunRecorder struct {
	db    *DB
	RunID string
}

// BeginRun registers a new run for cfg and returns its recorder.
func (db *DB) BeginRun(cfg config.Config) (*RunRecorder, error) {
	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	id := uuid.NewString()
	_, err = db.conn.Exec(`INSERT INTO runs
		(id, seed, policy, population, started_at, config_yaml)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, cfg.Seed, cfg.LearningPolicy, cfg.Population, now(), string(cfgYAML),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	if err := db.SaveMeta("latest_run", id); err != nil {
		return nil, err
	}

	slog.Info("run registered", "run", id, "seed", cfg.Seed)
	return &RunRecorder{db: db, RunID: id}, nil
}

// RecordDay stores a daily summary and advances the run's day count.
func (r *RunRecorder) RecordDay(d stats.DaySummary) error {
	byStrategy, err := json.Marshal(d.ByStrategy)
	if err != nil {
		return err
	}
	counters, err := json.Marshal(d.Counters)
	if err != nil {
		return err
	}

	tx, err := r.db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT OR REPLACE INTO day_summaries
		(run_id, day, overall, random_baseline, optimum_baseline,
		 rounds, proposals, accepted, favours, settled, dropped,
		 by_strategy_json, counters_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, d.Day, d.Overall, d.RandomBaseline, d.OptimumBaseline,
		d.Tally.Rounds, d.Tally.Proposals, d.Tally.Accepted, d.Tally.Favours, d.Tally.Settled, d.Tally.Dropped,
		string(byStrategy), string(counters),
	)
	if err != nil {
		return fmt.Errorf("insert day %d: %w", d.Day, err)
	}

	if _, err := tx.Exec("UPDATE runs SET days_completed = ? WHERE id = ?", d.Day, r.RunID); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordRound stores a per-round summary.
func (r *RunRecorder) RecordRound(rs stats.RoundSummary) error {
	mean, _ := json.Marshal(rs.Mean)
	count, _ := json.Marshal(rs.Count)
	tally, _ := json.Marshal(rs.Tally)

	_, err := r.db.conn.Exec(`INSERT OR REPLACE INTO round_summaries
		(run_id, day, round, overall, settled, mean_json, count_json, tally_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, rs.Day, rs.Round, rs.Overall, rs.Tally.Settled,
		string(mean), string(count), string(tally),
	)
	if err != nil {
		return fmt.Errorf("insert day %d round %d: %w", rs.Day, rs.Round, err)
	}
	return nil
}

// Finish marks the run as ended.
func (r *RunRecorder) Finish() error {
	_, err := r.db.conn.Exec("UPDATE runs SET finished_at = ? WHERE id = ?", now(), r.RunID)
	return err
}

// SaveMeta stores a key-value pair in the metadata table.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a value from the metadata table.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}

// GetRun loads one run by ID.
func (db *DB) GetRun(id string) (Run, error) {
	var run Run
	err := db.conn.Get(&run, "SELECT * FROM runs WHERE id = ?", id)
	if err != nil {
		return run, fmt.Errorf("load run %s: %w", id, err)
	}
	return run, nil
}

// LatestRun loads the most recently registered run.
func (db *DB) LatestRun() (Run, error) {
	id, err := db.GetMeta("latest_run")
	if err != nil {
		return Run{}, fmt.Errorf("no runs recorded: %w", err)
	}
	return db.GetRun(id)
}

// Runs lists every stored run, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT * FROM runs ORDER BY started_at DESC, rowid DESC")
	return runs, err
}

type dayRow struct {
	RunID           string  `db:"run_id"`
	Day             int     `db:"day"`
	Overall         float64 `db:"overall"`
	RandomBaseline  float64 `db:"random_baseline"`
	OptimumBaseline float64 `db:"optimum_baseline"`
	Rounds          int     `db:"rounds"`
	Proposals       int     `db:"proposals"`
	Accepted        int     `db:"accepted"`
	Favours         int     `db:"favours"`
	Settled         int     `db:"settled"`
	Dropped         int     `db:"dropped"`
	ByStrategyJSON  string  `db:"by_strategy_json"`
	CountersJSON    string  `db:"counters_json"`
}

// DaySummaries loads a run's daily summaries in day order.
func (db *DB) DaySummaries(runID string) ([]stats.DaySummary, error) {
	var rows []dayRow
	if err := db.conn.Select(&rows, "SELECT * FROM day_summaries WHERE run_id = ? ORDER BY day", runID); err != nil {
		return nil, err
	}

	out := make([]stats.DaySummary, 0, len(rows))
	for _, row := range rows {
		d := stats.DaySummary{
			Day:             row.Day,
			Overall:         row.Overall,
			RandomBaseline:  row.RandomBaseline,
			OptimumBaseline: row.OptimumBaseline,
			Tally: stats.ExchangeTally{
				Rounds:    row.Rounds,
				Proposals: row.Proposals,
				Accepted:  row.Accepted,
				Favours:   row.Favours,
				Settled:   row.Settled,
				Dropped:   row.Dropped,
			},
		}
		if err := json.Unmarshal([]byte(row.ByStrategyJSON), &d.ByStrategy); err != nil {
			return nil, fmt.Errorf("decode day %d: %w", row.Day, err)
		}
		if err := json.Unmarshal([]byte(row.CountersJSON), &d.Counters); err != nil {
			return nil, fmt.Errorf("decode day %d: %w", row.Day, err)
		}
		out = append(out, d)
	}
	return out, nil
}

type roundRow struct {
	RunID     string  `db:"run_id"`
	Day       int     `db:"day"`
	Round     int     `db:"round"`
	Overall   float64 `db:"overall"`
	Settled   int     `db:"settled"`
	MeanJSON  string  `db:"mean_json"`
	CountJSON string  `db:"count_json"`
	TallyJSON string  `db:"tally_json"`
}

// RoundSummaries loads the per-round summaries stored for one day of a run.
func (db *DB) RoundSummaries(runID string, day int) ([]stats.RoundSummary, error) {
	var rows []roundRow
	err := db.conn.Select(&rows,
		"SELECT * FROM round_summaries WHERE run_id = ? AND day = ? ORDER BY round", runID, day)
	if err != nil {
		return nil, err
	}

	out := make([]stats.RoundSummary, 0, len(rows))
	for _, row := range rows {
		rs := stats.RoundSummary{
			Day:     row.Day,
			Round:   row.Round,
			Overall: row.Overall,
			Mean:    map[agents.Strategy]float64{},
			Count:   map[agents.Strategy]int{},
		}
		if err := json.Unmarshal([]byte(row.MeanJSON), &rs.Mean); err != nil {
			return nil, fmt.Errorf("decode day %d round %d: %w", row.Day, row.Round, err)
		}
		if err := json.Unmarshal([]byte(row.CountJSON), &rs.Count); err != nil {
			return nil, fmt.Errorf("decode day %d round %d: %w", row.Day, row.Round, err)
		}
		if err := json.Unmarshal([]byte(row.TallyJSON), &rs.Tally); err != nil {
			return nil, fmt.Errorf("decode day %d round %d: %w", row.Day, row.Round, err)
		}
		out = append(out, rs)
	}
	return out, nil
}

// timeLayout has fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func now() string {
	return time.Now().UTC().Format(timeLayout)
}
