package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"EarningsTicker/internal/model"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists projector history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the ticker writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  TEXT NOT NULL UNIQUE,
			timestamp   INTEGER NOT NULL,
			source      TEXT,
			records     INTEGER,
			tracking    INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS completions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			session_id    TEXT,
			investment_id TEXT NOT NULL,
			plan          TEXT,
			principal     REAL,
			earned        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_completions_investment ON completions(investment_id)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp         INTEGER NOT NULL,
			session_id        TEXT,
			investment_id     TEXT NOT NULL,
			principal         REAL,
			accrued           REAL,
			remaining_seconds INTEGER,
			status            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSession(evt *SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO sessions
		(session_id, timestamp, source, records, tracking)
		VALUES (?,?,?,?,?)`,
		evt.SessionID, evt.StartedAt.Unix(), evt.Source, evt.Records, evt.Tracking,
	)
	return err
}

func (r *SQLiteRecorder) RecordCompletion(evt *model.CompletionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO completions
		(timestamp, session_id, investment_id, plan, principal, earned)
		VALUES (?,?,?,?,?,?)`,
		evt.CompletedAt.Unix(), evt.SessionID, evt.InvestmentID, evt.Plan,
		evt.Principal, evt.Earned,
	)
	return err
}

// RecordSnapshot writes all rows in one transaction.
func (r *SQLiteRecorder) RecordSnapshot(takenAt time.Time, rows []SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO snapshots
		(timestamp, session_id, investment_id, principal, accrued, remaining_seconds, status)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare snapshot: %w", err)
	}
	defer stmt.Close()

	ts := takenAt.Unix()
	for _, row := range rows {
		if _, err := stmt.Exec(ts, row.SessionID, row.InvestmentID, row.Principal,
			row.Accrued, row.RemainingSeconds, string(row.Status)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert snapshot %s: %w", row.InvestmentID, err)
		}
	}
	return tx.Commit()
}

// TotalEarned sums the earnings of every recorded completion.
func (r *SQLiteRecorder) TotalEarned() (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total sql.NullFloat64
	if err := r.db.QueryRow(`SELECT SUM(earned) FROM completions`).Scan(&total); err != nil {
		return 0, err
	}
	return total.Float64, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
