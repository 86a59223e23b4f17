package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focuslink/internal/core/focus"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const statsFileName = "focuslink.db"

// StoredSession is a completed focus session as persisted.
type StoredSession struct {
	ID string
	focus.SessionRecord
}

// StatsStore persists focus sessions and lifetime totals in SQLite.
type StatsStore struct {
	db     *sql.DB
	dbPath string
}

// NewStatsStore opens (or creates) the stats database inside dataDir.
func NewStatsStore(dataDir string) (*StatsStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return OpenStatsStore(filepath.Join(dataDir, statsFileName))
}

// OpenStatsStore opens the stats database at dbPath.
func OpenStatsStore(dbPath string) (*StatsStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open stats database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &StatsStore{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init stats schema: %w", err)
	}
	return store, nil
}

func (store *StatsStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS focus_sessions (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		completed_at INTEGER NOT NULL,
		focus_seconds INTEGER NOT NULL,
		active_seconds INTEGER NOT NULL,
		quality_percent INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		inactive_count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_focus_sessions_completed ON focus_sessions(completed_at);

	CREATE TABLE IF NOT EXISTS focus_totals (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		sessions INTEGER NOT NULL,
		focus_seconds INTEGER NOT NULL,
		streak INTEGER NOT NULL,
		last_focus_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_focus (
		task_id TEXT PRIMARY KEY,
		minutes INTEGER NOT NULL
	);
	`
	_, err := store.db.Exec(schema)
	return err
}

// Path returns the database file location.
func (store *StatsStore) Path() string {
	return store.dbPath
}

// Close closes the database.
func (store *StatsStore) Close() error {
	return store.db.Close()
}

// Load returns the lifetime totals, or zero totals for a fresh database.
func (store *StatsStore) Load() (focus.Stats, error) {
	var stats focus.Stats
	var lastFocus int64
	err := store.db.QueryRow(
		`SELECT sessions, focus_seconds, streak, last_focus_at FROM focus_totals WHERE id = 1`,
	).Scan(&stats.Sessions, &stats.FocusSeconds, &stats.Streak, &lastFocus)
	if errors.Is(err, sql.ErrNoRows) {
		return focus.Stats{}, nil
	}
	if err != nil {
		return focus.Stats{}, fmt.Errorf("load focus totals: %w", err)
	}
	stats.LastFocusAt = fromMillis(lastFocus)
	return stats, nil
}

// RecordSession stores a completed session together with the totals it produced.
func (store *StatsStore) RecordSession(record focus.SessionRecord, stats focus.Stats) error {
	tx, err := store.db.Begin()
	if err != nil {
		return fmt.Errorf("begin stats transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO focus_sessions (id, task_id, started_at, completed_at, focus_seconds, active_seconds,
			quality_percent, warning_count, inactive_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		record.TaskID,
		toMillis(record.StartedAt),
		toMillis(record.CompletedAt),
		record.FocusSeconds,
		record.ActiveSeconds,
		record.QualityPercent,
		record.WarningCount,
		record.InactiveCount,
	)
	if err != nil {
		return fmt.Errorf("insert focus session: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO focus_totals (id, sessions, focus_seconds, streak, last_focus_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sessions = excluded.sessions,
			focus_seconds = excluded.focus_seconds,
			streak = excluded.streak,
			last_focus_at = excluded.last_focus_at`,
		stats.Sessions, stats.FocusSeconds, stats.Streak, toMillis(stats.LastFocusAt),
	)
	if err != nil {
		return fmt.Errorf("update focus totals: %w", err)
	}

	if record.TaskID != "" && record.FocusSeconds >= 60 {
		if err := addTaskFocus(tx, record.TaskID, record.FocusSeconds/60); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stats transaction: %w", err)
	}
	return nil
}

// RecentSessions returns up to limit sessions, newest first.
func (store *StatsStore) RecentSessions(limit int) ([]StoredSession, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := store.db.Query(`
		SELECT id, task_id, started_at, completed_at, focus_seconds, active_seconds,
			quality_percent, warning_count, inactive_count
		FROM focus_sessions
		ORDER BY completed_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query focus sessions: %w", err)
	}
	defer rows.Close()

	var sessions []StoredSession
	for rows.Next() {
		var session StoredSession
		var startedAt, completedAt int64
		if err := rows.Scan(
			&session.ID,
			&session.TaskID,
			&startedAt,
			&completedAt,
			&session.FocusSeconds,
			&session.ActiveSeconds,
			&session.QualityPercent,
			&session.WarningCount,
			&session.InactiveCount,
		); err != nil {
			return nil, fmt.Errorf("scan focus session: %w", err)
		}
		session.StartedAt = fromMillis(startedAt)
		session.CompletedAt = fromMillis(completedAt)
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate focus sessions: %w", err)
	}
	return sessions, nil
}

// TaskFocusMinutes returns the focus minutes credited to a task.
func (store *StatsStore) TaskFocusMinutes(taskID string) (int, error) {
	var minutes int
	err := store.db.QueryRow(`SELECT minutes FROM task_focus WHERE task_id = ?`, taskID).Scan(&minutes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load task focus: %w", err)
	}
	return minutes, nil
}

// AddTaskFocus credits minutes to a task outside of a recorded session.
func (store *StatsStore) AddTaskFocus(taskID string, minutes int) error {
	if taskID == "" || minutes <= 0 {
		return nil
	}
	tx, err := store.db.Begin()
	if err != nil {
		return fmt.Errorf("begin stats transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := addTaskFocus(tx, taskID, minutes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stats transaction: %w", err)
	}
	return nil
}

func addTaskFocus(tx *sql.Tx, taskID string, minutes int) error {
	_, err := tx.Exec(`
		INSERT INTO task_focus (task_id, minutes) VALUES (?, ?)
		ON CONFLICT(task_id) DO UPDATE SET minutes = minutes + excluded.minutes`,
		taskID, minutes,
	)
	if err != nil {
		return fmt.Errorf("add task focus: %w", err)
	}
	return nil
}

func toMillis(at time.Time) int64 {
	if at.IsZero() {
		return 0
	}
	return at.UnixMilli()
}

func fromMillis(millis int64) time.Time {
	if millis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}
