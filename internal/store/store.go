// Package store handles relational persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps database access for users, snippets and results.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return OpenDriver("sqlite", path)
}

// OpenDriver opens a database for the named driver and applies migrations.
func OpenDriver(driver, dsn string) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, dialect: dialect}
	if err := dialect.Configure(db); err != nil {
		store.closeQuietly()
		return nil, err
	}
	if err := store.migrate(); err != nil {
		store.closeQuietly()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) closeQuietly() {
	if cerr := s.db.Close(); cerr != nil {
		// Best-effort close on open failure.
		_ = cerr
	}
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			profile_image_url TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS languages (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			icon TEXT NOT NULL,
			snippet_count INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS code_snippets (
			id TEXT PRIMARY KEY,
			language_id TEXT NOT NULL,
			title TEXT NOT NULL,
			code TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS test_results (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			snippet_id TEXT NOT NULL,
			wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			time_spent INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			completed_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS result_char_stats (
			result_id TEXT NOT NULL,
			ch TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			PRIMARY KEY (result_id, ch)
		);`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id TEXT PRIMARY KEY,
			total_tests INTEGER NOT NULL DEFAULT 0,
			average_wpm REAL NOT NULL DEFAULT 0,
			average_accuracy REAL NOT NULL DEFAULT 0,
			best_wpm REAL NOT NULL DEFAULT 0,
			best_accuracy REAL NOT NULL DEFAULT 0,
			global_rank INTEGER,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL,
			icon TEXT NOT NULL,
			criteria TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_achievements (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			achievement_id TEXT NOT NULL,
			earned_at TEXT NOT NULL,
			UNIQUE (user_id, achievement_id)
		);`,
		`CREATE TABLE IF NOT EXISTS language_proficiency (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			language_id TEXT NOT NULL,
			average_wpm REAL NOT NULL,
			average_accuracy REAL NOT NULL,
			tests_completed INTEGER NOT NULL,
			proficiency_level TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (user_id, language_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_code_snippets_language ON code_snippets(language_id);`,
		`CREATE INDEX IF NOT EXISTS idx_test_results_user ON test_results(user_id, completed_at);`,
		`CREATE INDEX IF NOT EXISTS idx_result_char_stats_ch ON result_char_stats(ch);`,
		`CREATE INDEX IF NOT EXISTS idx_user_stats_wpm ON user_stats(average_wpm);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) q(query string) string {
	return s.dialect.RewriteQuery(query)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.q(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.q(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.q(query), args...)
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

// Fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
