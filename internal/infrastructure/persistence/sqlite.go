package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

const schema = `CREATE TABLE IF NOT EXISTS fragments (
	key        TEXT PRIMARY KEY,
	html       TEXT NOT NULL,
	css        TEXT NOT NULL,
	javascript TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// SQLite keeps the record as one row of the fragments table
type SQLite struct {
	db  *sql.DB
	key string
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(ctx context.Context, path, key string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases alive and serialises writes
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLite{db: db, key: key}, nil
}

// Load reads the row for the store key
func (s *SQLite) Load(ctx context.Context) (*source.State, error) {
	var state source.State
	err := s.db.QueryRowContext(ctx,
		`SELECT html, css, javascript FROM fragments WHERE key = ?`, s.key,
	).Scan(&state.Markup, &state.Style, &state.Script)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fragments: %w", err)
	}
	return &state, nil
}

// Save upserts the row for the store key
func (s *SQLite) Save(ctx context.Context, state source.State) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fragments (key, html, css, javascript, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			html = excluded.html,
			css = excluded.css,
			javascript = excluded.javascript,
			updated_at = excluded.updated_at`,
		s.key, state.Markup, state.Style, state.Script, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save fragments: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}
