package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with zoomdeck-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// Path returns the file the database lives in.
func (d *DB) Path() string { return d.path }

// InTx runs fn inside a transaction, committing on success.
func (d *DB) InTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS presentations (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    current_slide_id TEXT NOT NULL DEFAULT '',
    presenter_user_id TEXT NOT NULL DEFAULT '',
    is_public INTEGER NOT NULL DEFAULT 0,
    is_presenting INTEGER NOT NULL DEFAULT 0,
    show_slide_ring INTEGER NOT NULL DEFAULT 1,
    viewer_size TEXT NOT NULL DEFAULT 'responsive' CHECK(viewer_size IN ('responsive','1920x1080')),
    background_type TEXT NOT NULL DEFAULT 'interactive'
        CHECK(background_type IN ('interactive','dots','hexagon','radial','paper','stars','circuit','plain')),
    viewer_countdown INTEGER NOT NULL DEFAULT 0 CHECK(viewer_countdown BETWEEN 0 AND 300),
    viewer_animation TEXT NOT NULL DEFAULT 'pulse'
        CHECK(viewer_animation IN ('countdown','pulse','wave','spinner','particles','gradient')),
    created_by_id TEXT NOT NULL,
    last_writer_session TEXT NOT NULL DEFAULT '',
    last_write_seq INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS slides (
    id TEXT PRIMARY KEY,
    presentation_id TEXT NOT NULL REFERENCES presentations(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    x REAL NOT NULL DEFAULT 0,
    y REAL NOT NULL DEFAULT 0,
    width REAL NOT NULL DEFAULT 0,
    height REAL NOT NULL DEFAULT 0,
    sort_order INTEGER NOT NULL DEFAULT 0,
    background_color TEXT NOT NULL DEFAULT '',
    text_color TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    transition_type TEXT NOT NULL DEFAULT '' CHECK(transition_type IN ('','fade','slide','zoom','none'))
);

CREATE INDEX IF NOT EXISTS idx_slides_presentation ON slides(presentation_id, position);

CREATE TABLE IF NOT EXISTS history_entries (
    id TEXT PRIMARY KEY,
    timestamp DATETIME NOT NULL DEFAULT (datetime('now')),
    presentation_id TEXT NOT NULL,
    actor_id TEXT NOT NULL DEFAULT '',
    session TEXT NOT NULL DEFAULT '',
    seq INTEGER NOT NULL DEFAULT 0,
    action TEXT NOT NULL CHECK(action IN (
        'created','slide_changed','presenter_assigned','presenting_started','presenting_stopped',
        'visibility_changed','metadata_updated','settings_updated')),
    summary TEXT NOT NULL DEFAULT '',
    previous_value TEXT,
    new_value TEXT
);

CREATE INDEX IF NOT EXISTS idx_history_presentation ON history_entries(presentation_id, timestamp);

CREATE TABLE IF NOT EXISTS webhooks (
    id TEXT PRIMARY KEY,
    presentation_id TEXT NOT NULL REFERENCES presentations(id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    actions TEXT NOT NULL DEFAULT '[]',
    created_by_id TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    last_status INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    last_delivery_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_webhooks_presentation ON webhooks(presentation_id);
`
