package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/zoomdeck/internal/db"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
)

// Execer is satisfied by *db.DB and *sql.Tx so entries can be written
// inside the transaction that made the change.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store provides access to the change history.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	return LogTo(ctx, s.db, entry)
}

// LogTo inserts entry using ex.
func LogTo(ctx context.Context, ex Execer, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO history_entries (
			id, presentation_id, actor_id, session, seq,
			action, summary, previous_value, new_value
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.PresentationID,
		entry.ActorID,
		entry.Session,
		int64(entry.Seq),
		string(entry.Action),
		entry.Summary,
		nullable(entry.PreviousValue),
		nullable(entry.NewValue),
	)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetByID retrieves a single entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	e, err := scanInto(s.db.QueryRowContext(ctx, selectEntries+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, deck.ErrNotFound
	}
	return e, err
}

const selectEntries = `SELECT id, timestamp, presentation_id, actor_id, session, seq,
	action, summary, previous_value, new_value FROM history_entries`

// QueryFilter controls which entries are returned by Query.
type QueryFilter struct {
	PresentationID string
	ActorID        string
	Action         Action
	Since          *time.Time
	Until          *time.Time
	Limit          int
	Offset         int
}

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.PresentationID != "" {
		clauses = append(clauses, "presentation_id = ?")
		args = append(args, filter.PresentationID)
	}
	if filter.ActorID != "" {
		clauses = append(clauses, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}

	query := selectEntries
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	// rowid breaks ties between entries written in the same second.
	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM history_entries WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old history entries: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e                       Entry
		action, ts              string
		seq                     int64
		previousValue, newValue sql.NullString
	)

	err := sc.Scan(
		&e.ID, &ts, &e.PresentationID, &e.ActorID, &e.Session, &seq,
		&action, &e.Summary, &previousValue, &newValue,
	)
	if err != nil {
		return nil, err
	}

	e.Action = Action(action)
	e.Seq = uint64(seq)
	e.PreviousValue = previousValue.String
	e.NewValue = newValue.String

	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.Timestamp = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		e.Timestamp = t
	}

	return &e, nil
}
