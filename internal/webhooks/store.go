package webhooks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/zoomdeck/internal/audit"
	"github.com/ziadkadry99/zoomdeck/internal/db"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
)

// Store persists webhook subscriptions and their last delivery result.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create validates and inserts w. If w.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, w Webhook) (*Webhook, error) {
	if err := validate(w); err != nil {
		return nil, err
	}
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.Actions == nil {
		w.Actions = []audit.Action{}
	}
	actions, err := json.Marshal(w.Actions)
	if err != nil {
		return nil, fmt.Errorf("marshalling actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO webhooks (id, presentation_id, url, actions, created_by_id)
		VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.PresentationID, w.URL, string(actions), w.CreatedByID)
	if err != nil {
		return nil, fmt.Errorf("inserting webhook: %w", err)
	}
	return s.Get(ctx, w.ID)
}

func validate(w Webhook) error {
	if w.PresentationID == "" {
		return fmt.Errorf("%w: webhook needs a presentation", deck.ErrInvalid)
	}
	if w.CreatedByID == "" {
		return deck.ErrUnauthorized
	}
	u, err := url.Parse(w.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: webhook url must be an absolute http(s) url", deck.ErrInvalid)
	}
	for _, a := range w.Actions {
		if !a.Valid() {
			return fmt.Errorf("%w: unknown action %q", deck.ErrInvalid, a)
		}
	}
	return nil
}

// Get retrieves a single webhook.
func (s *Store) Get(ctx context.Context, id string) (*Webhook, error) {
	w, err := scanInto(s.db.QueryRowContext(ctx, selectWebhooks+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, deck.ErrNotFound
	}
	return w, err
}

const selectWebhooks = `SELECT id, presentation_id, url, actions, created_by_id, created_at,
	last_status, last_error, last_delivery_at FROM webhooks`

// List returns the webhooks of a presentation, oldest first.
func (s *Store) List(ctx context.Context, presentationID string) ([]Webhook, error) {
	rows, err := s.db.QueryContext(ctx, selectWebhooks+` WHERE presentation_id = ? ORDER BY created_at, id`, presentationID)
	if err != nil {
		return nil, fmt.Errorf("querying webhooks: %w", err)
	}
	defer rows.Close()

	var result []Webhook
	for rows.Next() {
		w, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

// Delete removes a webhook.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return deck.ErrNotFound
	}
	return nil
}

// RecordDelivery stores the outcome of the latest delivery attempt.
func (s *Store) RecordDelivery(ctx context.Context, id string, status int, deliveryErr error) error {
	msg := ""
	if deliveryErr != nil {
		msg = deliveryErr.Error()
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE webhooks SET last_status = ?, last_error = ?, last_delivery_at = datetime('now')
		WHERE id = ?`, status, msg, id)
	if err != nil {
		return fmt.Errorf("recording delivery: %w", err)
	}
	return nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Webhook, error) {
	var (
		w            Webhook
		actions      string
		created      string
		lastDelivery sql.NullString
	)
	err := sc.Scan(&w.ID, &w.PresentationID, &w.URL, &actions, &w.CreatedByID, &created,
		&w.LastStatus, &w.LastError, &lastDelivery)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(actions), &w.Actions); err != nil {
		w.Actions = nil
	}
	w.CreatedAt = parseTime(created)
	if lastDelivery.Valid {
		t := parseTime(lastDelivery.String)
		w.LastDeliveryAt = &t
	}
	return &w, nil
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
