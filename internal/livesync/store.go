package livesync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ziadkadry99/zoomdeck/internal/deck"
)

// Request headers understood by the presentation API.
const (
	HeaderUserID  = "X-User-ID"
	HeaderSession = "X-Zoomdeck-Session"
	HeaderSeq     = "X-Zoomdeck-Seq"
)

// RemoteStore is the authoritative presentation resource.
type RemoteStore interface {
	Get(ctx context.Context, id string) (*deck.Presentation, error)
	Patch(ctx context.Context, id string, patch deck.Patch, tag deck.WriteTag) (*deck.Presentation, error)
}

// StatusError is a non-2xx answer from the store.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("presentation store returned status %d", e.Code)
	}
	return fmt.Sprintf("presentation store returned status %d: %s", e.Code, e.Message)
}

// Unwrap maps well-known statuses onto the deck sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return deck.ErrNotFound
	case http.StatusUnauthorized:
		return deck.ErrUnauthorized
	case http.StatusForbidden:
		return deck.ErrForbidden
	case http.StatusBadRequest:
		return deck.ErrInvalid
	}
	return nil
}

// HTTPStore talks to the presentation API over HTTP.
type HTTPStore struct {
	baseURL string
	userID  string
	client  *http.Client
}

// NewHTTPStore creates a store rooted at baseURL acting as userID.
// A nil client uses a default one.
func NewHTTPStore(baseURL, userID string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		client:  client,
	}
}

func (s *HTTPStore) resource(id string) string {
	return fmt.Sprintf("%s/api/presentations/%s", s.baseURL, url.PathEscape(id))
}

// Get fetches one presentation.
func (s *HTTPStore) Get(ctx context.Context, id string) (*deck.Presentation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.resource(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return s.do(req)
}

// Patch applies a partial update, tagged with the writer's session and sequence.
func (s *HTTPStore) Patch(ctx context.Context, id string, patch deck.Patch, tag deck.WriteTag) (*deck.Presentation, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.resource(id), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tag.Session != "" {
		req.Header.Set(HeaderSession, tag.Session)
		req.Header.Set(HeaderSeq, strconv.FormatUint(tag.Seq, 10))
	}
	return s.do(req)
}

func (s *HTTPStore) do(req *http.Request) (*deck.Presentation, error) {
	req.Header.Set("Accept", "application/json")
	if s.userID != "" {
		req.Header.Set(HeaderUserID, s.userID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("presentation request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read presentation response: %w", err)
	}

	var env deck.Envelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil && resp.StatusCode == http.StatusOK {
			return nil, fmt.Errorf("failed to unmarshal presentation response: %w", err)
		}
	}
	if resp.StatusCode != http.StatusOK {
		msg := env.Error
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return nil, &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if env.Presentation == nil {
		return nil, errors.New("presentation response missing presentation")
	}
	return env.Presentation, nil
}
