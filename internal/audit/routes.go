package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/livesync"
)

// Presentations decides whether a caller may see a presentation. History
// is visible to exactly the callers who may read the presentation itself.
type Presentations interface {
	GetFor(ctx context.Context, id, userID string) (*deck.Presentation, error)
}

// RegisterRoutes mounts the history endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store, presentations Presentations) {
	r.Get("/api/presentations/{id}/history", handleQuery(store, presentations))
	r.Get("/api/history/{entryID}", handleGetByID(store, presentations))
}

func handleQuery(store *Store, presentations Presentations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := presentations.GetFor(r.Context(), id, r.Header.Get(livesync.HeaderUserID)); err != nil {
			writeError(w, err)
			return
		}

		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}
		filter.PresentationID = id

		entries, err := store.Query(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		if entries == nil {
			entries = []Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// parseFilter reads actor, action, since, until, limit and offset.
func parseFilter(q url.Values) (QueryFilter, error) {
	filter := QueryFilter{ActorID: q.Get("actor")}

	if v := q.Get("action"); v != "" {
		filter.Action = Action(v)
		if !filter.Action.Valid() {
			return filter, fmt.Errorf("%w: unknown action %q", deck.ErrInvalid, v)
		}
	}
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"since", &filter.Since}, {"until", &filter.Until}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("%w: %s must be RFC 3339", deck.ErrInvalid, p.key)
		}
		*p.dst = &t
	}
	for _, p := range []struct {
		key string
		dst *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("%w: %s must be a non-negative integer", deck.ErrInvalid, p.key)
		}
		*p.dst = n
	}
	return filter, nil
}

func handleGetByID(store *Store, presentations Presentations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.GetByID(r.Context(), chi.URLParam(r, "entryID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if _, err := presentations.GetFor(r.Context(), entry.PresentationID, r.Header.Get(livesync.HeaderUserID)); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, deck.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, deck.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, deck.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, deck.ErrInvalid):
		status = http.StatusBadRequest
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, deck.Envelope{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
