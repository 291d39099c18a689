package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/zoomdeck/internal/audit"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/livesync"
)

var errCreatorOnly = fmt.Errorf("only the creator can manage webhooks: %w", deck.ErrForbidden)

// Presentations resolves the presentation a webhook belongs to.
type Presentations interface {
	Get(ctx context.Context, id string) (*deck.Presentation, error)
}

type createRequest struct {
	URL     string         `json:"url"`
	Actions []audit.Action `json:"actions"`
}

// RegisterRoutes mounts the webhook endpoints. Every endpoint is limited to
// the creator of the presentation.
func RegisterRoutes(r chi.Router, store *Store, presentations Presentations) {
	r.Get("/api/presentations/{id}/webhooks", handleList(store, presentations))
	r.Post("/api/presentations/{id}/webhooks", handleCreate(store, presentations))
	r.Delete("/api/webhooks/{hookID}", handleDelete(store, presentations))
}

// authorize loads presentation id and checks userID created it.
func authorize(ctx context.Context, presentations Presentations, id, userID string) error {
	p, err := presentations.Get(ctx, id)
	if err != nil {
		return err
	}
	if userID == "" {
		return deck.ErrUnauthorized
	}
	if p.CreatorID() != userID {
		return errCreatorOnly
	}
	return nil
}

func handleList(store *Store, presentations Presentations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := authorize(r.Context(), presentations, id, r.Header.Get(livesync.HeaderUserID)); err != nil {
			writeError(w, err)
			return
		}
		hooks, err := store.List(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if hooks == nil {
			hooks = []Webhook{}
		}
		writeJSON(w, http.StatusOK, hooks)
	}
}

func handleCreate(store *Store, presentations Presentations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		user := r.Header.Get(livesync.HeaderUserID)
		if err := authorize(r.Context(), presentations, id, user); err != nil {
			writeError(w, err)
			return
		}

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.Join(deck.ErrInvalid, err))
			return
		}
		hook, err := store.Create(r.Context(), Webhook{
			PresentationID: id,
			URL:            req.URL,
			Actions:        req.Actions,
			CreatedByID:    user,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, hook)
	}
}

func handleDelete(store *Store, presentations Presentations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hook, err := store.Get(r.Context(), chi.URLParam(r, "hookID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := authorize(r.Context(), presentations, hook.PresentationID, r.Header.Get(livesync.HeaderUserID)); err != nil {
			writeError(w, err)
			return
		}
		if err := store.Delete(r.Context(), hook.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
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
