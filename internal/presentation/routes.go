package presentation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/livesync"
)

const maxPatchBytes = 64 << 10

// RegisterRoutes mounts the presentation endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/presentations", handleList(store))
	r.Get("/api/presentations/{id}", handleGet(store))
	r.Patch("/api/presentations/{id}", handlePatch(store))
	r.Delete("/api/presentations/{id}", handleDelete(store))
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), r.Header.Get(livesync.HeaderUserID))
		if err != nil {
			writeError(w, err)
			return
		}
		if list == nil {
			list = []Summary{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetFor(r.Context(), chi.URLParam(r, "id"), r.Header.Get(livesync.HeaderUserID))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deck.Envelope{Presentation: p})
	}
}

func handlePatch(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBytes))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := ValidatePatch(body); err != nil {
			writeError(w, err)
			return
		}
		var patch deck.Patch
		if err := json.Unmarshal(body, &patch); err != nil {
			writeError(w, errors.Join(deck.ErrInvalid, err))
			return
		}

		tag := deck.WriteTag{Session: r.Header.Get(livesync.HeaderSession)}
		if v := r.Header.Get(livesync.HeaderSeq); v != "" {
			seq, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				writeError(w, errors.Join(deck.ErrInvalid, err))
				return
			}
			tag.Seq = seq
		}

		p, err := store.ApplyPatch(r.Context(), chi.URLParam(r, "id"), r.Header.Get(livesync.HeaderUserID), patch, tag)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deck.Envelope{Presentation: p})
	}
}

func handleDelete(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id"), r.Header.Get(livesync.HeaderUserID)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// statusFor maps store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, deck.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, deck.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, deck.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, deck.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
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
