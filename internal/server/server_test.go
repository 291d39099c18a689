package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/zoomdeck/internal/audit"
	"github.com/ziadkadry99/zoomdeck/internal/db"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/livesync"
	"github.com/ziadkadry99/zoomdeck/internal/log"
)

func setupServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	srv := New(cfg, database, log.Discard())
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		database.Close()
	})
	return srv
}

func TestHealthCheck(t *testing.T) {
	srv := setupServer(t, Config{Port: 0})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := setupServer(t, Config{Port: 0, AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/api/presentations/p1", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	req.Header.Set("Access-Control-Request-Headers", livesync.HeaderSession)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Errorf("Allow-Methods = %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestRoutesRegistered(t *testing.T) {
	srv := setupServer(t, Config{})
	if _, err := srv.Presentations().Save(context.Background(),
		&deck.Presentation{ID: "p1", Title: "Demo", IsPublic: true}, "owner"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/presentations", http.StatusOK},
		{"/api/presentations/p1", http.StatusOK},
		{"/api/presentations/p1/history", http.StatusOK},
		{"/api/presentations/p1/webhooks", http.StatusUnauthorized},
		{"/api/presentations/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestPruneHistory(t *testing.T) {
	srv := setupServer(t, Config{HistoryRetention: time.Hour})
	ctx := context.Background()

	if _, err := srv.Database().Exec(`INSERT INTO history_entries (id, timestamp, presentation_id, action)
		VALUES ('old', datetime('now', '-2 hours'), 'p1', 'created')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := srv.History().Log(ctx, audit.Entry{PresentationID: "p1", Action: audit.ActionSlideChanged}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	n, err := srv.PruneHistory(ctx)
	if err != nil {
		t.Fatalf("PruneHistory: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}

	keep := setupServer(t, Config{})
	if n, _ := keep.PruneHistory(ctx); n != 0 {
		t.Errorf("zero retention pruned %d", n)
	}
}

func TestPrivateHistoryNeedsUser(t *testing.T) {
	srv := setupServer(t, Config{})
	if _, err := srv.Presentations().Save(context.Background(),
		&deck.Presentation{ID: "p1", Title: "Secret roadmap"}, "owner"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	for _, path := range []string{"/api/presentations/p1", "/api/presentations/p1/history"} {
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized || strings.Contains(w.Body.String(), "Secret roadmap") {
			t.Errorf("anonymous GET %s = %d %s", path, w.Code, w.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/presentations/p1/history", nil)
	req.Header.Set(livesync.HeaderUserID, "owner")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	var entries []audit.Entry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || len(entries) != 1 || entries[0].Action != audit.ActionCreated {
		t.Errorf("owner history = %d %+v", w.Code, entries)
	}
}
