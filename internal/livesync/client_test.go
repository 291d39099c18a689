package livesync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/loop"
	"github.com/ziadkadry99/zoomdeck/internal/navigation"
)

// fakeAPI is a minimal in-memory presentation endpoint.
type fakeAPI struct {
	mu      sync.Mutex
	p       deck.Presentation
	patches int
	gets    int
	fail    bool
	gone    bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{p: deck.Presentation{
		ID:             "p1",
		Title:          "Demo",
		CurrentSlideID: "s0",
		CreatedBy:      &deck.UserRef{ID: "owner"},
		Slides: []deck.Slide{
			{ID: "s0", X: 50, Y: 50, Width: 200, Height: 150, Order: 0},
			{ID: "s1", X: 400, Y: 50, Width: 200, Height: 150, Order: 1},
			{ID: "s2", X: 400, Y: 600, Width: 200, Height: 150, Order: 2},
		},
	}}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if f.gone {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(deck.Envelope{Error: "presentation not found"})
		return
	}
	if f.fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	switch r.Method {
	case http.MethodGet:
		f.gets++
	case http.MethodPatch:
		f.patches++
		var patch deck.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		moved := patch.CurrentSlideID != nil && *patch.CurrentSlideID != f.p.CurrentSlideID
		if patch.CurrentSlideID != nil {
			f.p.CurrentSlideID = *patch.CurrentSlideID
		}
		if patch.IsPublic != nil {
			f.p.IsPublic = *patch.IsPublic
		}
		if patch.IsPresenting != nil {
			f.p.IsPresenting = *patch.IsPresenting
		}
		if patch.BackgroundType != nil {
			f.p.BackgroundType = patch.BackgroundType
		}
		if moved {
			seq, _ := strconv.ParseUint(r.Header.Get(HeaderSeq), 10, 64)
			f.p.Writer = &deck.WriteTag{Session: r.Header.Get(HeaderSession), Seq: seq}
		}
	}
	p := f.p
	json.NewEncoder(w).Encode(deck.Envelope{Presentation: &p})
}

func (f *fakeAPI) set(fn func(*fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) patchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patches
}

type session struct {
	m      *loop.Manual
	nav    *navigation.Navigator
	client *Client
	toasts []string
}

func newSession(t *testing.T, baseURL, user string) *session {
	t.Helper()
	s := &session{m: loop.NewManual()}
	s.nav = navigation.New(s.m, navigation.Options{
		UserID:         user,
		ViewportWidth:  1024,
		ViewportHeight: 768,
		Logger:         log.Discard(),
	})
	store := NewHTTPStore(baseURL, user, nil)
	s.client = New(s.m, store, s.nav, Options{
		PresentationID: "p1",
		Logger:         log.Discard(),
		Notifier: NotifierFunc(func(l Level, msg string) {
			s.toasts = append(s.toasts, l.String()+": "+msg)
		}),
	})
	t.Cleanup(func() {
		s.client.Stop()
		s.nav.Close()
	})
	return s
}

func TestPresenterViewerConvergence(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	presenter := newSession(t, srv.URL, "owner")
	viewer := newSession(t, srv.URL, "viewer")
	presenter.client.Start()
	viewer.client.Start()
	presenter.m.Flush()
	viewer.m.Flush()

	if presenter.nav.Current() != "s0" || viewer.nav.Current() != "s0" {
		t.Fatalf("initial load: presenter %q viewer %q", presenter.nav.Current(), viewer.nav.Current())
	}
	if !presenter.nav.IsPresenter() || viewer.nav.IsPresenter() {
		t.Fatal("roles not derived from snapshot")
	}

	for _, want := range []string{"s1", "s2"} {
		if !presenter.nav.Next() {
			t.Fatalf("Next to %s rejected", want)
		}
		presenter.m.Flush()
		presenter.m.Advance(navigation.DefaultTransitionSpeed)
		if presenter.nav.Current() != want {
			t.Fatalf("presenter at %q, want %q", presenter.nav.Current(), want)
		}
	}
	if n := api.patchCount(); n != 2 {
		t.Errorf("PATCH calls = %d, want 2", n)
	}

	viewer.m.Advance(DefaultPollInterval)
	if viewer.nav.Current() != "s2" {
		t.Errorf("viewer at %q after one poll, want s2", viewer.nav.Current())
	}
	if api.patchCount() != 2 {
		t.Error("viewer must never PATCH")
	}
}

func TestSelfEchoDoesNotRollBack(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	s := newSession(t, srv.URL, "owner")
	s.client.Start()
	s.m.Flush()

	s.nav.GoToSlide("s1")
	s.m.Flush()
	s.m.Advance(navigation.DefaultTransitionSpeed)

	// The store still reports s0 but tagged with our own earlier write.
	api.set(func(f *fakeAPI) {
		f.p.CurrentSlideID = "s0"
		f.p.Writer = &deck.WriteTag{Session: s.client.Session(), Seq: 1}
	})
	s.m.Advance(DefaultPollInterval)
	if s.nav.Current() != "s1" {
		t.Errorf("echo of own write moved presenter to %q", s.nav.Current())
	}

	// A write from another session is followed.
	api.set(func(f *fakeAPI) {
		f.p.CurrentSlideID = "s2"
		f.p.Writer = &deck.WriteTag{Session: "remote-clicker", Seq: 9}
	})
	s.m.Advance(DefaultPollInterval)
	if s.nav.Current() != "s2" {
		t.Errorf("foreign write not followed, at %q", s.nav.Current())
	}
}

func TestForeignSlideFollowedAfterOwnPresenceWrite(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	s := newSession(t, srv.URL, "owner")
	s.client.Start()
	s.m.Flush()

	// Another presenter moves the slide, then this session writes an
	// unrelated field before its next poll.
	api.set(func(f *fakeAPI) {
		f.p.CurrentSlideID = "s2"
		f.p.Writer = &deck.WriteTag{Session: "bob", Seq: 1}
	})
	s.client.SetPresenting(true)
	s.m.Flush()
	if api.patchCount() != 1 {
		t.Fatalf("PATCH calls = %d, want 1", api.patchCount())
	}

	s.m.Advance(DefaultPollInterval)
	if s.nav.Current() != "s2" {
		t.Errorf("foreign slide change not followed, at %q", s.nav.Current())
	}
}

func TestPresenceHeldUntilFirstSnapshot(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	viewer := newSession(t, srv.URL, "viewer")
	viewer.client.SetPresenting(true)
	viewer.client.Start()
	viewer.m.Flush()
	if api.patchCount() != 0 {
		t.Errorf("viewer published presence")
	}

	owner := newSession(t, srv.URL, "owner")
	owner.client.SetPresenting(false)
	owner.client.SetPresenting(true)
	if api.patchCount() != 0 {
		t.Fatal("presence sent before the role was known")
	}
	owner.client.Start()
	owner.m.Flush()
	if api.patchCount() != 1 {
		t.Fatalf("PATCH calls = %d, want 1", api.patchCount())
	}
	if !owner.nav.Snapshot().IsPresenting {
		t.Error("latest presence value not published")
	}
}

func TestPollFailureLogsWarning(t *testing.T) {
	api := newFakeAPI()
	api.fail = true
	srv := httptest.NewServer(api)
	defer srv.Close()

	var buf bytes.Buffer
	m := loop.NewManual()
	nav := navigation.New(m, navigation.Options{UserID: "viewer", Logger: log.Discard()})
	client := New(m, NewHTTPStore(srv.URL, "viewer", nil), nav, Options{
		PresentationID: "p1",
		Logger:         slog.New(slog.NewTextHandler(&buf, nil)),
	})
	t.Cleanup(func() {
		client.Stop()
		nav.Close()
	})

	client.Start()
	m.Flush()
	if out := buf.String(); !strings.Contains(out, "level=WARN") || !strings.Contains(out, "poll failed") {
		t.Errorf("log = %q, want a warning", out)
	}
}

func TestPollSkipsRefitWhileTransitioning(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	s := newSession(t, srv.URL, "viewer")
	s.client.Start()
	s.m.Flush()
	s.nav.GoToSlide("s1")

	api.set(func(f *fakeAPI) { f.p.CurrentSlideID = "s2" })
	s.client.Poll()
	s.m.Flush()
	if s.nav.Current() != "s1" {
		t.Errorf("poll interrupted transition, at %q", s.nav.Current())
	}
	s.m.Advance(navigation.DefaultTransitionSpeed + DefaultPollInterval)
	if s.nav.Current() != "s2" {
		t.Errorf("next poll should follow, at %q", s.nav.Current())
	}
}

func TestPollFailureIsSilent(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	s := newSession(t, srv.URL, "viewer")
	s.client.Start()
	s.m.Flush()

	api.set(func(f *fakeAPI) { f.fail = true })
	s.m.Advance(3 * DefaultPollInterval)
	if len(s.toasts) != 0 {
		t.Errorf("poll failures must not toast: %v", s.toasts)
	}
	api.set(func(f *fakeAPI) {
		f.fail = false
		f.p.CurrentSlideID = "s2"
	})
	s.m.Advance(DefaultPollInterval)
	if s.nav.Current() != "s2" {
		t.Errorf("recovery poll did not apply, at %q", s.nav.Current())
	}
}

func TestPublishFailureToastsAndKeepsState(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	s := newSession(t, srv.URL, "owner")
	s.client.Start()
	s.m.Flush()

	api.set(func(f *fakeAPI) { f.fail = true })
	s.nav.Next()
	s.m.Flush()
	if s.nav.Current() != "s1" {
		t.Errorf("optimistic state lost, at %q", s.nav.Current())
	}
	if len(s.toasts) != 1 || s.toasts[0][:6] != "error:" {
		t.Errorf("toasts = %v", s.toasts)
	}
}

func TestNotFound(t *testing.T) {
	api := newFakeAPI()
	api.gone = true
	srv := httptest.NewServer(api)
	defer srv.Close()

	calls := 0
	m := loop.NewManual()
	nav := navigation.New(m, navigation.Options{Logger: log.Discard()})
	c := New(m, NewHTTPStore(srv.URL, "viewer", nil), nav, Options{
		PresentationID: "p1",
		Logger:         log.Discard(),
		OnNotFound:     func() { calls++ },
	})
	defer c.Stop()
	c.Start()
	m.Flush()
	m.Advance(3 * DefaultPollInterval)
	if !c.NotFound() {
		t.Error("expected NotFound")
	}
	if calls != 1 {
		t.Errorf("OnNotFound calls = %d, want 1", calls)
	}
}

func TestSettingsReadThrough(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	s := newSession(t, srv.URL, "viewer")
	api.set(func(f *fakeAPI) {
		f.p.BackgroundType = deck.Ptr(deck.BackgroundHexagon)
		f.p.ViewerCountdown = deck.Ptr(45)
	})
	s.client.Start()
	s.m.Flush()
	got := s.nav.Settings()
	if got.Background != deck.BackgroundHexagon || got.ViewerCountdown != 45 {
		t.Errorf("settings = %+v", got)
	}
	if !got.ShowSlideRing {
		t.Error("absent showSlideRing keeps local default")
	}
}

func TestCreatorOnlyActions(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	viewer := newSession(t, srv.URL, "viewer")
	viewer.client.Start()
	viewer.m.Flush()
	if err := viewer.client.SetPublic(true); !errors.Is(err, deck.ErrForbidden) {
		t.Errorf("viewer SetPublic err = %v", err)
	}
	if err := viewer.client.UpdateViewerSettings(deck.DefaultSettings()); !errors.Is(err, deck.ErrForbidden) {
		t.Errorf("viewer UpdateViewerSettings err = %v", err)
	}
	viewer.client.SetPresenting(true)
	viewer.m.Flush()
	if api.patchCount() != 0 {
		t.Error("viewer actions must not reach the store")
	}

	owner := newSession(t, srv.URL, "owner")
	owner.client.Start()
	owner.m.Flush()
	if err := owner.client.SetPublic(true); err != nil {
		t.Fatalf("owner SetPublic: %v", err)
	}
	owner.m.Flush()
	if !owner.nav.Snapshot().IsPublic {
		t.Error("ack should replace snapshot")
	}
	if len(owner.toasts) != 1 || owner.toasts[0] != "success: Presentation is now public" {
		t.Errorf("toasts = %v", owner.toasts)
	}
}

func TestStopAbandonsPolling(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	s := newSession(t, srv.URL, "viewer")
	s.client.Start()
	s.m.Flush()
	s.client.Stop()
	api.mu.Lock()
	before := api.gets
	api.mu.Unlock()
	s.m.Advance(5 * time.Second)
	api.mu.Lock()
	after := api.gets
	api.mu.Unlock()
	if after != before {
		t.Errorf("polling continued after Stop: %d -> %d", before, after)
	}
}

func TestHTTPStoreStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderUserID) != "u1" {
			t.Errorf("missing user header")
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"only the creator can change settings"}`))
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL+"/", "u1", nil)
	_, err := store.Patch(context.Background(), "p1", deck.Patch{IsPublic: deck.Ptr(true)}, deck.WriteTag{})
	if !errors.Is(err, deck.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "only the creator can change settings" {
		t.Errorf("status error = %+v", se)
	}
}
