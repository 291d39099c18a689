package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ziadkadry99/zoomdeck/internal/db"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/presentation"
)

const introDeck = `
title: Introduction
description: A short tour
public: true
settings:
  background: stars
  viewer_countdown: 900
slides:
  - id: hello
    title: Hello
  - id: agenda
    title: Agenda
    width: 400
    height: 300
    transition_type: zoom
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("title: x\nslidez: []\n")); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestPresentationConversion(t *testing.T) {
	f, err := Parse([]byte(introDeck))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f.ID = "intro"

	p, err := f.Presentation()
	if err != nil {
		t.Fatalf("Presentation: %v", err)
	}
	if p.Slides[0].ID != "intro/hello" {
		t.Errorf("slide id = %q, want scoped id", p.Slides[0].ID)
	}
	if p.Slides[0].Width != DefaultSlideWidth || p.Slides[0].Height != DefaultSlideHeight {
		t.Errorf("default size not applied: %+v", p.Slides[0])
	}
	if p.Slides[1].Order != 1 {
		t.Errorf("file order not used: %d", p.Slides[1].Order)
	}
	if want := float64(DefaultSlideWidth + autoLayoutGap); p.Slides[1].X != want {
		t.Errorf("auto layout x = %v, want %v", p.Slides[1].X, want)
	}
	if p.ViewerCountdown == nil || *p.ViewerCountdown != deck.MaxViewerCountdown {
		t.Errorf("countdown = %v, want clamped", p.ViewerCountdown)
	}
	if p.BackgroundType == nil || *p.BackgroundType != deck.BackgroundStars {
		t.Errorf("background = %v", p.BackgroundType)
	}
}

func TestPresentationKeepsExplicitLayout(t *testing.T) {
	f := &DeckFile{ID: "d", Title: "T", Slides: []deck.Slide{
		{ID: "a", X: 500, Y: 100, Order: 2},
		{ID: "b", X: 0, Y: 0, Order: 1},
	}}
	p, err := f.Presentation()
	if err != nil {
		t.Fatalf("Presentation: %v", err)
	}
	if p.Slides[0].X != 500 || p.Slides[1].X != 0 || p.Slides[0].Order != 2 {
		t.Errorf("explicit layout changed: %+v", p.Slides)
	}
}

func TestPresentationValidation(t *testing.T) {
	tests := []struct {
		name string
		f    DeckFile
	}{
		{"no title", DeckFile{ID: "d"}},
		{"duplicate ids", DeckFile{ID: "d", Title: "T", Slides: []deck.Slide{{ID: "a"}, {ID: "a"}}}},
		{"bad transition", DeckFile{ID: "d", Title: "T", Slides: []deck.Slide{{TransitionType: "spin"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.f.Presentation(); !errors.Is(err, deck.ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "talks", "intro.yml"), introDeck)
	writeFile(t, filepath.Join(root, "talks", "nested", "deep.yaml"), introDeck)
	writeFile(t, filepath.Join(root, "talks", "notes.txt"), "not a deck")
	writeFile(t, filepath.Join(root, "talks", "node_modules", "skip.yml"), introDeck)

	dirFiles, err := Discover([]string{filepath.Join(root, "talks")})
	if err != nil {
		t.Fatalf("Discover dir: %v", err)
	}
	if len(dirFiles) != 2 {
		t.Errorf("dir discovered %v", dirFiles)
	}

	globFiles, err := Discover([]string{filepath.Join(root, "talks", "**", "*.yaml")})
	if err != nil {
		t.Fatalf("Discover glob: %v", err)
	}
	if len(globFiles) != 1 || filepath.Base(globFiles[0]) != "deep.yaml" {
		t.Errorf("glob discovered %v", globFiles)
	}

	both, err := Discover([]string{filepath.Join(root, "talks", "intro.yml"), filepath.Join(root, "talks")})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(both) != 2 {
		t.Errorf("duplicates not removed: %v", both)
	}

	if _, err := Discover([]string{filepath.Join(root, "missing", "*.yml")}); err == nil {
		t.Error("expected error for a pattern matching nothing")
	}
}

func TestImportIntoStore(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := presentation.NewStore(database)

	root := t.TempDir()
	good := filepath.Join(root, "intro.yml")
	bad := filepath.Join(root, "broken.yml")
	writeFile(t, good, introDeck)
	writeFile(t, bad, "title: [unclosed")

	im := New(store, "owner", nil, log.Discard())
	res, err := im.Import(context.Background(), []string{bad, good})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Imported) != 1 || len(res.Failed) != 1 {
		t.Fatalf("imported %d, failed %v", len(res.Imported), res.Failed)
	}
	if _, ok := res.Failed[bad]; !ok {
		t.Errorf("failure not keyed by path: %v", res.Failed)
	}

	p, err := store.Get(context.Background(), "intro")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(p.Slides) != 2 || p.CreatorID() != "owner" {
		t.Errorf("stored %+v", p)
	}

	// Re-importing the same file replaces the deck.
	if _, err := im.Import(context.Background(), []string{good}); err != nil {
		t.Fatalf("re-import: %v", err)
	}
}

func TestImportNeedsOwner(t *testing.T) {
	im := New(nil, "", nil, log.Discard())
	if _, err := im.Import(context.Background(), nil); !errors.Is(err, deck.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestReadSampleDeck(t *testing.T) {
	f, err := ReadFile(filepath.Join("testdata", "decks", "intro.yml"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if f.ID != "intro" {
		t.Errorf("id = %q, want file stem", f.ID)
	}
	p, err := f.Presentation()
	if err != nil {
		t.Fatalf("Presentation: %v", err)
	}
	if len(p.Slides) != 3 || p.Slides[1].ID != "intro/detail" {
		t.Fatalf("slides = %+v", p.Slides)
	}
	if p.Slides[1].TransitionType != deck.TransitionZoom || p.Slides[1].Notes != "Pause here" {
		t.Errorf("detail slide = %+v", p.Slides[1])
	}
	if p.Slides[2].Width != DefaultSlideWidth || p.Slides[2].Order != 2 {
		t.Errorf("bye slide = %+v", p.Slides[2])
	}
	if p.ViewerCountdown == nil || *p.ViewerCountdown != deck.MaxViewerCountdown {
		t.Errorf("countdown = %v, want clamp", p.ViewerCountdown)
	}
	if p.BackgroundType == nil || *p.BackgroundType != deck.BackgroundStars {
		t.Errorf("background = %v", p.BackgroundType)
	}
}
