// Package importer loads YAML deck files into the presentation store.
package importer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"gopkg.in/yaml.v3"
)

// Slides without a size get the canvas default.
const (
	DefaultSlideWidth  = 800
	DefaultSlideHeight = 600
	autoLayoutGap      = 200
)

// DeckFile is the on-disk deck format.
//
//	id: intro-talk
//	title: Introduction
//	public: true
//	settings:
//	  background: stars
//	  viewer_countdown: 60
//	slides:
//	  - id: hello
//	    title: Hello
//	    x: 0
//	    y: 0
type DeckFile struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Public      bool          `yaml:"public"`
	Settings    *DeckSettings `yaml:"settings"`
	Slides      []deck.Slide  `yaml:"slides"`
}

// DeckSettings are the optional viewer settings of a deck file.
type DeckSettings struct {
	ShowSlideRing   *bool                 `yaml:"show_slide_ring"`
	ViewerSize      *deck.ViewerSize      `yaml:"viewer_size"`
	Background      *deck.BackgroundStyle `yaml:"background"`
	ViewerCountdown *int                  `yaml:"viewer_countdown"`
	ViewerAnimation *deck.ViewerAnimation `yaml:"viewer_animation"`
}

// Parse decodes a deck file. Unknown fields are rejected.
func Parse(data []byte) (*DeckFile, error) {
	var f DeckFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing deck: %w", err)
	}
	return &f, nil
}

// ReadFile parses the deck at path. A deck without an id takes the file
// name without extension.
func ReadFile(path string) (*DeckFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deck %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.ID == "" {
		f.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Presentation converts the deck into the store model. Slide ids are
// scoped to the deck so two decks may reuse the same short ids. Slides
// without a size get the default size. When no slide sets an order the
// file order is used, and when none has a position they are laid out left
// to right in order.
func (f *DeckFile) Presentation() (*deck.Presentation, error) {
	if strings.TrimSpace(f.Title) == "" {
		return nil, fmt.Errorf("%w: deck %q has no title", deck.ErrInvalid, f.ID)
	}

	p := &deck.Presentation{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		IsPublic:    f.Public,
		Slides:      make([]deck.Slide, len(f.Slides)),
	}
	if s := f.Settings; s != nil {
		p.ShowSlideRing = s.ShowSlideRing
		p.ViewerSize = s.ViewerSize
		p.BackgroundType = s.Background
		p.ViewerAnimation = s.ViewerAnimation
		if s.ViewerCountdown != nil {
			p.ViewerCountdown = deck.Ptr(deck.ClampCountdown(*s.ViewerCountdown))
		}
	}

	seen := make(map[string]bool, len(f.Slides))
	positioned, ordered := false, false
	for i, sl := range f.Slides {
		if sl.ID == "" {
			sl.ID = fmt.Sprintf("slide-%d", i+1)
		}
		if seen[sl.ID] {
			return nil, fmt.Errorf("%w: deck %q repeats slide id %q", deck.ErrInvalid, f.ID, sl.ID)
		}
		seen[sl.ID] = true
		sl.ID = f.ID + "/" + sl.ID

		if sl.Width == 0 {
			sl.Width = DefaultSlideWidth
		}
		if sl.Height == 0 {
			sl.Height = DefaultSlideHeight
		}
		if sl.X != 0 || sl.Y != 0 {
			positioned = true
		}
		if sl.Order != 0 {
			ordered = true
		}
		if !sl.TransitionType.Valid() {
			return nil, fmt.Errorf("%w: slide %q has unknown transition %q", deck.ErrInvalid, sl.ID, sl.TransitionType)
		}
		p.Slides[i] = sl
	}

	if !ordered {
		for i := range p.Slides {
			p.Slides[i].Order = i
		}
	}
	if !positioned {
		idx := make([]int, len(p.Slides))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return p.Slides[idx[a]].Order < p.Slides[idx[b]].Order })
		x := 0.0
		for _, i := range idx {
			p.Slides[i].X = x
			x += p.Slides[i].Width + autoLayoutGap
		}
	}
	return p, nil
}
