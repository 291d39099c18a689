// Package deck defines the presentation data the engine reads from the
// remote store and the patches it writes back.
package deck

import (
	"errors"
	"sort"

	"github.com/ziadkadry99/zoomdeck/internal/geometry"
)

var (
	ErrNotFound     = errors.New("presentation not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid patch")
)

// Slide is one absolutely positioned frame on the world canvas.
type Slide struct {
	ID              string         `json:"id" yaml:"id"`
	Title           string         `json:"title" yaml:"title"`
	Content         string         `json:"content" yaml:"content"`
	X               float64        `json:"x" yaml:"x"`
	Y               float64        `json:"y" yaml:"y"`
	Width           float64        `json:"width" yaml:"width"`
	Height          float64        `json:"height" yaml:"height"`
	Order           int            `json:"order" yaml:"order"`
	BackgroundColor string         `json:"backgroundColor" yaml:"background_color"`
	TextColor       string         `json:"textColor" yaml:"text_color"`
	Notes           string         `json:"notes,omitempty" yaml:"notes"`
	TransitionType  TransitionType `json:"transitionType,omitempty" yaml:"transition_type"`
}

// Rect returns the slide's world rectangle.
func (s Slide) Rect() geometry.Rect {
	return geometry.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// UserRef identifies a user in the envelope.
type UserRef struct {
	ID string `json:"id"`
}

// WriteTag identifies the session and sequence number of the last write.
type WriteTag struct {
	Session string `json:"session"`
	Seq     uint64 `json:"seq"`
}

// Presentation is the remote-owned aggregate. Optional settings are pointers:
// nil means the store did not send the field.
type Presentation struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	CurrentSlideID  string           `json:"currentSlideId"`
	PresenterUserID string           `json:"presenterUserId"`
	IsPublic        bool             `json:"isPublic"`
	IsPresenting    bool             `json:"isPresenting"`
	Slides          []Slide          `json:"slides"`
	ShowSlideRing   *bool            `json:"showSlideRing,omitempty"`
	ViewerSize      *ViewerSize      `json:"viewerSize,omitempty"`
	BackgroundType  *BackgroundStyle `json:"backgroundType,omitempty"`
	ViewerCountdown *int             `json:"viewerCountdown,omitempty"`
	ViewerAnimation *ViewerAnimation `json:"viewerAnimation,omitempty"`
	CreatedBy       *UserRef         `json:"createdBy,omitempty"`
	CreatedByID     string           `json:"createdById,omitempty"`
	// Writer tags the last write that moved CurrentSlideID.
	Writer *WriteTag `json:"writer,omitempty"`
}

// Envelope is the body of every GET and PATCH response.
type Envelope struct {
	Presentation *Presentation `json:"presentation,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// CreatorID returns the creator's user id from whichever field carries it.
func (p *Presentation) CreatorID() string {
	if p.CreatedBy != nil && p.CreatedBy.ID != "" {
		return p.CreatedBy.ID
	}
	return p.CreatedByID
}

// IsPresenter reports whether userID may author navigation on p.
func (p *Presentation) IsPresenter(userID string) bool {
	if p == nil || userID == "" {
		return false
	}
	return userID == p.CreatorID() || userID == p.PresenterUserID
}

// Slide looks up a slide by id.
func (p *Presentation) Slide(id string) (Slide, bool) {
	if p == nil || id == "" {
		return Slide{}, false
	}
	for _, s := range p.Slides {
		if s.ID == id {
			return s, true
		}
	}
	return Slide{}, false
}

// Ordered returns the slides sorted by Order ascending. Ties keep fetch order.
func (p *Presentation) Ordered() []Slide {
	if p == nil {
		return nil
	}
	return Sorted(p.Slides)
}

// Sorted returns a copy of slides sorted by Order, stable on ties.
func Sorted(slides []Slide) []Slide {
	out := make([]Slide, len(slides))
	copy(out, slides)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Rects returns the world rectangles of slides in the order given.
func Rects(slides []Slide) []geometry.Rect {
	out := make([]geometry.Rect, len(slides))
	for i, s := range slides {
		out[i] = s.Rect()
	}
	return out
}

// IndexOf returns the position of id in slides, or -1.
func IndexOf(slides []Slide, id string) int {
	for i, s := range slides {
		if s.ID == id {
			return i
		}
	}
	return -1
}
