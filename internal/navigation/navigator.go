// Package navigation owns which slide is on screen and sequences every move
// through a single transition lock.
//
// A Navigator is not safe for concurrent use; it must only be driven from
// the session's loop.
package navigation

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/geometry"
	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/loop"
	"github.com/ziadkadry99/zoomdeck/internal/viewport"
)

// Transition window bounds.
const (
	DefaultTransitionSpeed = 1500 * time.Millisecond
	MinTransitionSpeed     = 500 * time.Millisecond
	MaxTransitionSpeed     = 3000 * time.Millisecond

	// FixedViewerWidth and FixedViewerHeight size the canvas for viewers in 1920x1080 mode.
	FixedViewerWidth  = 1920
	FixedViewerHeight = 1080

	// DefaultEasing is the transition curve when none is configured.
	DefaultEasing = "ease-in-out"
)

// Phase is the coarse navigation state.
type Phase int

const (
	Idle Phase = iota
	Viewing
	Transitioning
)

func (p Phase) String() string {
	switch p {
	case Viewing:
		return "viewing"
	case Transitioning:
		return "transitioning"
	default:
		return "idle"
	}
}

// Publisher persists presenter navigation to the remote store. ack runs on
// the loop once the store answered, with the acknowledged snapshot or an error.
type Publisher interface {
	PublishSlide(slideID string, ack func(*deck.Presentation, error))
}

// FullscreenExiter leaves fullscreen on request.
type FullscreenExiter interface {
	ExitFullscreen()
}

// Options configures a Navigator.
type Options struct {
	UserID          string
	TransitionSpeed time.Duration
	// Easing names the CSS-style curve renderers animate transitions with.
	Easing         string
	ZoomDepth      float64
	EnableRotation bool
	ViewportWidth  float64
	ViewportHeight float64
	// Rand returns a uniform sample in [0,1) for the rotation effect.
	Rand     func() float64
	Logger   *slog.Logger
	OnChange func(State)
}

// State is a read-only copy of the navigator for renderers and tests.
type State struct {
	Phase          Phase
	CurrentSlideID string
	From, To       string
	Transitioning  bool
	// TransitionSpeed and Easing describe how a renderer animates From to To.
	TransitionSpeed time.Duration
	Easing          string
	Overview        bool
	Presenting      bool
	Fullscreen      bool
	IsPresenter     bool
	Viewport        viewport.State
	Settings        deck.Settings
}

// Navigator is the navigation state machine.
type Navigator struct {
	sched     loop.Scheduler
	opts      Options
	logger    *slog.Logger
	publisher Publisher
	fs        FullscreenExiter

	snapshot *deck.Presentation
	settings deck.Settings
	vp       viewport.State

	current       string
	from, to      string
	transitioning bool
	overview      bool
	presenting    bool
	fullscreen    bool

	endTransition loop.Cancel
}

// New creates a Navigator bound to sched.
func New(sched loop.Scheduler, opts Options) *Navigator {
	if opts.TransitionSpeed == 0 {
		opts.TransitionSpeed = DefaultTransitionSpeed
	}
	opts.TransitionSpeed = min(max(opts.TransitionSpeed, MinTransitionSpeed), MaxTransitionSpeed)
	if opts.Easing == "" {
		opts.Easing = DefaultEasing
	}
	if opts.ZoomDepth <= 0 {
		opts.ZoomDepth = 1
	}
	if opts.ViewportWidth <= 0 || opts.ViewportHeight <= 0 {
		opts.ViewportWidth, opts.ViewportHeight = 600, 600
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithComponent("navigation")
	}
	return &Navigator{
		sched:    sched,
		opts:     opts,
		logger:   logger,
		settings: deck.DefaultSettings(),
		vp:       viewport.New(),
	}
}

// SetPublisher wires the component that persists presenter moves.
func (n *Navigator) SetPublisher(p Publisher) { n.publisher = p }

// SetFullscreenExiter wires the component Escape uses to leave fullscreen.
func (n *Navigator) SetFullscreenExiter(f FullscreenExiter) { n.fs = f }

// Snapshot returns the latest presentation the navigator knows about.
func (n *Navigator) Snapshot() *deck.Presentation { return n.snapshot }

// SetSnapshot replaces the local presentation snapshot.
func (n *Navigator) SetSnapshot(p *deck.Presentation) {
	n.snapshot = p
	n.notify()
}

// SetSettings replaces the mirrored viewer settings.
func (n *Navigator) SetSettings(s deck.Settings) {
	n.settings = s
	n.notify()
}

// Settings returns the mirrored viewer settings.
func (n *Navigator) Settings() deck.Settings { return n.settings }

// IsPresenter reports whether the local user may author navigation.
func (n *Navigator) IsPresenter() bool { return n.snapshot.IsPresenter(n.opts.UserID) }

// UserID returns the local user id.
func (n *Navigator) UserID() string { return n.opts.UserID }

// Current returns the id of the slide in focus.
func (n *Navigator) Current() string { return n.current }

// Transitioning reports whether the navigation lock is held.
func (n *Navigator) Transitioning() bool { return n.transitioning }

// Overview reports whether the overview is showing.
func (n *Navigator) Overview() bool { return n.overview }

// Viewport returns the current camera.
func (n *Navigator) Viewport() viewport.State { return n.vp }

// State returns a copy of the navigator state.
func (n *Navigator) State() State {
	phase := Idle
	switch {
	case n.transitioning:
		phase = Transitioning
	case n.current != "":
		phase = Viewing
	}
	return State{
		Phase:           phase,
		CurrentSlideID:  n.current,
		From:            n.from,
		To:              n.to,
		Transitioning:   n.transitioning,
		TransitionSpeed: n.opts.TransitionSpeed,
		Easing:          n.opts.Easing,
		Overview:        n.overview,
		Presenting:      n.presenting,
		Fullscreen:      n.fullscreen,
		IsPresenter:     n.IsPresenter(),
		Viewport:        n.vp,
		Settings:        n.settings,
	}
}

// GoToSlide moves to target. It returns false when the move was dropped
// because a transition is in progress or the slide is unknown.
func (n *Navigator) GoToSlide(target string) bool {
	if n.transitioning {
		n.logger.Debug("navigation dropped during transition", "target", target)
		return false
	}
	slide, ok := n.snapshot.Slide(target)
	if !ok {
		n.logger.Debug("navigation to unknown slide ignored", "target", target)
		return false
	}

	n.transitioning = true
	n.from, n.to = n.current, target
	n.current = target
	n.overview = false
	n.fit(slide)

	if n.IsPresenter() && n.publisher != nil {
		n.publisher.PublishSlide(target, func(p *deck.Presentation, err error) {
			n.acknowledge(target, p, err)
		})
	}

	n.endTransition = n.sched.AfterFunc(n.opts.TransitionSpeed, func() {
		n.transitioning = false
		n.endTransition = nil
		n.notify()
	})
	n.notify()
	return true
}

func (n *Navigator) acknowledge(target string, p *deck.Presentation, err error) {
	if err != nil {
		n.logger.Warn("slide change not persisted, next poll will reconcile", "target", target, "err", err)
		return
	}
	if p != nil {
		n.snapshot = p
	}
	// The ack may carry moved geometry; reframe if we are still there.
	if n.current == target && !n.overview {
		if slide, ok := n.snapshot.Slide(target); ok {
			n.fit(slide)
		}
	}
	n.notify()
}

// Next moves to the following slide by order. No-op on the last slide.
func (n *Navigator) Next() bool {
	if n.transitioning {
		return false
	}
	ordered := n.snapshot.Ordered()
	i := deck.IndexOf(ordered, n.current)
	if i+1 >= len(ordered) {
		return false
	}
	return n.GoToSlide(ordered[i+1].ID)
}

// Previous moves to the preceding slide by order. No-op on the first slide.
func (n *Navigator) Previous() bool {
	if n.transitioning {
		return false
	}
	ordered := n.snapshot.Ordered()
	i := deck.IndexOf(ordered, n.current)
	if i <= 0 {
		return false
	}
	return n.GoToSlide(ordered[i-1].ID)
}

// First moves to the lowest-ordered slide.
func (n *Navigator) First() bool {
	ordered := n.snapshot.Ordered()
	if len(ordered) == 0 {
		return false
	}
	return n.GoToSlide(ordered[0].ID)
}

// Follow frames a slide chosen by someone else without publishing it.
// It is skipped while a local transition is in progress.
func (n *Navigator) Follow(slideID string) bool {
	if n.transitioning {
		return false
	}
	slide, ok := n.snapshot.Slide(slideID)
	if !ok {
		return false
	}
	n.current = slideID
	if !n.overview {
		n.fit(slide)
	}
	n.notify()
	return true
}

// EnterOverview frames every slide at once.
func (n *Navigator) EnterOverview() bool {
	if n.snapshot == nil || len(n.snapshot.Slides) == 0 {
		return false
	}
	vw, vh := n.viewportSize()
	t, ok := geometry.FitAll(deck.Rects(n.snapshot.Slides), vw, vh, geometry.PaddingOverview)
	if !ok {
		return false
	}
	n.vp = n.vp.Apply(t)
	n.overview = true
	n.notify()
	return true
}

// ExitOverview leaves the overview and reframes the current slide.
func (n *Navigator) ExitOverview() {
	n.overview = false
	n.Refit()
}

// ToggleOverview enters or leaves the overview.
func (n *Navigator) ToggleOverview() {
	if n.overview {
		n.ExitOverview()
		return
	}
	n.EnterOverview()
}

// SelectFromOverview navigates to a slide clicked in the overview.
func (n *Navigator) SelectFromOverview(slideID string) bool {
	return n.GoToSlide(slideID)
}

// Escape leaves the overview if it is showing, otherwise leaves fullscreen.
// It never stops presentation mode.
func (n *Navigator) Escape() {
	switch {
	case n.overview:
		n.ExitOverview()
	case n.fullscreen && n.fs != nil:
		n.fs.ExitFullscreen()
	}
}

// Refit frames the current slide again, e.g. after a resize.
func (n *Navigator) Refit() {
	if slide, ok := n.snapshot.Slide(n.current); ok && !n.overview {
		n.fit(slide)
	}
	n.notify()
}

// ZoomIn applies a manual zoom step.
func (n *Navigator) ZoomIn() { n.vp = n.vp.ZoomIn(); n.notify() }

// ZoomOut applies a manual zoom step.
func (n *Navigator) ZoomOut() { n.vp = n.vp.ZoomOut(); n.notify() }

// FontIn enlarges slide text.
func (n *Navigator) FontIn() { n.vp = n.vp.FontIn(); n.notify() }

// FontOut shrinks slide text.
func (n *Navigator) FontOut() { n.vp = n.vp.FontOut(); n.notify() }

// PanBy drags the canvas by a screen-space delta.
func (n *Navigator) PanBy(dx, dy float64) { n.vp = n.vp.PanBy(dx, dy); n.notify() }

// SetViewportSize records new canvas dimensions. Callers refit afterwards.
func (n *Navigator) SetViewportSize(w, h float64) {
	if w > 0 && h > 0 {
		n.opts.ViewportWidth, n.opts.ViewportHeight = w, h
	}
}

// SetPresenting records presentation mode.
func (n *Navigator) SetPresenting(on bool) { n.presenting = on; n.notify() }

// Presenting reports presentation mode.
func (n *Navigator) Presenting() bool { return n.presenting }

// SetFullscreenActive records the platform's fullscreen state.
func (n *Navigator) SetFullscreenActive(on bool) { n.fullscreen = on; n.notify() }

// Fullscreen reports the platform's fullscreen state.
func (n *Navigator) Fullscreen() bool { return n.fullscreen }

// RingVisible reports whether the highlight ring should surround slideID.
func (n *Navigator) RingVisible(slideID string) bool {
	return n.settings.ShowSlideRing && !n.overview && slideID != "" && slideID == n.current
}

// Padding returns the fit padding for the current mode.
func (n *Navigator) Padding() float64 {
	switch {
	case n.fixedViewer():
		return geometry.PaddingFixedSize
	case n.presenting || n.fullscreen:
		return geometry.PaddingPresenting
	default:
		return geometry.PaddingWindowed
	}
}

// Minimap returns slide thumbnails and the viewport indicator as canvas fractions.
func (n *Navigator) Minimap() (slides []geometry.Rect, indicator geometry.Rect) {
	if n.snapshot != nil {
		for _, s := range n.snapshot.Slides {
			slides = append(slides, geometry.WorldToMinimap(s.Rect(), geometry.CanvasSize))
		}
	}
	vw, vh := n.viewportSize()
	return slides, geometry.ViewportIndicator(n.vp.Transform(), vw, vh, geometry.CanvasSize)
}

// PathPreview returns slide centers in traversal order.
func (n *Navigator) PathPreview() []geometry.Point {
	return geometry.Path(deck.Rects(n.snapshot.Ordered()))
}

// Close cancels the pending transition timer.
func (n *Navigator) Close() {
	if n.endTransition != nil {
		n.endTransition()
		n.endTransition = nil
	}
}

func (n *Navigator) fixedViewer() bool {
	return n.settings.ViewerSize == deck.ViewerFixedHD && !n.IsPresenter()
}

func (n *Navigator) viewportSize() (float64, float64) {
	if n.fixedViewer() {
		return FixedViewerWidth, FixedViewerHeight
	}
	return n.opts.ViewportWidth, n.opts.ViewportHeight
}

func (n *Navigator) fit(slide deck.Slide) {
	vw, vh := n.viewportSize()
	t := geometry.FitSlide(slide.Rect(), vw, vh, n.Padding(), n.opts.ZoomDepth)
	n.vp = n.vp.Apply(t)
	if n.opts.EnableRotation {
		n.vp = n.vp.WithRotation(viewport.Rotation(true, n.opts.Rand()))
	}
	n.logger.Debug("framed slide", "slide", slide.ID, "zoom", t.Zoom, "pan_x", t.PanX, "pan_y", t.PanY)
}

func (n *Navigator) notify() {
	if n.opts.OnChange != nil {
		n.opts.OnChange(n.State())
	}
}
