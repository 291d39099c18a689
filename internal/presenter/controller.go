// Package presenter runs the presentation-mode lifecycle and tracks the
// platform's fullscreen state.
package presenter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/loop"
	"github.com/ziadkadry99/zoomdeck/internal/navigation"
	"github.com/ziadkadry99/zoomdeck/internal/timer"
)

// Settle delays.
const (
	FullscreenDelay = 300 * time.Millisecond
	TimerDelay      = 100 * time.Millisecond
	RefitDelay      = 100 * time.Millisecond
)

// Mode is how a presentation is shown.
type Mode int

const (
	Windowed Mode = iota
	Fullscreen
)

func (m Mode) String() string {
	if m == Fullscreen {
		return "fullscreen"
	}
	return "windowed"
}

// ParseMode accepts "fullscreen" or "windowed".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "fullscreen":
		return Fullscreen, nil
	case "windowed", "":
		return Windowed, nil
	}
	return Windowed, fmt.Errorf("unknown presentation mode %q", s)
}

// Platform is the host's fullscreen capability.
type Platform interface {
	RequestFullscreen() error
	ExitFullscreen() error
	// OnFullscreenChange registers fn for every fullscreen change, whoever
	// caused it. The returned func unregisters.
	OnFullscreenChange(fn func(active bool)) (unsubscribe func())
	// Size reports the current drawable size.
	Size() (width, height float64)
}

// PresenceStore persists whether a live presentation is running.
type PresenceStore interface {
	SetPresenting(on bool)
}

// Options configures a Controller.
type Options struct {
	// Timer is restarted on StartPresenting when TimerEnabled is set.
	Timer        *timer.Timer
	TimerEnabled bool
	Logger       *slog.Logger
}

// Controller coordinates presenting, fullscreen, the timer and re-fits.
type Controller struct {
	sched    loop.Scheduler
	nav      *navigation.Navigator
	platform Platform
	store    PresenceStore
	opts     Options
	logger   *slog.Logger

	presenting bool
	fullscreen bool

	pendingFullscreen loop.Cancel
	pendingTimer      loop.Cancel
	pendingRefit      loop.Cancel
	unsubscribe       func()
}

// New creates a Controller. Fullscreen changes are delivered through the
// loop regardless of which goroutine the platform reports them on.
func New(sched loop.Scheduler, nav *navigation.Navigator, platform Platform, store PresenceStore, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.WithComponent("presenter")
	}
	c := &Controller{
		sched:    sched,
		nav:      nav,
		platform: platform,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
	if platform != nil {
		c.unsubscribe = platform.OnFullscreenChange(func(active bool) {
			sched.Post(func() { c.fullscreenChanged(active) })
		})
	}
	nav.SetFullscreenExiter(c)
	return c
}

// Presenting reports whether presentation mode is on.
func (c *Controller) Presenting() bool { return c.presenting }

// Fullscreen reports the last fullscreen state the platform signalled.
func (c *Controller) Fullscreen() bool { return c.fullscreen }

// StartPresenting enters presentation mode.
func (c *Controller) StartPresenting(mode Mode) {
	c.presenting = true
	c.nav.SetPresenting(true)
	if c.store != nil {
		c.store.SetPresenting(true)
	}
	c.nav.Refit()
	c.logger.Info("presentation started", "mode", mode.String())

	if mode == Fullscreen {
		cancel(&c.pendingFullscreen)
		c.pendingFullscreen = c.sched.AfterFunc(FullscreenDelay, func() {
			c.pendingFullscreen = nil
			if c.presenting {
				c.requestFullscreen()
			}
		})
	}
	if c.opts.TimerEnabled && c.opts.Timer != nil {
		cancel(&c.pendingTimer)
		c.pendingTimer = c.sched.AfterFunc(TimerDelay, func() {
			c.pendingTimer = nil
			c.opts.Timer.Restart()
		})
	}
}

// StopPresenting leaves presentation mode, pausing the timer and leaving fullscreen.
func (c *Controller) StopPresenting() {
	cancel(&c.pendingFullscreen)
	cancel(&c.pendingTimer)
	c.presenting = false
	c.nav.SetPresenting(false)
	if c.store != nil {
		c.store.SetPresenting(false)
	}
	if t := c.opts.Timer; t != nil && t.Running() {
		t.Pause()
	}
	if c.fullscreen {
		c.ExitFullscreen()
	}
	c.nav.Refit()
	c.logger.Info("presentation stopped")
}

// ToggleFullscreen requests or exits fullscreen immediately.
func (c *Controller) ToggleFullscreen() {
	if c.fullscreen {
		c.ExitFullscreen()
		return
	}
	c.requestFullscreen()
}

// ExitFullscreen asks the platform to leave fullscreen. Presentation mode is unaffected.
func (c *Controller) ExitFullscreen() {
	if c.platform == nil {
		return
	}
	if err := c.platform.ExitFullscreen(); err != nil {
		c.logger.Warn("exit fullscreen failed", "err", err)
	}
}

func (c *Controller) requestFullscreen() {
	if c.platform == nil {
		c.logger.Warn("fullscreen unsupported, staying windowed")
		return
	}
	if err := c.platform.RequestFullscreen(); err != nil {
		c.logger.Warn("fullscreen request rejected, staying windowed", "err", err)
	}
}

func (c *Controller) fullscreenChanged(active bool) {
	c.fullscreen = active
	c.nav.SetFullscreenActive(active)
	cancel(&c.pendingRefit)
	c.pendingRefit = c.sched.AfterFunc(RefitDelay, func() {
		c.pendingRefit = nil
		c.Resize()
	})
}

// Resize reads the platform size and re-fits the current slide.
func (c *Controller) Resize() {
	if c.platform != nil {
		w, h := c.platform.Size()
		c.nav.SetViewportSize(w, h)
		if t := c.opts.Timer; t != nil {
			t.SetViewport(w, h)
		}
	}
	c.nav.Refit()
}

// Close cancels pending delays and stops listening for fullscreen changes.
func (c *Controller) Close() {
	cancel(&c.pendingFullscreen)
	cancel(&c.pendingTimer)
	cancel(&c.pendingRefit)
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func cancel(h *loop.Cancel) {
	if *h != nil {
		(*h)()
		*h = nil
	}
}
