// Package timer implements the presenter countdown and its draggable widget.
//
// A Timer must only be used from the session loop.
package timer

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ziadkadry99/zoomdeck/internal/geometry"
	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/loop"
)

const (
	// RingRadius is the radius of the circular progress indicator.
	RingRadius = 40.0
	// CriticalSeconds is the fixed critical threshold.
	CriticalSeconds = 60

	DefaultWarningMinutes = 5
	DefaultWidgetWidth    = 150.0
	DefaultWidgetHeight   = 120.0
)

// Circumference of the progress ring.
var Circumference = 2 * math.Pi * RingRadius

// DefaultPosition is where the widget starts in screen space.
var DefaultPosition = geometry.Point{X: 20, Y: 100}

// Zone is the urgency band derived from the remaining time.
type Zone int

const (
	ZoneNormal Zone = iota
	ZoneWarning
	ZoneCritical
)

func (z Zone) String() string {
	switch z {
	case ZoneWarning:
		return "warning"
	case ZoneCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Options configures a Timer.
type Options struct {
	Minutes                 int
	Seconds                 int
	WarningThresholdMinutes int
	WidgetWidth             float64
	WidgetHeight            float64
	ViewportWidth           float64
	ViewportHeight          float64
	Logger                  *slog.Logger
	OnChange                func(State)
	OnExpire                func()
}

// State is a snapshot for renderers.
type State struct {
	Remaining int
	Initial   int
	Running   bool
	Zone      Zone
	Progress  float64
	Position  geometry.Point
	Dragging  bool
}

// Timer is the countdown state machine.
type Timer struct {
	sched  loop.Scheduler
	opts   Options
	logger *slog.Logger

	configured int
	remaining  int
	initial    int
	running    bool
	stopTick   loop.Cancel

	pos      geometry.Point
	grab     geometry.Point
	dragging bool
}

// New creates a stopped Timer holding the configured duration.
func New(sched loop.Scheduler, opts Options) *Timer {
	if opts.WarningThresholdMinutes <= 0 {
		opts.WarningThresholdMinutes = DefaultWarningMinutes
	}
	if opts.WidgetWidth <= 0 {
		opts.WidgetWidth = DefaultWidgetWidth
	}
	if opts.WidgetHeight <= 0 {
		opts.WidgetHeight = DefaultWidgetHeight
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithComponent("timer")
	}
	t := &Timer{sched: sched, opts: opts, logger: logger, pos: DefaultPosition}
	t.configured = configuredSeconds(opts.Minutes, opts.Seconds)
	t.remaining = t.configured
	t.initial = t.configured
	t.pos = t.clamp(t.pos)
	return t
}

func configuredSeconds(minutes, seconds int) int {
	return max(0, minutes)*60 + min(max(0, seconds), 59)
}

// Configure changes the configured duration. A stopped timer adopts it immediately.
func (t *Timer) Configure(minutes, seconds int) {
	t.configured = configuredSeconds(minutes, seconds)
	if !t.running {
		t.remaining = t.configured
		t.initial = t.configured
	}
	t.notify()
}

// Start runs the countdown. Starting from zero reloads the configured duration.
func (t *Timer) Start() {
	if t.running {
		return
	}
	if t.remaining == 0 {
		t.remaining = t.configured
		t.initial = t.configured
	} else if t.initial == 0 {
		t.initial = t.remaining
	}
	if t.remaining == 0 {
		return
	}
	t.running = true
	t.stopTick = t.sched.Every(time.Second, t.tick)
	t.logger.Debug("timer started", "remaining", t.remaining)
	t.notify()
}

// Restart reloads the configured duration and starts.
func (t *Timer) Restart() {
	t.Reset()
	t.Start()
}

// Pause stops the countdown without resetting it.
func (t *Timer) Pause() {
	if !t.running {
		return
	}
	t.running = false
	t.cancelTick()
	t.notify()
}

// Reset stops the countdown and reloads the configured duration.
func (t *Timer) Reset() {
	t.running = false
	t.cancelTick()
	t.remaining = t.configured
	t.initial = t.configured
	t.notify()
}

// Toggle starts a stopped timer and pauses a running one.
func (t *Timer) Toggle() {
	if t.running {
		t.Pause()
		return
	}
	t.Start()
}

func (t *Timer) tick() {
	if !t.running || t.remaining <= 0 {
		return
	}
	t.remaining--
	if t.remaining == 0 {
		t.running = false
		t.cancelTick()
		t.logger.Info("timer expired")
		t.notify()
		if t.opts.OnExpire != nil {
			t.opts.OnExpire()
		}
		return
	}
	t.notify()
}

func (t *Timer) cancelTick() {
	if t.stopTick != nil {
		t.stopTick()
		t.stopTick = nil
	}
}

// Close cancels the tick handle.
func (t *Timer) Close() {
	t.running = false
	t.cancelTick()
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int { return t.remaining }

// Initial returns the seconds the current countdown started from.
func (t *Timer) Initial() int { return t.initial }

// Running reports whether the countdown is ticking.
func (t *Timer) Running() bool { return t.running }

// IsWarningZone reports 0 < remaining <= warning threshold.
func (t *Timer) IsWarningZone() bool {
	return t.remaining > 0 && t.remaining <= t.opts.WarningThresholdMinutes*60
}

// IsCriticalZone reports 0 < remaining <= 60.
func (t *Timer) IsCriticalZone() bool {
	return t.remaining > 0 && t.remaining <= CriticalSeconds
}

// Zone returns the most urgent zone that applies.
func (t *Timer) Zone() Zone {
	switch {
	case t.IsCriticalZone():
		return ZoneCritical
	case t.IsWarningZone():
		return ZoneWarning
	default:
		return ZoneNormal
	}
}

// Progress returns the elapsed fraction of the countdown in [0,1].
func (t *Timer) Progress() float64 {
	if t.initial <= 0 {
		return 0
	}
	return math.Min(1, math.Max(0, float64(t.initial-t.remaining)/float64(t.initial)))
}

// ProgressOffset is the stroke offset that draws Progress on the ring.
func (t *Timer) ProgressOffset() float64 {
	return Circumference * (1 - t.Progress())
}

// Format renders the remaining time as mm:ss.
func (t *Timer) Format() string {
	return Format(t.remaining)
}

// Format renders seconds as mm:ss.
func Format(seconds int) string {
	seconds = max(0, seconds)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Position returns the widget's top-left corner in screen space.
func (t *Timer) Position() geometry.Point { return t.pos }

// SetViewport records the screen size and pulls the widget back inside it.
func (t *Timer) SetViewport(w, h float64) {
	t.opts.ViewportWidth, t.opts.ViewportHeight = w, h
	t.pos = t.clamp(t.pos)
	t.notify()
}

// Press starts a drag at pointer p.
func (t *Timer) Press(p geometry.Point) {
	t.dragging = true
	t.grab = geometry.Point{X: p.X - t.pos.X, Y: p.Y - t.pos.Y}
}

// Move drags the widget so the grab point follows p.
func (t *Timer) Move(p geometry.Point) {
	if !t.dragging {
		return
	}
	t.pos = t.clamp(geometry.Point{X: p.X - t.grab.X, Y: p.Y - t.grab.Y})
	t.notify()
}

// Release ends the drag.
func (t *Timer) Release() {
	t.dragging = false
}

// Dragging reports whether a drag is in progress.
func (t *Timer) Dragging() bool { return t.dragging }

func (t *Timer) clamp(p geometry.Point) geometry.Point {
	if t.opts.ViewportWidth <= 0 || t.opts.ViewportHeight <= 0 {
		return p
	}
	maxX := math.Max(0, t.opts.ViewportWidth-t.opts.WidgetWidth)
	maxY := math.Max(0, t.opts.ViewportHeight-t.opts.WidgetHeight)
	return geometry.Point{
		X: math.Min(math.Max(p.X, 0), maxX),
		Y: math.Min(math.Max(p.Y, 0), maxY),
	}
}

// State returns a snapshot of the timer.
func (t *Timer) State() State {
	return State{
		Remaining: t.remaining,
		Initial:   t.initial,
		Running:   t.running,
		Zone:      t.Zone(),
		Progress:  t.Progress(),
		Position:  t.pos,
		Dragging:  t.dragging,
	}
}

func (t *Timer) notify() {
	if t.opts.OnChange != nil {
		t.opts.OnChange(t.State())
	}
}
