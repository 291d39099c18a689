// Package session assembles one viewing or presenting session: navigation,
// sync, timer, presentation mode and input, all driven from a single loop.
package session

import (
	"log/slog"
	"time"

	"github.com/ziadkadry99/zoomdeck/internal/config"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/input"
	"github.com/ziadkadry99/zoomdeck/internal/livesync"
	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/loop"
	"github.com/ziadkadry99/zoomdeck/internal/navigation"
	"github.com/ziadkadry99/zoomdeck/internal/presenter"
	"github.com/ziadkadry99/zoomdeck/internal/timer"
)

const (
	// IdleHideDelay hides controls after the pointer stops moving.
	IdleHideDelay = 3 * time.Second
	// StreamingFullscreenDelay is the settle time before a streaming session goes fullscreen.
	StreamingFullscreenDelay = 500 * time.Millisecond
)

// Options configures a Session.
type Options struct {
	PresentationID string
	Config         *config.Config
	Store          livesync.RemoteStore
	Platform       presenter.Platform
	Notifier       livesync.Notifier
	// Rand feeds the rotation effect; nil uses math/rand.
	Rand func() float64
	// Streaming keeps controls hidden and enters fullscreen on start.
	Streaming  bool
	Logger     *slog.Logger
	OnChange   func(View)
	OnNotFound func()
}

// View is everything a renderer needs for one frame.
type View struct {
	Presentation    *deck.Presentation
	Nav             navigation.State
	Timer           timer.State
	TimerVisible    bool
	Minimap         bool
	PathPreview     bool
	ControlsVisible bool
	Countdown       int
	NotFound        bool
}

// Session is a running viewer or presenter.
type Session struct {
	sched  loop.Scheduler
	opts   Options
	cfg    *config.Config
	logger *slog.Logger

	Nav       *navigation.Navigator
	Sync      *livesync.Client
	Timer     *timer.Timer
	Presenter *presenter.Controller
	Input     *input.Dispatcher

	ready       bool
	started     bool
	minimap     bool
	pathPreview bool
	notFound    bool

	controlsVisible bool
	hideControls    loop.Cancel
	streamFS        loop.Cancel

	countdown        int
	countdownSetting int
	countdownSeen    bool
	stopCountdown    loop.Cancel
}

// New builds a session on sched. Nothing happens until Start.
func New(sched loop.Scheduler, opts Options) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithComponent("session")
	}
	s := &Session{
		sched:           sched,
		opts:            opts,
		cfg:             cfg,
		logger:          logger.With("presentation", opts.PresentationID),
		minimap:         true,
		controlsVisible: !opts.Streaming,
	}

	vw, vh := float64(cfg.Viewport.Width), float64(cfg.Viewport.Height)
	if opts.Platform != nil {
		if w, h := opts.Platform.Size(); w > 0 && h > 0 {
			vw, vh = w, h
		}
	}

	s.Nav = navigation.New(sched, navigation.Options{
		UserID:          cfg.UserID,
		TransitionSpeed: cfg.TransitionSpeed(),
		Easing:          string(cfg.Navigation.TransitionEasing),
		ZoomDepth:       cfg.Navigation.ZoomDepth,
		EnableRotation:  cfg.Navigation.EnableRotation,
		ViewportWidth:   vw,
		ViewportHeight:  vh,
		Rand:            opts.Rand,
		Logger:          logger.With("component", "navigation"),
		OnChange:        func(navigation.State) { s.emit() },
	})
	s.Timer = timer.New(sched, timer.Options{
		Minutes:                 cfg.Timer.Minutes,
		Seconds:                 cfg.Timer.Seconds,
		WarningThresholdMinutes: cfg.Timer.WarningThresholdMinutes,
		WidgetWidth:             float64(cfg.Timer.WidgetWidth),
		WidgetHeight:            float64(cfg.Timer.WidgetHeight),
		ViewportWidth:           vw,
		ViewportHeight:          vh,
		Logger:                  logger.With("component", "timer"),
		OnChange:                func(timer.State) { s.emit() },
		OnExpire: func() {
			s.notify(livesync.LevelInfo, "Time is up")
		},
	})
	s.Sync = livesync.New(sched, opts.Store, s.Nav, livesync.Options{
		PresentationID: opts.PresentationID,
		PollInterval:   cfg.PollInterval(),
		RequestTimeout: cfg.RequestTimeout(),
		Logger:         logger.With("component", "livesync"),
		Notifier:       opts.Notifier,
		OnNotFound:     s.presentationGone,
		OnSnapshot:     s.snapshotApplied,
	})
	s.Presenter = presenter.New(sched, s.Nav, opts.Platform, s.Sync, presenter.Options{
		Timer:        s.Timer,
		TimerEnabled: cfg.Timer.Enabled,
		Logger:       logger.With("component", "presenter"),
	})
	s.Input = input.NewDispatcher(s)
	s.ready = true
	return s
}

// Start begins polling. It must run on the loop.
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true
	s.logger.Info("session started", "user", s.cfg.UserID, "streaming", s.opts.Streaming)
	s.Sync.Start()
	if s.opts.Streaming {
		s.streamFS = s.sched.AfterFunc(StreamingFullscreenDelay, func() {
			s.streamFS = nil
			s.Presenter.ToggleFullscreen()
		})
	}
	s.emit()
}

// Teardown stops polling and clears every pending callback the session owns.
func (s *Session) Teardown() {
	s.Sync.Stop()
	s.Presenter.Close()
	s.Timer.Close()
	s.Nav.Close()
	cancel(&s.hideControls)
	cancel(&s.stopCountdown)
	cancel(&s.streamFS)
	s.logger.Info("session stopped")
}

// HandleKey dispatches a key press and reports whether it was consumed.
func (s *Session) HandleKey(ev input.KeyEvent) bool {
	return s.Input.HandleKey(ev)
}

// StartPresenting enters presentation mode.
func (s *Session) StartPresenting(mode presenter.Mode) {
	s.Presenter.StartPresenting(mode)
	s.PointerMoved()
}

// StopPresenting leaves presentation mode.
func (s *Session) StopPresenting() {
	s.Presenter.StopPresenting()
	s.showControls()
}

// PointerMoved shows the controls and re-arms the idle-hide delay.
func (s *Session) PointerMoved() {
	if s.opts.Streaming {
		return
	}
	s.controlsVisible = true
	cancel(&s.hideControls)
	if s.idleHides() {
		s.hideControls = s.sched.AfterFunc(IdleHideDelay, func() {
			s.hideControls = nil
			s.controlsVisible = false
			s.emit()
		})
	}
	s.emit()
}

func (s *Session) showControls() {
	cancel(&s.hideControls)
	s.controlsVisible = !s.opts.Streaming
	s.emit()
}

// Controls auto-hide for viewers and while presenting.
func (s *Session) idleHides() bool {
	return s.Presenter.Presenting() || !s.Nav.IsPresenter()
}

// ControlsVisible reports whether on-screen controls are showing.
func (s *Session) ControlsVisible() bool { return s.controlsVisible }

// Countdown returns the viewer waiting countdown in seconds.
func (s *Session) Countdown() int { return s.countdown }

// NotFound reports whether the presentation has been deleted.
func (s *Session) NotFound() bool { return s.notFound }

// Resize re-reads the platform size and re-fits.
func (s *Session) Resize() { s.Presenter.Resize() }

func (s *Session) presentationGone() {
	s.notFound = true
	s.logger.Warn("presentation not found")
	if s.opts.OnNotFound != nil {
		s.opts.OnNotFound()
	}
	s.emit()
}

func (s *Session) snapshotApplied(p *deck.Presentation) {
	s.notFound = false
	if !s.Nav.IsPresenter() {
		s.updateCountdown(p)
	}
	s.emit()
}

// updateCountdown mirrors the viewer waiting countdown. A new configured
// value (re)arms it; presenting or a zero value clears it.
func (s *Session) updateCountdown(p *deck.Presentation) {
	if p.ViewerCountdown == nil {
		if p.IsPresenting {
			s.clearCountdown()
		}
		return
	}
	next := deck.ClampCountdown(*p.ViewerCountdown)
	changed := !s.countdownSeen || next != s.countdownSetting
	s.countdownSeen = true
	s.countdownSetting = next

	switch {
	case next == 0 || p.IsPresenting:
		s.clearCountdown()
	case changed:
		s.countdown = next
		cancel(&s.stopCountdown)
		s.stopCountdown = s.sched.Every(time.Second, s.tickCountdown)
	}
}

func (s *Session) tickCountdown() {
	if p := s.Nav.Snapshot(); p != nil && p.IsPresenting {
		s.clearCountdown()
		s.emit()
		return
	}
	if s.countdown > 0 {
		s.countdown--
	}
	if s.countdown == 0 {
		cancel(&s.stopCountdown)
	}
	s.emit()
}

func (s *Session) clearCountdown() {
	s.countdown = 0
	cancel(&s.stopCountdown)
}

// View returns the current render state.
func (s *Session) View() View {
	return View{
		Presentation:    s.Nav.Snapshot(),
		Nav:             s.Nav.State(),
		Timer:           s.Timer.State(),
		TimerVisible:    s.cfg.Timer.Enabled && s.Nav.IsPresenter(),
		Minimap:         s.minimap,
		PathPreview:     s.pathPreview,
		ControlsVisible: s.controlsVisible,
		Countdown:       s.countdown,
		NotFound:        s.notFound,
	}
}

func (s *Session) emit() {
	if !s.ready || s.opts.OnChange == nil {
		return
	}
	s.opts.OnChange(s.View())
}

func (s *Session) notify(level livesync.Level, msg string) {
	if s.opts.Notifier != nil {
		s.opts.Notifier.Notify(level, msg)
	}
}

func cancel(h *loop.Cancel) {
	if *h != nil {
		(*h)()
		*h = nil
	}
}
