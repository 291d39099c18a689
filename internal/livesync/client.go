// Package livesync keeps a session's presentation snapshot consistent with
// the remote store by polling, and publishes presenter-authored changes.
package livesync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/loop"
	"github.com/ziadkadry99/zoomdeck/internal/navigation"
)

const (
	DefaultPollInterval   = time.Second
	DefaultRequestTimeout = 5 * time.Second
)

// Level grades a user-visible notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows short-lived toasts to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Level, string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// Options configures a Client.
type Options struct {
	PresentationID string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	Logger         *slog.Logger
	Notifier       Notifier
	// OnNotFound runs once when the presentation disappears from the store.
	OnNotFound func()
	// OnSnapshot runs after every applied snapshot, polled or acknowledged.
	OnSnapshot func(*deck.Presentation)
}

// Client polls the remote store and publishes local changes. All methods
// must be called on the session loop.
type Client struct {
	sched  loop.Scheduler
	store  RemoteStore
	nav    *navigation.Navigator
	opts   Options
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	session  string
	seq      uint64
	polling  bool
	stopPoll loop.Cancel
	stopped  bool
	notFound bool
	loaded   bool
	// pendingPresence holds a SetPresenting call made before the first
	// snapshot told us whether this session may present.
	pendingPresence *bool
}

// New creates a Client and registers it as nav's publisher.
func New(sched loop.Scheduler, store RemoteStore, nav *navigation.Navigator, opts Options) *Client {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithComponent("livesync")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		sched:   sched,
		store:   store,
		nav:     nav,
		opts:    opts,
		logger:  logger.With("presentation", opts.PresentationID),
		ctx:     ctx,
		cancel:  cancel,
		session: uuid.NewString(),
	}
	nav.SetPublisher(c)
	return c
}

// Session returns the id that tags this client's writes.
func (c *Client) Session() string { return c.session }

// NotFound reports whether the store said the presentation is gone.
func (c *Client) NotFound() bool { return c.notFound }

// Start polls immediately and then on every interval until Stop.
func (c *Client) Start() {
	if c.stopPoll != nil || c.stopped {
		return
	}
	c.Poll()
	c.stopPoll = c.sched.Every(c.opts.PollInterval, c.Poll)
}

// Stop cancels polling and abandons in-flight requests.
func (c *Client) Stop() {
	if c.stopPoll != nil {
		c.stopPoll()
		c.stopPoll = nil
	}
	c.stopped = true
	c.cancel()
}

// Poll fetches the presentation once and applies it. A tick that fires while
// the previous request is still out is skipped.
func (c *Client) Poll() {
	if c.polling || c.stopped {
		return
	}
	c.polling = true
	store, id, timeout := c.store, c.opts.PresentationID, c.opts.RequestTimeout
	ctx := c.ctx
	c.sched.Go(func() func() {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		p, err := store.Get(reqCtx, id)
		return func() {
			c.polling = false
			if c.stopped {
				return
			}
			if err != nil {
				c.pollFailed(err)
				return
			}
			c.applyPolled(p)
		}
	})
}

func (c *Client) pollFailed(err error) {
	if errors.Is(err, deck.ErrNotFound) {
		if !c.notFound {
			c.notFound = true
			c.logger.Warn("presentation not found")
			if c.opts.OnNotFound != nil {
				c.opts.OnNotFound()
			}
		}
		return
	}
	c.logger.Warn("poll failed, retrying next tick", "err", err)
}

func (c *Client) applyPolled(p *deck.Presentation) {
	c.notFound = false
	c.applySnapshot(p)

	target := p.CurrentSlideID
	if !c.loaded {
		c.loaded = true
		if target == "" {
			if ordered := p.Ordered(); len(ordered) > 0 {
				target = ordered[0].ID
			}
		}
		c.flushPresence(p)
	}
	if target == "" || target == c.nav.Current() {
		return
	}
	if c.nav.Transitioning() {
		return
	}
	if c.isEcho(p) {
		c.logger.Debug("ignoring echo of own write", "slide", target)
		return
	}
	c.nav.Follow(target)
}

// isEcho reports whether the stored write is one this client made.
func (c *Client) isEcho(p *deck.Presentation) bool {
	return p.Writer != nil && p.Writer.Session == c.session && p.Writer.Seq <= c.seq
}

func (c *Client) applySnapshot(p *deck.Presentation) {
	c.nav.SetSnapshot(p)
	c.nav.SetSettings(c.nav.Settings().Merge(p))
	if c.opts.OnSnapshot != nil {
		c.opts.OnSnapshot(p)
	}
}

// Publish sends patch to the store. On success the response replaces the
// local snapshot; on failure the user is told and local state is kept.
// ack, if set, runs on the loop with the outcome.
func (c *Client) Publish(patch deck.Patch, ack func(*deck.Presentation, error)) {
	if c.stopped {
		if ack != nil {
			ack(nil, context.Canceled)
		}
		return
	}
	c.seq++
	tag := deck.WriteTag{Session: c.session, Seq: c.seq}
	store, id, timeout := c.store, c.opts.PresentationID, c.opts.RequestTimeout
	ctx := c.ctx
	c.sched.Go(func() func() {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		p, err := store.Patch(reqCtx, id, patch, tag)
		return func() {
			if c.stopped {
				return
			}
			if err != nil {
				c.logger.Warn("publish failed", "seq", tag.Seq, "err", err)
				c.notify(LevelError, failureMessage(err))
			} else {
				c.applySnapshot(p)
			}
			if ack != nil {
				ack(p, err)
			}
		}
	})
}

// PublishSlide persists the presenter's current slide.
func (c *Client) PublishSlide(slideID string, ack func(*deck.Presentation, error)) {
	c.Publish(deck.Patch{CurrentSlideID: deck.Ptr(slideID)}, ack)
}

// SetPublic toggles public visibility. Only the creator may change it.
func (c *Client) SetPublic(public bool) error {
	if !c.isCreator() {
		return deck.ErrForbidden
	}
	c.Publish(deck.Patch{IsPublic: deck.Ptr(public)}, func(_ *deck.Presentation, err error) {
		if err != nil {
			return
		}
		if public {
			c.notify(LevelSuccess, "Presentation is now public")
		} else {
			c.notify(LevelSuccess, "Presentation is now private")
		}
	})
	return nil
}

// UpdateViewerSettings pushes the full viewer settings set. Only the creator may change it.
func (c *Client) UpdateViewerSettings(s deck.Settings) error {
	if !c.isCreator() {
		return deck.ErrForbidden
	}
	c.nav.SetSettings(s)
	c.Publish(deck.ViewerSettingsPatch(s), func(_ *deck.Presentation, err error) {
		if err == nil {
			c.notify(LevelSuccess, "Viewer settings updated")
		}
	})
	return nil
}

// SetPresenting records whether a live presentation is running. Only a
// presenter publishes it; viewers are a no-op. Before the first snapshot
// the latest value is held and published once the role is known.
func (c *Client) SetPresenting(on bool) {
	if !c.loaded {
		c.pendingPresence = deck.Ptr(on)
		return
	}
	if !c.nav.IsPresenter() {
		return
	}
	c.Publish(deck.Patch{IsPresenting: deck.Ptr(on)}, nil)
}

func (c *Client) flushPresence(p *deck.Presentation) {
	on := c.pendingPresence
	c.pendingPresence = nil
	if on == nil || *on == p.IsPresenting || !c.nav.IsPresenter() {
		return
	}
	c.Publish(deck.Patch{IsPresenting: on}, nil)
}

func (c *Client) isCreator() bool {
	p := c.nav.Snapshot()
	return p != nil && c.nav.UserID() != "" && p.CreatorID() == c.nav.UserID()
}

func (c *Client) notify(level Level, msg string) {
	if c.opts.Notifier != nil {
		c.opts.Notifier.Notify(level, msg)
	}
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, deck.ErrForbidden), errors.Is(err, deck.ErrUnauthorized):
		return "You are not allowed to change this presentation"
	case errors.Is(err, deck.ErrNotFound):
		return "Presentation no longer exists"
	default:
		return "Could not save change, it may not have reached the server"
	}
}
