// Package loop provides the single-threaded event loop every session runs on.
//
// All session state is touched only from loop callbacks, so no component
// needs its own locks. Blocking work (HTTP) runs through Go and hands its
// result back to the loop as a continuation.
package loop

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cancel stops a scheduled callback. It is safe to call more than once.
type Cancel func()

// Scheduler is the capability components use to defer work onto the loop.
type Scheduler interface {
	// Post queues f to run on the loop.
	Post(f func())
	// AfterFunc runs f on the loop once d has elapsed.
	AfterFunc(d time.Duration, f func()) Cancel
	// Every runs f on the loop every d until cancelled.
	Every(d time.Duration, f func()) Cancel
	// Go runs work off the loop; the continuation it returns, if any, runs on the loop.
	Go(work func() func())
	// Now reports the loop's clock.
	Now() time.Time
}

// Loop is the real-time Scheduler backed by one goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped atomic.Bool
	once    sync.Once
}

// New creates a Loop. Call Run (or Start) to begin processing.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Start runs the loop on its own goroutine.
func (l *Loop) Start() { go l.Run() }

// Run processes queued callbacks until Stop is called.
func (l *Loop) Run() {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, f := range batch {
			if l.stopped.Load() {
				return
			}
			f()
		}

		select {
		case <-l.wake:
		case <-l.done:
			return
		}
	}
}

// Stop halts the loop. Callbacks posted afterwards are dropped.
func (l *Loop) Stop() {
	l.once.Do(func() {
		l.stopped.Store(true)
		close(l.done)
	})
}

// Stopped reports whether Stop was called.
func (l *Loop) Stopped() bool { return l.stopped.Load() }

func (l *Loop) Post(f func()) {
	if l.stopped.Load() {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, f)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs f on the loop and waits for it. It returns false if the loop
// stopped before f ran.
func (l *Loop) Call(f func()) bool {
	ran := make(chan struct{})
	l.Post(func() {
		f()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

func (l *Loop) AfterFunc(d time.Duration, f func()) Cancel {
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled.Load() {
				f()
			}
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

func (l *Loop) Every(d time.Duration, f func()) Cancel {
	var cancelled atomic.Bool
	stop := make(chan struct{})
	var once sync.Once
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(func() {
					if !cancelled.Load() {
						f()
					}
				})
			case <-stop:
				return
			case <-l.done:
				return
			}
		}
	}()
	return func() {
		cancelled.Store(true)
		once.Do(func() { close(stop) })
	}
}

func (l *Loop) Go(work func() func()) {
	go func() {
		if cont := work(); cont != nil {
			l.Post(cont)
		}
	}()
}

func (l *Loop) Now() time.Time { return time.Now() }
