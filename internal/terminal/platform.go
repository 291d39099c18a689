package terminal

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/term"
)

const (
	enterAltScreen = "\x1b[?1049h\x1b[?25l"
	exitAltScreen  = "\x1b[?25h\x1b[?1049l"
	clearScreen    = "\x1b[2J\x1b[H"
)

// Platform treats the terminal's alternate screen as fullscreen.
type Platform struct {
	out io.Writer
	fd  int

	mu        sync.Mutex
	active    bool
	listeners map[int]func(bool)
	nextID    int
}

// NewPlatform writes to out and sizes itself from the terminal on fd.
func NewPlatform(out io.Writer, fd int) *Platform {
	return &Platform{out: out, fd: fd, listeners: make(map[int]func(bool))}
}

// RequestFullscreen switches to the alternate screen.
func (p *Platform) RequestFullscreen() error {
	return p.set(true, enterAltScreen+clearScreen)
}

// ExitFullscreen returns to the main screen.
func (p *Platform) ExitFullscreen() error {
	return p.set(false, exitAltScreen)
}

func (p *Platform) set(active bool, seq string) error {
	p.mu.Lock()
	if p.active == active {
		p.mu.Unlock()
		return nil
	}
	p.active = active
	if _, err := io.WriteString(p.out, seq); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("switching screen: %w", err)
	}
	fns := make([]func(bool), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(active)
	}
	return nil
}

// Active reports whether the alternate screen is shown.
func (p *Platform) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// OnFullscreenChange registers fn for every screen switch.
func (p *Platform) OnFullscreenChange(fn func(bool)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// Size reports the terminal size in cells, or 0x0 when fd is not a
// terminal.
func (p *Platform) Size() (float64, float64) {
	w, h, err := term.GetSize(p.fd)
	if err != nil {
		return 0, 0
	}
	return float64(w), float64(h)
}

// RawMode puts fd into raw mode when it is a terminal. The returned func
// restores the previous state.
func RawMode(fd int) (restore func(), err error) {
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("entering raw mode: %w", err)
	}
	return func() { term.Restore(fd, state) }, nil
}
