// Package input translates raw key presses and touch gestures into
// navigation commands.
package input

// Key names as reported by keyboard events.
const (
	KeyLeft   = "ArrowLeft"
	KeyRight  = "ArrowRight"
	KeyUp     = "ArrowUp"
	KeyDown   = "ArrowDown"
	KeySpace  = " "
	KeyEscape = "Escape"
	KeyHome   = "Home"
)

// Command is a navigation intent produced by the input layer.
type Command int

const (
	CmdNone Command = iota
	CmdPrevious
	CmdNext
	CmdToggleFullscreen
	CmdEscape
	CmdToggleOverview
	CmdFirst
	CmdZoomIn
	CmdZoomOut
	CmdFontIn
	CmdFontOut
	CmdRefit
	CmdToggleMinimap
	CmdTogglePathPreview
)

var commandNames = map[Command]string{
	CmdNone:              "none",
	CmdPrevious:          "previous",
	CmdNext:              "next",
	CmdToggleFullscreen:  "toggle-fullscreen",
	CmdEscape:            "escape",
	CmdToggleOverview:    "toggle-overview",
	CmdFirst:             "first",
	CmdZoomIn:            "zoom-in",
	CmdZoomOut:           "zoom-out",
	CmdFontIn:            "font-in",
	CmdFontOut:           "font-out",
	CmdRefit:             "refit",
	CmdToggleMinimap:     "toggle-minimap",
	CmdTogglePathPreview: "toggle-path-preview",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return "unknown"
}

// KeyEvent is one key press.
type KeyEvent struct {
	Key   string
	Shift bool
	// InTextInput is set when focus is inside an editable field.
	InTextInput bool
}

var keyTable = map[string]Command{
	KeyLeft:   CmdPrevious,
	KeyUp:     CmdPrevious,
	KeyRight:  CmdNext,
	KeyDown:   CmdNext,
	KeySpace:  CmdNext,
	"f":       CmdToggleFullscreen,
	"F":       CmdToggleFullscreen,
	KeyEscape: CmdEscape,
	"o":       CmdToggleOverview,
	"O":       CmdToggleOverview,
	"h":       CmdFirst,
	"H":       CmdFirst,
	KeyHome:   CmdFirst,
	"0":       CmdRefit,
	"m":       CmdToggleMinimap,
	"M":       CmdToggleMinimap,
	"p":       CmdTogglePathPreview,
	"P":       CmdTogglePathPreview,
}

// Translate maps a key press to a command. Keys typed into text fields and
// unbound keys map to CmdNone.
func Translate(ev KeyEvent) Command {
	if ev.InTextInput {
		return CmdNone
	}
	switch ev.Key {
	case "+", "=":
		if ev.Shift {
			return CmdFontIn
		}
		return CmdZoomIn
	case "-", "_":
		if ev.Shift {
			return CmdFontOut
		}
		return CmdZoomOut
	}
	return keyTable[ev.Key]
}

// Actions is what commands drive.
type Actions interface {
	Previous() bool
	Next() bool
	First() bool
	Escape()
	ToggleOverview()
	ToggleFullscreen()
	ZoomIn()
	ZoomOut()
	FontIn()
	FontOut()
	Refit()
	ToggleMinimap()
	TogglePathPreview()
}

// Dispatcher routes input to Actions.
type Dispatcher struct {
	actions Actions
	swipe   Swipe
}

// NewDispatcher creates a Dispatcher driving a.
func NewDispatcher(a Actions) *Dispatcher {
	return &Dispatcher{actions: a}
}

// HandleKey runs the command bound to ev. It reports whether the key was
// consumed, in which case the platform's default action must be suppressed.
func (d *Dispatcher) HandleKey(ev KeyEvent) bool {
	cmd := Translate(ev)
	if cmd == CmdNone {
		return false
	}
	d.Run(cmd)
	return true
}

// Run executes cmd.
func (d *Dispatcher) Run(cmd Command) {
	a := d.actions
	switch cmd {
	case CmdPrevious:
		a.Previous()
	case CmdNext:
		a.Next()
	case CmdFirst:
		a.First()
	case CmdEscape:
		a.Escape()
	case CmdToggleOverview:
		a.ToggleOverview()
	case CmdToggleFullscreen:
		a.ToggleFullscreen()
	case CmdZoomIn:
		a.ZoomIn()
	case CmdZoomOut:
		a.ZoomOut()
	case CmdFontIn:
		a.FontIn()
	case CmdFontOut:
		a.FontOut()
	case CmdRefit:
		a.Refit()
	case CmdToggleMinimap:
		a.ToggleMinimap()
	case CmdTogglePathPreview:
		a.TogglePathPreview()
	}
}

// TouchStart begins a swipe.
func (d *Dispatcher) TouchStart(x, y float64) { d.swipe.Start(x, y) }

// TouchMove updates the swipe end point.
func (d *Dispatcher) TouchMove(x, y float64) { d.swipe.Move(x, y) }

// TouchEnd classifies the swipe and runs the resulting command, if any.
func (d *Dispatcher) TouchEnd() Command {
	cmd := d.swipe.End()
	if cmd != CmdNone {
		d.Run(cmd)
	}
	return cmd
}
