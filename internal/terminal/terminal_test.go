package terminal

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/input"
	"github.com/ziadkadry99/zoomdeck/internal/navigation"
	"github.com/ziadkadry99/zoomdeck/internal/session"
	"github.com/ziadkadry99/zoomdeck/internal/timer"
)

func keys(evs []input.KeyEvent) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Key
		if ev.Shift {
			out[i] = "shift+" + ev.Key
		}
	}
	return out
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"arrows", "\x1b[C\x1b[D\x1b[A\x1b[B", []string{input.KeyRight, input.KeyLeft, input.KeyUp, input.KeyDown}},
		{"application arrows", "\x1bOC", []string{input.KeyRight}},
		{"home variants", "\x1b[H\x1b[1~", []string{input.KeyHome, input.KeyHome}},
		{"lone escape", "\x1b", []string{input.KeyEscape}},
		{"letters and space", "o f", []string{"o", " ", "f"}},
		{"shifted zoom keys", "+=_-", []string{"shift++", "=", "shift+_", "-"}},
		{"enter advances", "\r", []string{input.KeyRight}},
		{"ctrl-c", "\x03", []string{KeyInterrupt}},
		{"unknown csi skipped", "\x1b[15~o", []string{"o"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keys(Decode([]byte(tt.in)))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Decode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodedKeysTranslate(t *testing.T) {
	evs := Decode([]byte("+_"))
	if input.Translate(evs[0]) != input.CmdFontIn || input.Translate(evs[1]) != input.CmdFontOut {
		t.Errorf("shifted keys translate to %v, %v", input.Translate(evs[0]), input.Translate(evs[1]))
	}
}

func TestReadKeysStops(t *testing.T) {
	var seen []string
	err := ReadKeys(context.Background(), strings.NewReader("ab\x03cd"), func(ev input.KeyEvent) bool {
		seen = append(seen, ev.Key)
		return ev.Key != KeyInterrupt
	})
	if err != nil {
		t.Fatalf("ReadKeys: %v", err)
	}
	if strings.Join(seen, ",") != "a,b,"+KeyInterrupt {
		t.Errorf("seen = %q", seen)
	}
}

func TestPlatformSwitchesScreen(t *testing.T) {
	var out bytes.Buffer
	p := NewPlatform(&out, -1)

	var changes []bool
	unsubscribe := p.OnFullscreenChange(func(active bool) { changes = append(changes, active) })

	if err := p.RequestFullscreen(); err != nil {
		t.Fatal(err)
	}
	if err := p.RequestFullscreen(); err != nil {
		t.Fatal(err)
	}
	if !p.Active() || !strings.Contains(out.String(), enterAltScreen) {
		t.Errorf("alt screen not entered: %q", out.String())
	}
	if err := p.ExitFullscreen(); err != nil {
		t.Fatal(err)
	}
	unsubscribe()
	p.RequestFullscreen()

	if len(changes) != 2 || !changes[0] || changes[1] {
		t.Errorf("changes = %v, want [true false]", changes)
	}
	if w, h := p.Size(); w != 0 || h != 0 {
		t.Errorf("size of a non-terminal = %vx%v", w, h)
	}
}

func TestStatusLine(t *testing.T) {
	p := &deck.Presentation{Title: "Demo", Slides: []deck.Slide{
		{ID: "b", Title: "Second", Order: 1},
		{ID: "a", Title: "First", Order: 0},
	}}

	tests := []struct {
		name string
		view session.View
		want string
	}{
		{"not found", session.View{NotFound: true}, "presentation not found"},
		{"loading", session.View{}, "loading…"},
		{"following", session.View{Presentation: p, Nav: navigation.State{CurrentSlideID: "b"}},
			"[2/2] Second · following"},
		{"presenting with timer", session.View{
			Presentation: p,
			Nav:          navigation.State{CurrentSlideID: "a", Presenting: true, IsPresenter: true},
			TimerVisible: true,
			Timer:        timer.State{Remaining: 45, Initial: 600, Zone: timer.ZoneCritical},
		}, "[1/2] First · presenting · 00:45 critical"},
		{"no current slide", session.View{Presentation: p, Nav: navigation.State{IsPresenter: true, Overview: true}},
			"[-/2] Demo · overview"},
		{"countdown", session.View{Presentation: p, Nav: navigation.State{CurrentSlideID: "a"}, Countdown: 90},
			"[1/2] First · following · starts in 01:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusLine(tt.view); got != tt.want {
				t.Errorf("StatusLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayRenders(t *testing.T) {
	var out bytes.Buffer
	d := NewDisplay(&out)
	d.Render(session.View{NotFound: true})
	if !strings.Contains(out.String(), "presentation not found") {
		t.Errorf("output = %q", out.String())
	}
}
