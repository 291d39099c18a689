package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/session"
	"github.com/ziadkadry99/zoomdeck/internal/timer"
)

// StatusLine summarizes a view in one line.
func StatusLine(v session.View) string {
	if v.NotFound {
		return "presentation not found"
	}
	if v.Presentation == nil {
		return "loading…"
	}

	slides := v.Presentation.Ordered()
	var parts []string
	if i := deck.IndexOf(slides, v.Nav.CurrentSlideID); i >= 0 {
		title := slides[i].Title
		if title == "" {
			title = slides[i].ID
		}
		parts = append(parts, fmt.Sprintf("[%d/%d] %s", i+1, len(slides), title))
	} else {
		parts = append(parts, fmt.Sprintf("[-/%d] %s", len(slides), v.Presentation.Title))
	}

	if v.Nav.Overview {
		parts = append(parts, "overview")
	}
	if v.Nav.Presenting {
		parts = append(parts, "presenting")
	} else if !v.Nav.IsPresenter {
		parts = append(parts, "following")
	}
	if v.Countdown > 0 {
		parts = append(parts, "starts in "+timer.Format(v.Countdown))
	}
	if v.TimerVisible {
		t := timer.Format(v.Timer.Remaining)
		if v.Timer.Zone != timer.ZoneNormal {
			t += " " + v.Timer.Zone.String()
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " · ")
}

// Display renders views as a progress bar whose fill is the elapsed share
// of the presenter timer and whose description is the status line.
type Display struct {
	bar     *progressbar.ProgressBar
	initial int
}

// NewDisplay writes to out.
func NewDisplay(out io.Writer) *Display {
	return &Display{
		bar: progressbar.NewOptions(1,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetElapsedTime(false),
			progressbar.OptionSetRenderBlankState(true),
		),
		initial: 1,
	}
}

// Render draws v.
func (d *Display) Render(v session.View) {
	d.bar.Describe(StatusLine(v))
	if !v.TimerVisible || v.Timer.Initial <= 0 {
		_ = d.bar.Set(0)
		return
	}
	if v.Timer.Initial != d.initial {
		d.initial = v.Timer.Initial
		d.bar.ChangeMax(d.initial)
	}
	_ = d.bar.Set(v.Timer.Initial - v.Timer.Remaining)
}

// Close clears the bar.
func (d *Display) Close() error {
	return d.bar.Clear()
}
