// Package terminal hosts a session in a text terminal: raw key input, an
// alternate-screen "fullscreen" and a one-line status display.
package terminal

import (
	"context"
	"errors"
	"io"

	"github.com/ziadkadry99/zoomdeck/internal/input"
)

// KeyInterrupt is reported for Ctrl-C, which raw mode no longer turns into
// a signal.
const KeyInterrupt = "ctrl+c"

var escapeSequences = map[string]string{
	"\x1b[A":  input.KeyUp,
	"\x1b[B":  input.KeyDown,
	"\x1b[C":  input.KeyRight,
	"\x1b[D":  input.KeyLeft,
	"\x1b[H":  input.KeyHome,
	"\x1b[1~": input.KeyHome,
	"\x1bOH":  input.KeyHome,
	"\x1bOA":  input.KeyUp,
	"\x1bOB":  input.KeyDown,
	"\x1bOC":  input.KeyRight,
	"\x1bOD":  input.KeyLeft,
}

// Decode splits raw terminal input into key events. A terminal cannot
// report Shift on its own, so the shifted glyphs "+" and "_" are reported
// with Shift set. Unknown escape sequences are dropped.
func Decode(buf []byte) []input.KeyEvent {
	var events []input.KeyEvent
	for i := 0; i < len(buf); {
		b := buf[i]
		switch {
		case b == 0x03:
			events = append(events, input.KeyEvent{Key: KeyInterrupt})
			i++
		case b == 0x1b:
			n, key := decodeEscape(buf[i:])
			if key != "" {
				events = append(events, input.KeyEvent{Key: key})
			}
			i += n
		case b == '\r' || b == '\n':
			events = append(events, input.KeyEvent{Key: input.KeyRight})
			i++
		case b == '+' || b == '_':
			events = append(events, input.KeyEvent{Key: string(b), Shift: true})
			i++
		case b >= 0x20 && b < 0x7f:
			events = append(events, input.KeyEvent{Key: string(b)})
			i++
		default:
			i++
		}
	}
	return events
}

// decodeEscape returns how many bytes the sequence at the start of buf
// occupies and the key it names. A lone ESC is the Escape key.
func decodeEscape(buf []byte) (int, string) {
	if len(buf) == 1 {
		return 1, input.KeyEscape
	}
	for n := 4; n >= 3; n-- {
		if len(buf) >= n {
			if key, ok := escapeSequences[string(buf[:n])]; ok {
				return n, key
			}
		}
	}
	if buf[1] != '[' && buf[1] != 'O' {
		return 1, input.KeyEscape
	}
	// Skip an unknown CSI sequence up to its final byte.
	for i := 2; i < len(buf); i++ {
		if buf[i] >= 0x40 && buf[i] <= 0x7e {
			return i + 1, ""
		}
	}
	return len(buf), ""
}

// ReadKeys decodes keys from r and calls fn for each until ctx is done, r
// reaches EOF or fn returns false.
func ReadKeys(ctx context.Context, r io.Reader, fn func(input.KeyEvent) bool) error {
	buf := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		for _, ev := range Decode(buf[:n]) {
			if !fn(ev) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
