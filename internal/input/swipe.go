package input

import "math"

// MinSwipeDistance is the horizontal travel a swipe needs, in pixels.
const MinSwipeDistance = 50.0

// Swipe tracks one touch sequence.
type Swipe struct {
	active         bool
	startX, startY float64
	endX, endY     float64
}

// Start records the touch-down point.
func (s *Swipe) Start(x, y float64) {
	s.active = true
	s.startX, s.startY = x, y
	s.endX, s.endY = x, y
}

// Move records the latest touch point.
func (s *Swipe) Move(x, y float64) {
	if s.active {
		s.endX, s.endY = x, y
	}
}

// End classifies the gesture. Vertical-dominant and short gestures yield CmdNone.
func (s *Swipe) End() Command {
	if !s.active {
		return CmdNone
	}
	s.active = false
	return Classify(s.startX, s.startY, s.endX, s.endY)
}

// Classify maps a touch from (startX,startY) to (endX,endY) to a command.
// A finger moving left means next, moving right means previous.
func Classify(startX, startY, endX, endY float64) Command {
	dx := startX - endX
	dy := startY - endY
	if math.Abs(dy) > math.Abs(dx) {
		return CmdNone
	}
	switch {
	case dx >= MinSwipeDistance:
		return CmdNext
	case dx <= -MinSwipeDistance:
		return CmdPrevious
	}
	return CmdNone
}
