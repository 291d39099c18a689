// Package viewport holds the camera state applied to the world canvas.
package viewport

import (
	"math"

	"github.com/ziadkadry99/zoomdeck/internal/geometry"
)

// Manual adjustment limits.
const (
	MinZoom      = 0.3
	MaxZoom      = 4.0
	ZoomStep     = 0.3
	MinFontScale = 0.5
	MaxFontScale = 2.0
	FontStep     = 0.1
	MaxRotation  = 2.0
)

// State is the current world-to-screen camera plus the text-size multiplier.
// Rotation is in degrees and only nonzero when the rotation effect is enabled.
type State struct {
	Zoom      float64
	PanX      float64
	PanY      float64
	Rotation  float64
	FontScale float64
}

// New returns the identity viewport.
func New() State {
	return State{Zoom: 1, FontScale: 1}
}

// Transform returns the zoom/pan part of s.
func (s State) Transform() geometry.Transform {
	return geometry.Transform{Zoom: s.Zoom, PanX: s.PanX, PanY: s.PanY}
}

// Apply replaces zoom and pan with t. Computed fits are not clamped.
func (s State) Apply(t geometry.Transform) State {
	s.Zoom, s.PanX, s.PanY = t.Zoom, t.PanX, t.PanY
	return s
}

// WithRotation sets the rotation, clamped to ±MaxRotation.
func (s State) WithRotation(deg float64) State {
	s.Rotation = math.Max(-MaxRotation, math.Min(MaxRotation, deg))
	return s
}

// ZoomIn increases zoom by ZoomStep up to MaxZoom.
func (s State) ZoomIn() State {
	s.Zoom = round(math.Min(MaxZoom, s.Zoom+ZoomStep))
	return s
}

// ZoomOut decreases zoom by ZoomStep down to MinZoom.
func (s State) ZoomOut() State {
	s.Zoom = round(math.Max(MinZoom, s.Zoom-ZoomStep))
	return s
}

// FontIn increases the font scale by FontStep up to MaxFontScale.
func (s State) FontIn() State {
	s.FontScale = round(math.Min(MaxFontScale, s.FontScale+FontStep))
	return s
}

// FontOut decreases the font scale by FontStep down to MinFontScale.
func (s State) FontOut() State {
	s.FontScale = round(math.Max(MinFontScale, s.FontScale-FontStep))
	return s
}

// PanBy shifts the camera by a screen-space delta.
func (s State) PanBy(dx, dy float64) State {
	s.PanX += dx
	s.PanY += dy
	return s
}

// Rotation returns a random tilt in ±MaxRotation degrees from a uniform
// sample r in [0,1), or 0 when the effect is disabled.
func Rotation(enabled bool, r float64) float64 {
	if !enabled {
		return 0
	}
	return (r*2 - 1) * MaxRotation
}

// round trims accumulated float error from repeated steps.
func round(v float64) float64 { return math.Round(v*1e6) / 1e6 }
