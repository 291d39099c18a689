// Package geometry computes the viewport transforms that frame slides on the
// world canvas. Everything here is a pure function of its inputs.
package geometry

import "math"

const (
	// CanvasSize is the edge length of the square world canvas.
	CanvasSize = 1000.0

	// MaxFitZoom caps the zoom a single-slide fit may choose before the depth multiplier.
	MaxFitZoom = 4.0

	// MaxOverviewZoom keeps the overview from ever zooming in.
	MaxOverviewZoom = 1.0

	// Padding around a fitted slide, in screen units.
	PaddingWindowed   = 60.0
	PaddingPresenting = 40.0
	PaddingFixedSize  = 10.0
	PaddingOverview   = 100.0

	minDimension = 1.0
)

// Rect is an axis-aligned rectangle in world (or fractional) coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// Transform maps world coordinates to screen coordinates:
// screen = world*Zoom + Pan.
type Transform struct {
	Zoom float64
	PanX float64
	PanY float64
}

// ToScreen applies t to a world point.
func (t Transform) ToScreen(p Point) Point {
	return Point{X: p.X*t.Zoom + t.PanX, Y: p.Y*t.Zoom + t.PanY}
}

// ToWorld inverts t for a screen point.
func (t Transform) ToWorld(p Point) Point {
	z := t.Zoom
	if z == 0 {
		z = 1
	}
	return Point{X: (p.X - t.PanX) / z, Y: (p.Y - t.PanY) / z}
}

// FitSlide frames one slide inside a viewport of vw x vh with the given padding.
// The pre-multiplier zoom never exceeds MaxFitZoom; depth scales the result.
func FitSlide(slide Rect, vw, vh, padding, depth float64) Transform {
	w := math.Max(slide.Width, minDimension)
	h := math.Max(slide.Height, minDimension)

	zoomX := (vw - 2*padding) / w
	zoomY := (vh - 2*padding) / h
	zoom := math.Min(math.Min(zoomX, zoomY), MaxFitZoom) * depth

	c := Point{X: slide.X + w/2, Y: slide.Y + h/2}
	return centerOn(c, zoom, vw, vh)
}

// Bounds returns the bounding box of rects. ok is false when rects is empty.
func Bounds(rects []Rect) (b Rect, ok bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, r := range rects {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.X+r.Width)
		maxY = math.Max(maxY, r.Y+r.Height)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// FitAll frames every rect at once for the overview. Zoom never exceeds
// MaxOverviewZoom. ok is false when rects is empty; callers must not apply
// the zero Transform in that case.
func FitAll(rects []Rect, vw, vh, padding float64) (Transform, bool) {
	b, ok := Bounds(rects)
	if !ok {
		return Transform{}, false
	}
	w := math.Max(b.Width, minDimension)
	h := math.Max(b.Height, minDimension)

	zoomX := (vw - 2*padding) / w
	zoomY := (vh - 2*padding) / h
	zoom := math.Min(math.Min(zoomX, zoomY), MaxOverviewZoom)

	c := Point{X: b.X + w/2, Y: b.Y + h/2}
	return centerOn(c, zoom, vw, vh), true
}

func centerOn(c Point, zoom, vw, vh float64) Transform {
	return Transform{
		Zoom: zoom,
		PanX: vw/2 - c.X*zoom,
		PanY: vh/2 - c.Y*zoom,
	}
}

// WorldToMinimap scales a world rectangle to fractions of the canvas.
func WorldToMinimap(r Rect, canvas float64) Rect {
	if canvas <= 0 {
		canvas = CanvasSize
	}
	return Rect{
		X:      r.X / canvas,
		Y:      r.Y / canvas,
		Width:  r.Width / canvas,
		Height: r.Height / canvas,
	}
}

// ViewportIndicator returns the part of the canvas currently on screen as a
// fractional rectangle, clamped into [0,1] on both axes.
func ViewportIndicator(t Transform, vw, vh, canvas float64) Rect {
	if canvas <= 0 {
		canvas = CanvasSize
	}
	zoom := t.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	c := t.ToWorld(Point{X: vw / 2, Y: vh / 2})
	w := clamp01(vw / zoom / canvas)
	h := clamp01(vh / zoom / canvas)
	cx := clamp01(c.X / canvas)
	cy := clamp01(c.Y / canvas)

	x := clamp(cx-w/2, 0, 1-w)
	y := clamp(cy-h/2, 0, 1-h)
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Path returns the centers of rects in the order given, for path previews.
func Path(rects []Rect) []Point {
	pts := make([]Point, len(rects))
	for i, r := range rects {
		pts[i] = r.Center()
	}
	return pts
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
