package geometry

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestFitSlideConstrainingAxis(t *testing.T) {
	slide := Rect{X: 100, Y: 200, Width: 200, Height: 100}
	got := FitSlide(slide, 800, 600, PaddingWindowed, 1)

	// zoomX = 680/200 = 3.4, zoomY = 480/100 = 4.8 -> 3.4 (width constrains).
	if !near(got.Zoom, 3.4) {
		t.Fatalf("Zoom = %v, want 3.4", got.Zoom)
	}
	if !near(got.PanX, 400-200*3.4) {
		t.Errorf("PanX = %v, want %v", got.PanX, 400-200*3.4)
	}
	if !near(got.PanY, 300-250*3.4) {
		t.Errorf("PanY = %v, want %v", got.PanY, 300-250*3.4)
	}
}

func TestFitSlideFitsInsidePaddedViewport(t *testing.T) {
	viewports := [][2]float64{{600, 600}, {1920, 1080}, {375, 812}, {1280, 720}}
	slides := []Rect{
		{X: 0, Y: 0, Width: 300, Height: 200},
		{X: 450, Y: 120, Width: 80, Height: 300},
		{X: 900, Y: 900, Width: 100, Height: 100},
		{X: 10, Y: 500, Width: 640, Height: 360},
	}
	for _, vp := range viewports {
		for _, pad := range []float64{PaddingWindowed, PaddingPresenting} {
			for _, s := range slides {
				tr := FitSlide(s, vp[0], vp[1], pad, 1)
				w, h := s.Width*tr.Zoom, s.Height*tr.Zoom
				availW, availH := vp[0]-2*pad, vp[1]-2*pad
				if w > availW+1e-6 || h > availH+1e-6 {
					t.Errorf("slide %+v in %v: %vx%v exceeds %vx%v", s, vp, w, h, availW, availH)
				}
				if tr.Zoom < MaxFitZoom-eps && !near(w, availW) && !near(h, availH) {
					t.Errorf("slide %+v in %v: no axis fits exactly (%v x %v)", s, vp, w, h)
				}
				// Slide center lands on the viewport center.
				c := tr.ToScreen(s.Center())
				if !near(c.X, vp[0]/2) || !near(c.Y, vp[1]/2) {
					t.Errorf("slide center maps to %+v, want viewport center", c)
				}
			}
		}
	}
}

func TestFitSlideCapAndDepth(t *testing.T) {
	tiny := Rect{X: 500, Y: 500, Width: 10, Height: 10}
	tr := FitSlide(tiny, 1000, 1000, PaddingWindowed, 1)
	if !near(tr.Zoom, MaxFitZoom) {
		t.Errorf("Zoom = %v, want cap %v", tr.Zoom, MaxFitZoom)
	}

	deep := FitSlide(tiny, 1000, 1000, PaddingWindowed, 1.5)
	if !near(deep.Zoom, MaxFitZoom*1.5) {
		t.Errorf("depth multiplier: Zoom = %v, want %v", deep.Zoom, MaxFitZoom*1.5)
	}
}

func TestFitSlideIdempotent(t *testing.T) {
	s := Rect{X: 120, Y: 40, Width: 333, Height: 187}
	a := FitSlide(s, 1024, 768, PaddingPresenting, 1)
	b := FitSlide(s, 1024, 768, PaddingPresenting, 1)
	if a != b {
		t.Errorf("FitSlide not idempotent: %+v vs %+v", a, b)
	}
}

func TestFitSlideDegenerate(t *testing.T) {
	tr := FitSlide(Rect{X: 10, Y: 10}, 800, 600, PaddingWindowed, 1)
	if math.IsInf(tr.Zoom, 0) || math.IsNaN(tr.Zoom) {
		t.Fatalf("degenerate slide produced zoom %v", tr.Zoom)
	}
	if math.IsNaN(tr.PanX) || math.IsNaN(tr.PanY) {
		t.Fatalf("degenerate slide produced pan %+v", tr)
	}
}

func TestFitAll(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 0, Width: 200, Height: 100},
		{X: 800, Y: 900, Width: 200, Height: 100},
	}
	tr, ok := FitAll(rects, 800, 600, PaddingOverview)
	if !ok {
		t.Fatal("FitAll returned !ok for non-empty input")
	}
	// Content 1000x1000, available 600x400 -> 0.4.
	if !near(tr.Zoom, 0.4) {
		t.Errorf("Zoom = %v, want 0.4", tr.Zoom)
	}
	c := tr.ToScreen(Point{X: 500, Y: 500})
	if !near(c.X, 400) || !near(c.Y, 300) {
		t.Errorf("content center maps to %+v, want (400,300)", c)
	}
}

func TestFitAllNeverZoomsIn(t *testing.T) {
	small := []Rect{{X: 490, Y: 490, Width: 20, Height: 20}}
	tr, ok := FitAll(small, 1920, 1080, PaddingOverview)
	if !ok {
		t.Fatal("expected ok")
	}
	if tr.Zoom > 1 {
		t.Errorf("overview zoom %v exceeds 1", tr.Zoom)
	}
}

func TestFitAllEmpty(t *testing.T) {
	if _, ok := FitAll(nil, 800, 600, PaddingOverview); ok {
		t.Error("FitAll(nil) should report !ok")
	}
}

func TestWorldToMinimap(t *testing.T) {
	got := WorldToMinimap(Rect{X: 250, Y: 500, Width: 100, Height: 50}, CanvasSize)
	want := Rect{X: 0.25, Y: 0.5, Width: 0.1, Height: 0.05}
	if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Width, want.Width) || !near(got.Height, want.Height) {
		t.Errorf("WorldToMinimap = %+v, want %+v", got, want)
	}
}

func TestViewportIndicatorClamped(t *testing.T) {
	tests := []struct {
		name string
		t    Transform
	}{
		{"zoomed out panned far", Transform{Zoom: 0.3, PanX: 5000, PanY: -5000}},
		{"zoomed in off canvas", Transform{Zoom: 4, PanX: -9000, PanY: -9000}},
		{"zero zoom", Transform{Zoom: 0}},
		{"identity", Transform{Zoom: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ViewportIndicator(tt.t, 800, 600, CanvasSize)
			for _, v := range []float64{r.X, r.Y, r.Width, r.Height, r.X + r.Width, r.Y + r.Height} {
				if v < 0 || v > 1 {
					t.Fatalf("indicator %+v escapes [0,1]", r)
				}
			}
		})
	}
}

func TestViewportIndicatorCentered(t *testing.T) {
	// A slide fitted at the canvas center should put the indicator center there too.
	tr := FitSlide(Rect{X: 400, Y: 400, Width: 200, Height: 200}, 600, 600, PaddingWindowed, 1)
	r := ViewportIndicator(tr, 600, 600, CanvasSize)
	if !near(r.X+r.Width/2, 0.5) || !near(r.Y+r.Height/2, 0.5) {
		t.Errorf("indicator %+v not centered", r)
	}
}

func TestPath(t *testing.T) {
	pts := Path([]Rect{{X: 0, Y: 0, Width: 10, Height: 10}, {X: 100, Y: 50, Width: 20, Height: 10}})
	if len(pts) != 2 || pts[0] != (Point{5, 5}) || pts[1] != (Point{110, 55}) {
		t.Errorf("Path = %+v", pts)
	}
}
