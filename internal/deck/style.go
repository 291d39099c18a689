package deck

// BackgroundStyle selects the canvas background pattern.
type BackgroundStyle string

const (
	BackgroundInteractive BackgroundStyle = "interactive"
	BackgroundDots        BackgroundStyle = "dots"
	BackgroundHexagon     BackgroundStyle = "hexagon"
	BackgroundRadial      BackgroundStyle = "radial"
	BackgroundPaper       BackgroundStyle = "paper"
	BackgroundStars       BackgroundStyle = "stars"
	BackgroundCircuit     BackgroundStyle = "circuit"
	BackgroundPlain       BackgroundStyle = "plain"
)

// BackgroundStyles lists every background variant.
var BackgroundStyles = []BackgroundStyle{
	BackgroundInteractive, BackgroundDots, BackgroundHexagon, BackgroundRadial,
	BackgroundPaper, BackgroundStars, BackgroundCircuit, BackgroundPlain,
}

func (b BackgroundStyle) Valid() bool { return contains(BackgroundStyles, b) }

// ViewerSize selects how viewers size the canvas.
type ViewerSize string

const (
	ViewerResponsive ViewerSize = "responsive"
	ViewerFixedHD    ViewerSize = "1920x1080"
)

var ViewerSizes = []ViewerSize{ViewerResponsive, ViewerFixedHD}

func (v ViewerSize) Valid() bool { return contains(ViewerSizes, v) }

// ViewerAnimation is the waiting-screen animation shown before the talk starts.
type ViewerAnimation string

const (
	AnimationCountdown ViewerAnimation = "countdown"
	AnimationPulse     ViewerAnimation = "pulse"
	AnimationWave      ViewerAnimation = "wave"
	AnimationSpinner   ViewerAnimation = "spinner"
	AnimationParticles ViewerAnimation = "particles"
	AnimationGradient  ViewerAnimation = "gradient"
)

var ViewerAnimations = []ViewerAnimation{
	AnimationCountdown, AnimationPulse, AnimationWave,
	AnimationSpinner, AnimationParticles, AnimationGradient,
}

func (a ViewerAnimation) Valid() bool { return contains(ViewerAnimations, a) }

// TransitionType tags how a renderer animates into a slide.
type TransitionType string

const (
	TransitionFade  TransitionType = "fade"
	TransitionSlide TransitionType = "slide"
	TransitionZoom  TransitionType = "zoom"
	TransitionNone  TransitionType = "none"
)

var TransitionTypes = []TransitionType{TransitionFade, TransitionSlide, TransitionZoom, TransitionNone}

// Valid reports whether t is a known transition. The empty tag is valid and
// means the renderer default.
func (t TransitionType) Valid() bool { return t == "" || contains(TransitionTypes, t) }

func contains[T comparable](set []T, v T) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}

// MaxViewerCountdown bounds the viewer waiting countdown, in seconds.
const MaxViewerCountdown = 300

// Settings is the viewer-facing display configuration a session mirrors locally.
type Settings struct {
	ShowSlideRing   bool
	ViewerSize      ViewerSize
	Background      BackgroundStyle
	ViewerCountdown int
	ViewerAnimation ViewerAnimation
}

// DefaultSettings returns the values a session starts with before the first poll.
func DefaultSettings() Settings {
	return Settings{
		ShowSlideRing:   true,
		ViewerSize:      ViewerResponsive,
		Background:      BackgroundInteractive,
		ViewerAnimation: AnimationPulse,
	}
}

// Merge reads through every settings field p carries. Missing or unknown
// values leave the local value unchanged.
func (s Settings) Merge(p *Presentation) Settings {
	if p == nil {
		return s
	}
	if p.ShowSlideRing != nil {
		s.ShowSlideRing = *p.ShowSlideRing
	}
	if p.ViewerSize != nil && p.ViewerSize.Valid() {
		s.ViewerSize = *p.ViewerSize
	}
	if p.BackgroundType != nil && p.BackgroundType.Valid() {
		s.Background = *p.BackgroundType
	}
	if p.ViewerCountdown != nil {
		s.ViewerCountdown = ClampCountdown(*p.ViewerCountdown)
	}
	if p.ViewerAnimation != nil && p.ViewerAnimation.Valid() {
		s.ViewerAnimation = *p.ViewerAnimation
	}
	return s
}

// ClampCountdown bounds a viewer countdown to 0..MaxViewerCountdown.
func ClampCountdown(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxViewerCountdown {
		return MaxViewerCountdown
	}
	return v
}
