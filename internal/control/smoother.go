package control

import "github.com/ayusman/airsynth/internal/geom"

// DefaultSmoothing is the per-tick coefficient of the exponential filter.
const DefaultSmoothing = 0.15

// Smoothed is the filtered pitch and volume.
type Smoothed struct {
	Pitch  float64
	Volume float64
}

// Smoother moves its values a fixed fraction of the way to the target on
// every step. Attack and release use the same coefficient and the output
// never overshoots a target that is held.
type Smoother struct {
	factor  float64
	current Smoothed
}

// NewSmoother starts at initial. factor outside (0, 1] takes DefaultSmoothing.
func NewSmoother(factor float64, initial Smoothed) *Smoother {
	if factor <= 0 || factor > 1 {
		factor = DefaultSmoothing
	}
	return &Smoother{factor: factor, current: initial}
}

// Step advances one iteration toward (pitch, volume).
func (s *Smoother) Step(pitch, volume float64) Smoothed {
	s.current.Pitch = geom.Lerp(s.current.Pitch, pitch, s.factor)
	s.current.Volume = geom.Clamp(geom.Lerp(s.current.Volume, volume, s.factor), 0, 1)
	return s.current
}

// Current returns the latest values without stepping.
func (s *Smoother) Current() Smoothed {
	return s.current
}

// Reset jumps straight to s.
func (s *Smoother) Reset(v Smoothed) {
	s.current = v
}
