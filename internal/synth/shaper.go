package synth

import "math"

// Saturation curve parameters.
const (
	CurveLength = 44100
	CurveDrive  = 50.0
)

// curveScale is the c term of the soft-clip: 20 degrees in radians.
const curveScale = 20 * math.Pi / 180

// Shaper is a table-driven waveshaper. The table is built once and shared by
// every sample.
type Shaper struct {
	curve []float64
}

// NewShaper builds the soft-clipping curve
//
//	f(x) = (3+k)·x·c / (π + k·|x|)
//
// sampled at CurveLength points across [-1, 1].
func NewShaper() *Shaper {
	return &Shaper{curve: makeDistortionCurve(CurveDrive, CurveLength)}
}

func makeDistortionCurve(k float64, n int) []float64 {
	curve := make([]float64, n)
	for i := range curve {
		x := float64(i)*2/float64(n) - 1
		curve[i] = (3 + k) * x * curveScale / (math.Pi + k*math.Abs(x))
	}
	return curve
}

// Apply maps an input amplitude through the curve with linear interpolation.
// Inputs outside [-1, 1] take the end values of the table.
func (s *Shaper) Apply(x float64) float64 {
	n := len(s.curve)
	pos := (x + 1) / 2 * float64(n-1)
	if pos <= 0 || math.IsNaN(pos) {
		return s.curve[0]
	}
	if pos >= float64(n-1) {
		return s.curve[n-1]
	}
	i := int(pos)
	frac := pos - float64(i)
	return s.curve[i] + (s.curve[i+1]-s.curve[i])*frac
}

// Len returns the table length.
func (s *Shaper) Len() int {
	return len(s.curve)
}
