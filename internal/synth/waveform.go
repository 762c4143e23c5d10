package synth

import (
	"fmt"
	"math"
	"strings"
)

// Waveform is the oscillator shape.
type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Sawtooth Waveform = "sawtooth"
	Triangle Waveform = "triangle"
)

// CycleOrder is the fixed order the cycle gesture steps through.
var CycleOrder = []Waveform{Sine, Triangle, Sawtooth, Square}

// Next returns the waveform after w in CycleOrder, wrapping around.
// Unknown values restart the cycle at Sine.
func (w Waveform) Next() Waveform {
	for i, c := range CycleOrder {
		if c == w {
			return CycleOrder[(i+1)%len(CycleOrder)]
		}
	}
	return Sine
}

// Valid reports whether w is one of the four supported shapes.
func (w Waveform) Valid() bool {
	switch w {
	case Sine, Square, Sawtooth, Triangle:
		return true
	}
	return false
}

// ParseWaveform accepts a waveform name in any case.
func ParseWaveform(s string) (Waveform, error) {
	w := Waveform(strings.ToLower(strings.TrimSpace(s)))
	if !w.Valid() {
		return "", fmt.Errorf("unknown waveform %q", s)
	}
	return w, nil
}

// sample evaluates one period of the waveform at phase in [0, 1).
// Every shape starts at zero and rises, matching a sine's phase.
func (w Waveform) sample(phase float64) float64 {
	switch w {
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		p := phase + 0.5
		if p >= 1 {
			p--
		}
		return 2*p - 1
	case Triangle:
		switch {
		case phase < 0.25:
			return 4 * phase
		case phase < 0.75:
			return 2 - 4*phase
		default:
			return 4*phase - 4
		}
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// oscillator is a phase-accumulating source. It exists only while the engine
// is playing; analog selects the route through the shaper.
type oscillator struct {
	waveform Waveform
	phase    float64
	analog   bool
}

func (o *oscillator) next(freq, sampleRate float64) float64 {
	s := o.waveform.sample(o.phase)
	o.phase += freq / sampleRate
	o.phase -= math.Floor(o.phase)
	return s
}
