package synth

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Analyser defaults.
const (
	DefaultFFTSize         = 2048
	DefaultSmoothing       = 0.8
	MinDecibels            = -100.0
	analyserSilenceDecibel = MinDecibels
)

// Analyser taps the master output. It keeps the most recent FFTSize samples
// for oscilloscope views and derives a smoothed magnitude spectrum on demand.
type Analyser struct {
	size      int
	smoothing float64
	ring      []float32
	pos       int
	fft       *fourier.FFT
	prev      []float64
	mu        sync.Mutex
	// fftMu guards fft and prev. fourier.FFT reuses internal work space,
	// so transforms must not overlap.
	fftMu sync.Mutex
}

// NewAnalyser creates an analyser. size must be a power of two; other values
// fall back to DefaultFFTSize.
func NewAnalyser(size int) *Analyser {
	if size < 32 || size&(size-1) != 0 {
		size = DefaultFFTSize
	}
	return &Analyser{
		size:      size,
		smoothing: DefaultSmoothing,
		ring:      make([]float32, size),
		fft:       fourier.NewFFT(size),
		prev:      make([]float64, size/2),
	}
}

// Size returns the FFT size.
func (a *Analyser) Size() int {
	return a.size
}

// push records one output sample.
func (a *Analyser) push(s float32) {
	a.mu.Lock()
	a.ring[a.pos] = s
	a.pos++
	if a.pos == a.size {
		a.pos = 0
	}
	a.mu.Unlock()
}

// TimeDomainData returns the latest Size samples, oldest first.
func (a *Analyser) TimeDomainData() []float32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]float32, a.size)
	n := copy(out, a.ring[a.pos:])
	copy(out[n:], a.ring[:a.pos])
	return out
}

// FrequencyData returns Size/2 magnitude bins in decibels. Each call blends
// the new spectrum into the previous one by the smoothing constant.
func (a *Analyser) FrequencyData() []float64 {
	a.fftMu.Lock()
	defer a.fftMu.Unlock()

	samples := a.TimeDomainData()

	seq := make([]float64, len(samples))
	for i, s := range samples {
		seq[i] = float64(s)
	}
	window.Blackman(seq)

	coeffs := a.fft.Coefficients(nil, seq)

	out := make([]float64, a.size/2)
	for k := range out {
		mag := cmplx.Abs(coeffs[k]) / float64(a.size)
		a.prev[k] = a.smoothing*a.prev[k] + (1-a.smoothing)*mag
		if a.prev[k] <= 0 {
			out[k] = analyserSilenceDecibel
			continue
		}
		out[k] = math.Max(20*math.Log10(a.prev[k]), MinDecibels)
	}
	return out
}

func (a *Analyser) reset() {
	a.fftMu.Lock()
	defer a.fftMu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.ring {
		a.ring[i] = 0
	}
	for i := range a.prev {
		a.prev[i] = 0
	}
	a.pos = 0
}
