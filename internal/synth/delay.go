package synth

// delayLine is a fixed-length circular buffer with a feedback tap.
// Each sample written is the input plus the delayed output scaled by
// feedback, which produces a decaying echo train.
type delayLine struct {
	buf      []float64
	pos      int
	feedback float64
}

func newDelayLine(samples int, feedback float64) *delayLine {
	if samples < 1 {
		samples = 1
	}
	return &delayLine{
		buf:      make([]float64, samples),
		feedback: feedback,
	}
}

// process pushes in and returns the sample that entered len(buf) samples ago.
func (d *delayLine) process(in float64) float64 {
	out := d.buf[d.pos]
	d.buf[d.pos] = in + out*d.feedback
	d.pos++
	if d.pos == len(d.buf) {
		d.pos = 0
	}
	return out
}

func (d *delayLine) reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}
