package synth

import "math"

// param is an automatable value driven by the engine's sample clock.
// A new ramp starts from wherever the previous one had reached, so
// scheduling over an unfinished ramp supersedes it without a jump.
type param struct {
	from  float64
	to    float64
	start int64
	end   int64
	exp   bool
}

func newParam(v float64) param {
	return param{from: v, to: v}
}

// valueAt returns the value at sample n.
func (p *param) valueAt(n int64) float64 {
	if n >= p.end {
		return p.to
	}
	if n <= p.start {
		return p.from
	}
	t := float64(n-p.start) / float64(p.end-p.start)
	if p.exp {
		return p.from * math.Pow(p.to/p.from, t)
	}
	return p.from + (p.to-p.from)*t
}

// target is the value the param settles on once the current ramp completes.
func (p *param) target() float64 {
	return p.to
}

// rampTo schedules a linear ramp from the current value to v over dur samples.
func (p *param) rampTo(v float64, now, dur int64) {
	p.schedule(v, now, dur, false)
}

// expRampTo schedules an exponential ramp, which moves by equal ratios per
// sample. Both ends must be positive; otherwise it falls back to linear.
func (p *param) expRampTo(v float64, now, dur int64) {
	p.schedule(v, now, dur, true)
}

func (p *param) schedule(v float64, now, dur int64, exp bool) {
	cur := p.valueAt(now)
	if dur <= 0 {
		p.set(v)
		return
	}
	p.from = cur
	p.to = v
	p.start = now
	p.end = now + dur
	p.exp = exp && cur > 0 && v > 0
}

// set jumps to v immediately.
func (p *param) set(v float64) {
	p.from = v
	p.to = v
	p.start = 0
	p.end = 0
	p.exp = false
}
