package control

import (
	"context"
	"sync"
	"time"
)

// DefaultTickInterval paces the loop at roughly display refresh rate.
const DefaultTickInterval = time.Second / 60

// Output receives the smoothed values every tick.
type Output interface {
	SetFrequency(hz float64)
	SetVolume(v float64)
}

// LoopConfig configures a Loop.
type LoopConfig struct {
	Interval  time.Duration
	Smoothing float64
	Initial   Smoothed
	// OnTick, if set, is called after every iteration with the new values
	// and how long the iteration took.
	OnTick func(s Smoothed, took time.Duration)
}

// Loop runs the smoothing filter at a fixed rate, independent of how often
// vision frames arrive, and forwards every result to the output whether or
// not it changed.
type Loop struct {
	config   LoopConfig
	target   *Target
	out      Output
	smoother *Smoother

	current Smoothed
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

// NewLoop creates a stopped loop reading target and writing out.
func NewLoop(config LoopConfig, target *Target, out Output) *Loop {
	if config.Interval <= 0 {
		config.Interval = DefaultTickInterval
	}
	return &Loop{
		config:   config,
		target:   target,
		out:      out,
		smoother: NewSmoother(config.Smoothing, config.Initial),
		current:  config.Initial,
	}
}

// Start launches the loop goroutine. It is a no-op while already running.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

// Stop cancels the loop and waits for the goroutine to exit. Stopping a loop
// that is not running does nothing.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop goroutine is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Tick runs one iteration: read the target, step the filter and forward the
// result. The goroutine calls it on every tick; tests may call it directly.
func (l *Loop) Tick() Smoothed {
	start := time.Now()

	pitch, volume := l.target.Get()

	l.mu.Lock()
	s := l.smoother.Step(pitch, volume)
	l.current = s
	l.mu.Unlock()

	l.out.SetFrequency(s.Pitch)
	l.out.SetVolume(s.Volume)

	if l.config.OnTick != nil {
		l.config.OnTick(s, time.Since(start))
	}
	return s
}

// Current returns the most recent smoothed values.
func (l *Loop) Current() Smoothed {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Reset moves the filter and the reported values to s without forwarding
// anything to the output.
func (l *Loop) Reset(s Smoothed) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.smoother.Reset(s)
	l.current = s
}
