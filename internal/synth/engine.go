// Package synth implements the audio graph driven by the hand controls:
//
//	oscillator -> [saturation] -> dry gain ----------------> master -> analyser -> sink
//	                           \-> delay <-> feedback -> wet gain -/
//
// All parameter changes are ramps on the engine's sample clock, so setters
// never block and a later ramp replaces an earlier one.
package synth

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/ayusman/airsynth/internal/geom"
)

// Ramp durations.
const (
	FrequencyRamp = 50 * time.Millisecond
	VolumeRamp    = 50 * time.Millisecond
	MixRamp       = 100 * time.Millisecond
	ReleaseRamp   = 100 * time.Millisecond
)

// MaxDelayMix caps the wet level so some dry signal is always present.
const MaxDelayMix = 0.8

// ErrNotInitialized is returned by Start before Init has succeeded.
var ErrNotInitialized = errors.New("audio engine not initialized")

// State is the engine lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StatePlaying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config holds the fixed properties of the graph.
type Config struct {
	SampleRate int
	Channels   int
	DelayTime  time.Duration
	Feedback   float64
	DelayMix   float64
	Waveform   Waveform
	FFTSize    int
}

// DefaultConfig returns the standard graph settings.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		Channels:   2,
		DelayTime:  400 * time.Millisecond,
		Feedback:   0.4,
		DelayMix:   0.3,
		Waveform:   Sine,
		FFTSize:    DefaultFFTSize,
	}
}

// Gains is a view of the three gain stages.
type Gains struct {
	Master float64
	Dry    float64
	Wet    float64
}

// Snapshot is a point-in-time copy of the engine's observable state.
type Snapshot struct {
	State      State
	Waveform   Waveform
	DelayMix   float64
	AnalogMode bool
	Playing    bool
	Frequency  float64
}

// Engine owns the signal graph. It is safe for concurrent use; the sink
// renders from its own goroutine while control code calls the setters.
type Engine struct {
	config Config
	sink   Sink

	state    State
	waveform Waveform
	delayMix float64
	analog   bool

	// Graph nodes, built once by Init.
	osc      *oscillator
	shaper   *Shaper
	delay    *delayLine
	analyser *Analyser
	freq     param
	master   param
	dry      param
	wet      param

	frame   int64
	scratch []float32
	mu      sync.Mutex

	// suspend idles the device once a release has faded out. stopGen
	// identifies the Stop that scheduled it; sinkMu orders Resume and
	// Suspend calls.
	suspend *time.Timer
	stopGen int
	sinkMu  sync.Mutex
}

// New creates an uninitialized engine that will play through sink.
func New(config Config, sink Sink) *Engine {
	def := DefaultConfig()
	if config.SampleRate <= 0 {
		config.SampleRate = def.SampleRate
	}
	if config.Channels <= 0 {
		config.Channels = def.Channels
	}
	if config.DelayTime <= 0 {
		config.DelayTime = def.DelayTime
	}
	if !config.Waveform.Valid() {
		config.Waveform = def.Waveform
	}
	if config.FFTSize <= 0 {
		config.FFTSize = def.FFTSize
	}
	if sink == nil {
		sink = NewNullSink()
	}

	return &Engine{
		config:   config,
		sink:     sink,
		state:    StateUninitialized,
		waveform: config.Waveform,
		delayMix: geom.Clamp(config.DelayMix, 0, MaxDelayMix),
		analyser: NewAnalyser(config.FFTSize),
	}
}

// Init builds the graph and opens the output device. It is a no-op once it
// has succeeded. On failure the engine stays uninitialized and Init may be
// retried.
func (e *Engine) Init() error {
	e.mu.Lock()
	if e.state != StateUninitialized {
		e.mu.Unlock()
		return nil
	}

	delaySamples := int(e.config.DelayTime.Seconds() * float64(e.config.SampleRate))
	e.shaper = NewShaper()
	e.delay = newDelayLine(delaySamples, e.config.Feedback)
	e.freq = newParam(440)
	e.master = newParam(0)
	e.dry = newParam(1 - e.delayMix)
	e.wet = newParam(e.delayMix)
	e.analyser.reset()
	e.frame = 0
	e.mu.Unlock()

	// The sink may start pulling immediately, so it is opened unlocked.
	if err := e.sink.Open(e, e.config.SampleRate, e.config.Channels); err != nil {
		return fmt.Errorf("open audio output: %w", err)
	}

	e.mu.Lock()
	e.state = StateInitialized
	e.mu.Unlock()
	return nil
}

// Start creates the oscillator and begins playback. It is a no-op while
// already playing.
func (e *Engine) Start() error {
	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()

	e.mu.Lock()
	switch e.state {
	case StateUninitialized:
		e.mu.Unlock()
		return ErrNotInitialized
	case StatePlaying:
		e.mu.Unlock()
		return nil
	}
	e.cancelSuspend()
	e.mu.Unlock()

	if err := e.sink.Resume(); err != nil {
		return fmt.Errorf("resume audio output: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StatePlaying {
		return nil
	}
	e.osc = &oscillator{waveform: e.waveform}
	e.route()
	e.state = StatePlaying
	return nil
}

// Stop discards the oscillator and fades the master gain to zero. Once the
// release has run out the output device is suspended. Calling it while not
// playing does nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying {
		return
	}
	e.osc = nil
	e.master.rampTo(0, e.frame, e.samples(ReleaseRamp))
	e.state = StateStopped

	e.stopGen++
	gen := e.stopGen
	e.suspend = time.AfterFunc(ReleaseRamp, func() { e.suspendAfterRelease(gen) })
}

// Close stops playback and releases the output device.
func (e *Engine) Close() error {
	e.Stop()

	e.mu.Lock()
	e.cancelSuspend()
	e.mu.Unlock()
	return e.sink.Close()
}

// cancelSuspend drops a pending suspend. Callers hold e.mu.
func (e *Engine) cancelSuspend() {
	if e.suspend != nil {
		e.suspend.Stop()
		e.suspend = nil
	}
	e.stopGen++
}

func (e *Engine) suspendAfterRelease(gen int) {
	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()

	e.mu.Lock()
	current := e.state == StateStopped && e.stopGen == gen
	if current {
		e.suspend = nil
	}
	e.mu.Unlock()
	if !current {
		return
	}

	if err := e.sink.Suspend(); err != nil {
		log.Printf("suspend audio output: %v", err)
	}
}

// route points the oscillator at the shaper when analog mode is on and
// straight at the gain stages otherwise.
func (e *Engine) route() {
	if e.osc != nil {
		e.osc.analog = e.analog
	}
}

// SetFrequency ramps the oscillator toward hz exponentially, so a glide
// covers equal musical intervals in equal time. Without an oscillator it
// does nothing.
func (e *Engine) SetFrequency(hz float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.osc == nil || math.IsNaN(hz) {
		return
	}
	e.freq.expRampTo(hz, e.frame, e.samples(FrequencyRamp))
}

// SetVolume ramps the master gain toward v². Squaring keeps fades near
// silence smooth to the ear. v is clamped to [0, 1]; the call is ignored
// while nothing is playing so a stopped engine stays silent.
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying {
		return
	}
	v = geom.Clamp(v, 0, 1)
	e.master.rampTo(v*v, e.frame, e.samples(VolumeRamp))
}

// SetWaveform changes the held waveform and retunes a running oscillator in place.
func (e *Engine) SetWaveform(w Waveform) {
	if !w.Valid() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.waveform = w
	if e.osc != nil {
		e.osc.waveform = w
	}
}

// SetDelayMix crossfades dry and wet so their gains always sum to one.
// mix is clamped to [0, MaxDelayMix].
func (e *Engine) SetDelayMix(mix float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mix = geom.Clamp(mix, 0, MaxDelayMix)
	e.delayMix = mix
	if e.state == StateUninitialized {
		return
	}
	dur := e.samples(MixRamp)
	e.dry.rampTo(1-mix, e.frame, dur)
	e.wet.rampTo(mix, e.frame, dur)
}

// SetAnalogMode inserts or removes the saturation stage. A playing
// oscillator switches route on the next rendered sample.
func (e *Engine) SetAnalogMode(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.analog = enabled
	e.route()
}

// Waveform returns the held waveform.
func (e *Engine) Waveform() Waveform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.waveform
}

// DelayMix returns the current wet level setting.
func (e *Engine) DelayMix() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.delayMix
}

// AnalogMode reports whether saturation is enabled.
func (e *Engine) AnalogMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analog
}

// IsPlaying reports whether an oscillator is running.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StatePlaying
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns a copy of the observable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:      e.state,
		Waveform:   e.waveform,
		DelayMix:   e.delayMix,
		AnalogMode: e.analog,
		Playing:    e.state == StatePlaying,
		Frequency:  e.freq.valueAt(e.frame),
	}
}

// CurrentGains returns the gain values at the current sample.
func (e *Engine) CurrentGains() Gains {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Gains{
		Master: e.master.valueAt(e.frame),
		Dry:    e.dry.valueAt(e.frame),
		Wet:    e.wet.valueAt(e.frame),
	}
}

// TargetGains returns the values the gains settle on once ramps complete.
func (e *Engine) TargetGains() Gains {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Gains{
		Master: e.master.target(),
		Dry:    e.dry.target(),
		Wet:    e.wet.target(),
	}
}

// Analyser returns the output analysis tap.
func (e *Engine) Analyser() *Analyser {
	return e.analyser
}

// SampleRate returns the configured sample rate.
func (e *Engine) SampleRate() int {
	return e.config.SampleRate
}

func (e *Engine) samples(d time.Duration) int64 {
	return int64(d.Seconds() * float64(e.config.SampleRate))
}

// Render fills buf with mono samples and advances the sample clock.
// Before Init it produces silence.
func (e *Engine) Render(buf []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateUninitialized {
		for i := range buf {
			buf[i] = 0
		}
		return
	}

	sr := float64(e.config.SampleRate)
	for i := range buf {
		n := e.frame

		var src float64
		if e.osc != nil {
			src = e.osc.next(e.freq.valueAt(n), sr)
			if e.osc.analog {
				src = e.shaper.Apply(src)
			}
		}

		delayed := e.delay.process(src)
		mix := src*e.dry.valueAt(n) + delayed*e.wet.valueAt(n)
		out := float32(mix * e.master.valueAt(n))

		e.analyser.push(out)
		buf[i] = out
		e.frame++
	}
}

// Read implements io.Reader for the sink: float32 little-endian frames with
// the mono signal copied to every channel.
func (e *Engine) Read(p []byte) (int, error) {
	ch := e.config.Channels
	frameBytes := 4 * ch
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}

	if cap(e.scratch) < frames {
		e.scratch = make([]float32, frames)
	}
	buf := e.scratch[:frames]
	e.Render(buf)

	off := 0
	for _, s := range buf {
		bits := math.Float32bits(clipSample(s))
		for c := 0; c < ch; c++ {
			binary.LittleEndian.PutUint32(p[off:], bits)
			off += 4
		}
	}
	return off, nil
}

func clipSample(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
