package synth

import (
	"errors"
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

func newTestEngine(t *testing.T) (*Engine, *NullSink) {
	t.Helper()
	sink := NewNullSink()
	e := New(DefaultConfig(), sink)
	if err := e.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return e, sink
}

// settle renders d worth of audio so pending ramps complete.
func settle(e *Engine, d time.Duration) []float32 {
	buf := make([]float32, int(d.Seconds()*float64(e.SampleRate())))
	e.Render(buf)
	return buf
}

func peak(buf []float32) float64 {
	var p float64
	for _, s := range buf {
		p = math.Max(p, math.Abs(float64(s)))
	}
	return p
}

func TestEngine_Lifecycle(t *testing.T) {
	t.Run("start before init fails", func(t *testing.T) {
		e := New(DefaultConfig(), NewNullSink())
		if err := e.Start(); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("expected ErrNotInitialized, got %v", err)
		}
		if e.State() != StateUninitialized {
			t.Errorf("expected uninitialized, got %s", e.State())
		}
	})

	t.Run("init is idempotent", func(t *testing.T) {
		e, sink := newTestEngine(t)
		if err := e.Init(); err != nil {
			t.Fatalf("second Init() error = %v", err)
		}
		if e.State() != StateInitialized {
			t.Errorf("expected initialized, got %s", e.State())
		}
		if !sink.Opened() {
			t.Error("expected sink to be opened")
		}
	})

	t.Run("failed init can be retried", func(t *testing.T) {
		sink := NewNullSink()
		sink.OpenErr = errors.New("no device")
		e := New(DefaultConfig(), sink)

		if err := e.Init(); err == nil {
			t.Fatal("expected Init to fail")
		}
		if e.State() != StateUninitialized {
			t.Errorf("expected uninitialized after failure, got %s", e.State())
		}

		sink.OpenErr = nil
		if err := e.Init(); err != nil {
			t.Fatalf("retry Init() error = %v", err)
		}
		if e.State() != StateInitialized {
			t.Errorf("expected initialized after retry, got %s", e.State())
		}
	})

	t.Run("start resumes output and plays", func(t *testing.T) {
		e, sink := newTestEngine(t)
		if err := e.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if !e.IsPlaying() {
			t.Error("expected playing")
		}
		if err := e.Start(); err != nil {
			t.Fatalf("second Start() error = %v", err)
		}
		if sink.Resumes() != 1 {
			t.Errorf("expected 1 resume, got %d", sink.Resumes())
		}
	})

	t.Run("resume failure leaves engine stopped", func(t *testing.T) {
		e, sink := newTestEngine(t)
		sink.ResumeErr = errors.New("suspended")
		if err := e.Start(); err == nil {
			t.Fatal("expected Start to fail")
		}
		if e.IsPlaying() {
			t.Error("engine should not be playing")
		}
	})
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Stop() // not playing yet
	if e.State() != StateInitialized {
		t.Errorf("stop before start should be a no-op, got %s", e.State())
	}

	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	e.SetVolume(1)
	settle(e, 100*time.Millisecond)

	e.Stop()
	settle(e, 150*time.Millisecond)
	once := e.Snapshot()
	onceGains := e.CurrentGains()

	e.Stop()
	settle(e, 150*time.Millisecond)
	twice := e.Snapshot()

	if once.State != StateStopped || twice.State != StateStopped {
		t.Errorf("expected stopped, got %s then %s", once.State, twice.State)
	}
	if once.Playing || twice.Playing {
		t.Error("expected not playing")
	}
	if onceGains.Master != 0 || e.CurrentGains().Master != 0 {
		t.Errorf("expected silent master, got %f", e.CurrentGains().Master)
	}
}

func TestEngine_StopFadesOut(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetDelayMix(0)
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	e.SetVolume(1)
	settle(e, 100*time.Millisecond)

	e.Stop()
	// Halfway through the release the master is still audible.
	settle(e, 50*time.Millisecond)
	if g := e.CurrentGains().Master; g <= 0 || g >= 1 {
		t.Errorf("expected master mid-fade, got %f", g)
	}

	settle(e, 60*time.Millisecond)
	tail := settle(e, 50*time.Millisecond)
	if p := peak(tail); p != 0 {
		t.Errorf("expected silence after release, got peak %f", p)
	}
}

func TestEngine_SuspendsAfterRelease(t *testing.T) {
	t.Run("stop suspends the sink", func(t *testing.T) {
		e, sink := newTestEngine(t)
		if err := e.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		e.Stop()
		if sink.Suspends() != 0 {
			t.Fatal("sink suspended before the release finished")
		}

		deadline := time.Now().Add(time.Second)
		for sink.Suspends() == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		if sink.Suspends() != 1 {
			t.Fatalf("expected 1 suspend, got %d", sink.Suspends())
		}

		if err := e.Start(); err != nil {
			t.Fatalf("restart error = %v", err)
		}
		if sink.Resumes() != 2 {
			t.Errorf("expected restart to resume, got %d resumes", sink.Resumes())
		}
	})

	t.Run("restart cancels the suspend", func(t *testing.T) {
		e, sink := newTestEngine(t)
		if err := e.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		e.Stop()
		if err := e.Start(); err != nil {
			t.Fatalf("restart error = %v", err)
		}
		time.Sleep(3 * ReleaseRamp)
		if n := sink.Suspends(); n != 0 {
			t.Errorf("expected no suspend while playing, got %d", n)
		}
	})

	t.Run("close cancels the suspend", func(t *testing.T) {
		e, sink := newTestEngine(t)
		if err := e.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if err := e.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		time.Sleep(3 * ReleaseRamp)
		if n := sink.Suspends(); n != 0 {
			t.Errorf("expected no suspend after close, got %d", n)
		}
	})
}

func TestEngine_AnalogModeBeforeStart(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetDelayMix(0)
	e.SetAnalogMode(true)
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	e.SetVolume(1)
	settle(e, 200*time.Millisecond)

	want := NewShaper().Apply(1)
	if p := peak(settle(e, 50*time.Millisecond)); math.Abs(p-want) > 1e-3 {
		t.Errorf("expected a new oscillator on the shaped route, peak %f want %f", p, want)
	}
}

func TestEngine_SetVolumeIsSquared(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for _, v := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		e.SetVolume(v)
		if got := e.TargetGains().Master; math.Abs(got-v*v) > epsilon {
			t.Errorf("SetVolume(%v): target gain = %v, want %v", v, got, v*v)
		}
		settle(e, VolumeRamp)
		if got := e.CurrentGains().Master; math.Abs(got-v*v) > epsilon {
			t.Errorf("SetVolume(%v): settled gain = %v, want %v", v, got, v*v)
		}
	}

	t.Run("clamps out of range", func(t *testing.T) {
		e.SetVolume(1.5)
		if got := e.TargetGains().Master; got != 1 {
			t.Errorf("expected 1, got %f", got)
		}
		e.SetVolume(-1)
		if got := e.TargetGains().Master; got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
	})
}

func TestEngine_SetVolumeIgnoredWhileStopped(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetVolume(0.8)
	if got := e.TargetGains().Master; got != 0 {
		t.Errorf("expected master to stay 0 before start, got %f", got)
	}
}

func TestEngine_DelayCrossfadeSumsToOne(t *testing.T) {
	e, _ := newTestEngine(t)

	for _, m := range []float64{0, 0.1, 0.3, 0.5, 0.8, 0.95, -0.2} {
		e.SetDelayMix(m)
		settle(e, MixRamp)

		g := e.CurrentGains()
		if math.Abs(g.Dry+g.Wet-1) > epsilon {
			t.Errorf("SetDelayMix(%v): dry %f + wet %f != 1", m, g.Dry, g.Wet)
		}
		if e.DelayMix() < 0 || e.DelayMix() > MaxDelayMix {
			t.Errorf("SetDelayMix(%v): mix %f out of range", m, e.DelayMix())
		}
	}

	t.Run("mid-ramp also sums to one", func(t *testing.T) {
		e.SetDelayMix(0)
		settle(e, MixRamp)
		e.SetDelayMix(0.8)
		settle(e, MixRamp/3)
		g := e.CurrentGains()
		if math.Abs(g.Dry+g.Wet-1) > 1e-6 {
			t.Errorf("dry %f + wet %f != 1", g.Dry, g.Wet)
		}
	})
}

func TestEngine_DelayMixBeforeInit(t *testing.T) {
	e := New(DefaultConfig(), NewNullSink())
	e.SetDelayMix(0.6)
	if err := e.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	g := e.CurrentGains()
	if math.Abs(g.Wet-0.6) > epsilon || math.Abs(g.Dry-0.4) > epsilon {
		t.Errorf("expected dry 0.4 wet 0.6, got %+v", g)
	}
}

func TestEngine_SetFrequency(t *testing.T) {
	t.Run("no oscillator is a no-op", func(t *testing.T) {
		e, _ := newTestEngine(t)
		e.SetFrequency(1000)
		settle(e, FrequencyRamp)
		if f := e.Snapshot().Frequency; f != 440 {
			t.Errorf("expected frequency to stay 440, got %f", f)
		}
	})

	t.Run("ramps to target", func(t *testing.T) {
		e, _ := newTestEngine(t)
		if err := e.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		e.SetFrequency(1000)
		settle(e, FrequencyRamp/2)
		mid := e.Snapshot().Frequency
		if mid <= 440 || mid >= 1000 {
			t.Errorf("expected frequency mid-ramp, got %f", mid)
		}
		// Halfway through an exponential glide sits at the geometric mean.
		if want := math.Sqrt(440 * 1000); math.Abs(mid-want) > 2 {
			t.Errorf("expected about %f halfway, got %f", want, mid)
		}
		settle(e, FrequencyRamp)
		if f := e.Snapshot().Frequency; f != 1000 {
			t.Errorf("expected 1000, got %f", f)
		}
	})

	t.Run("new ramp supersedes without a jump", func(t *testing.T) {
		e, _ := newTestEngine(t)
		if err := e.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		e.SetFrequency(1440)
		settle(e, FrequencyRamp/2)
		before := e.Snapshot().Frequency

		e.SetFrequency(200)
		if after := e.Snapshot().Frequency; math.Abs(after-before) > epsilon {
			t.Errorf("expected ramp to continue from %f, got %f", before, after)
		}
		settle(e, FrequencyRamp)
		if f := e.Snapshot().Frequency; f != 200 {
			t.Errorf("expected 200, got %f", f)
		}
	})
}

func TestEngine_SetWaveform(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	e.SetWaveform(Square)
	if e.Waveform() != Square {
		t.Errorf("expected square, got %s", e.Waveform())
	}
	e.SetWaveform("noise")
	if e.Waveform() != Square {
		t.Errorf("invalid waveform should be ignored, got %s", e.Waveform())
	}

	e.SetDelayMix(0)
	e.SetVolume(1)
	settle(e, 200*time.Millisecond)
	buf := settle(e, 20*time.Millisecond)
	for i, s := range buf {
		if s != 1 && s != -1 {
			t.Fatalf("sample %d = %f, expected square wave at full scale", i, s)
		}
	}
}

func TestEngine_AnalogModeSaturates(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetDelayMix(0)
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	e.SetVolume(1)
	settle(e, 200*time.Millisecond)

	clean := peak(settle(e, 50*time.Millisecond))

	e.SetAnalogMode(true)
	if !e.AnalogMode() {
		t.Fatal("expected analog mode on")
	}
	shaped := peak(settle(e, 50*time.Millisecond))

	if math.Abs(clean-1) > 1e-3 {
		t.Errorf("expected clean peak near 1, got %f", clean)
	}
	want := NewShaper().Apply(1)
	if math.Abs(shaped-want) > 1e-3 {
		t.Errorf("expected shaped peak near %f, got %f", want, shaped)
	}

	e.SetAnalogMode(false)
	if p := peak(settle(e, 50*time.Millisecond)); math.Abs(p-1) > 1e-3 {
		t.Errorf("expected clean peak after disabling analog, got %f", p)
	}
}

func TestEngine_DelayProducesEcho(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetDelayMix(0.5)
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	e.SetVolume(1)
	settle(e, 500*time.Millisecond)
	e.Stop()

	// Master fades, but before it does the dry path is gone and only echoes
	// from the delay line remain.
	buf := settle(e, 90*time.Millisecond)
	if peak(buf[len(buf)/2:]) == 0 {
		t.Error("expected delay tail after the oscillator is removed")
	}
}

func TestEngine_RenderSilentBeforeInit(t *testing.T) {
	e := New(DefaultConfig(), nil)
	buf := []float32{1, 1, 1}
	e.Render(buf)
	for _, s := range buf {
		if s != 0 {
			t.Fatalf("expected silence, got %f", s)
		}
	}
}

func TestEngine_Read(t *testing.T) {
	e, _ := newTestEngine(t)

	p := make([]byte, 1027)
	n, err := e.Read(p)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != 1024 {
		t.Errorf("expected 1024 bytes (128 stereo frames), got %d", n)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateUninitialized: "uninitialized",
		StateInitialized:   "initialized",
		StatePlaying:       "playing",
		StateStopped:       "stopped",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("expected %q, got %q", want, s.String())
		}
	}
}
