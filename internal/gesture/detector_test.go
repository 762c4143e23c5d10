package gesture

import (
	"testing"
	"time"

	"github.com/ayusman/airsynth/internal/detector"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDetector() (*Detector, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	d := NewDetector(DefaultConfig())
	d.SetClock(clock.Now)
	return d, clock
}

func TestDetector_Pinch(t *testing.T) {
	t.Run("right-hand pinch cycles waveform", func(t *testing.T) {
		d, _ := newTestDetector()
		hand := detector.PinchLandmarks(detector.Right)

		ev, ok := d.Detect(&hand)
		if !ok {
			t.Fatal("expected an event")
		}
		if ev != EventCycleWaveform {
			t.Errorf("expected %s, got %s", EventCycleWaveform, ev)
		}
	})

	t.Run("left-hand pinch is ignored", func(t *testing.T) {
		d, _ := newTestDetector()
		hand := detector.PinchLandmarks(detector.Left)
		if ev, ok := d.Detect(&hand); ok {
			t.Errorf("expected no event, got %s", ev)
		}
	})

	t.Run("open palm is not a pinch", func(t *testing.T) {
		d, _ := newTestDetector()
		hand := detector.OpenPalmLandmarks()
		if ev, ok := d.Detect(&hand); ok {
			t.Errorf("expected no event, got %s", ev)
		}
	})
}

func TestDetector_Fist(t *testing.T) {
	t.Run("left-hand fist toggles delay", func(t *testing.T) {
		d, _ := newTestDetector()
		hand := detector.FistLandmarks(detector.Left)

		ev, ok := d.Detect(&hand)
		if !ok || ev != EventToggleDelay {
			t.Errorf("expected %s, got %s (%v)", EventToggleDelay, ev, ok)
		}
	})

	t.Run("three curled fingers are enough", func(t *testing.T) {
		d, _ := newTestDetector()
		hand := detector.ThumbsUpLandmarks() // pinky sits just outside the threshold
		hand.Handedness = detector.Left

		if n := CurledFingers(&hand, DefaultFistThreshold); n != 3 {
			t.Fatalf("expected 3 curled fingers, got %d", n)
		}
		if _, ok := d.Detect(&hand); !ok {
			t.Error("expected fist with three curled fingers")
		}
	})

	t.Run("right-hand fist is ignored", func(t *testing.T) {
		d, _ := newTestDetector()
		hand := detector.FistLandmarks(detector.Right)
		if ev, ok := d.Detect(&hand); ok {
			t.Errorf("expected no event, got %s", ev)
		}
	})
}

func TestDetector_Cooldown(t *testing.T) {
	pinch := detector.PinchLandmarks(detector.Right)

	t.Run("frames 200ms apart fire once", func(t *testing.T) {
		d, clock := newTestDetector()
		fired := 0
		for i := 0; i < 2; i++ {
			if _, ok := d.Detect(&pinch); ok {
				fired++
			}
			clock.Advance(200 * time.Millisecond)
		}
		if fired != 1 {
			t.Errorf("expected 1 event, got %d", fired)
		}
	})

	t.Run("frames 1100ms apart fire twice", func(t *testing.T) {
		d, clock := newTestDetector()
		fired := 0
		for i := 0; i < 2; i++ {
			if _, ok := d.Detect(&pinch); ok {
				fired++
			}
			clock.Advance(1100 * time.Millisecond)
		}
		if fired != 2 {
			t.Errorf("expected 2 events, got %d", fired)
		}
	})

	t.Run("many frames inside one window fire once", func(t *testing.T) {
		d, clock := newTestDetector()
		fired := 0
		for i := 0; i < 30; i++ { // 30 frames at ~30Hz
			if _, ok := d.Detect(&pinch); ok {
				fired++
			}
			clock.Advance(33 * time.Millisecond)
		}
		if fired != 1 {
			t.Errorf("expected 1 event, got %d", fired)
		}
	})

	t.Run("cooldown is shared across gesture kinds", func(t *testing.T) {
		d, clock := newTestDetector()
		fist := detector.FistLandmarks(detector.Left)

		if _, ok := d.Detect(&pinch); !ok {
			t.Fatal("expected pinch to fire")
		}
		clock.Advance(500 * time.Millisecond)
		if ev, ok := d.Detect(&fist); ok {
			t.Errorf("expected fist to be suppressed, got %s", ev)
		}
		clock.Advance(600 * time.Millisecond)
		if ev, ok := d.Detect(&fist); !ok || ev != EventToggleDelay {
			t.Errorf("expected fist after cooldown, got %s (%v)", ev, ok)
		}
	})

	t.Run("non-gesture frames do not reset the window", func(t *testing.T) {
		d, clock := newTestDetector()
		open := detector.OpenPalmLandmarks()
		if _, ok := d.Detect(&open); ok {
			t.Fatal("open palm should not fire")
		}
		if _, ok := d.Detect(&pinch); !ok {
			t.Error("expected pinch right after a non-gesture frame")
		}
		clock.Advance(time.Second)
		d.Reset()
		if _, ok := d.Detect(&pinch); !ok {
			t.Error("expected pinch after reset")
		}
	})
}

func TestDetector_DetectBatch(t *testing.T) {
	t.Run("right hand wins when both qualify", func(t *testing.T) {
		d, _ := newTestDetector()
		hands := []detector.HandLandmarks{
			detector.FistLandmarks(detector.Left),
			detector.PinchLandmarks(detector.Right),
		}
		ev, ok := d.DetectBatch(hands)
		if !ok || ev != EventCycleWaveform {
			t.Errorf("expected %s, got %s (%v)", EventCycleWaveform, ev, ok)
		}
		if ev, ok := d.DetectBatch(hands); ok {
			t.Errorf("expected cooldown to suppress %s", ev)
		}
	})

	t.Run("left hand fires when right does not qualify", func(t *testing.T) {
		d, _ := newTestDetector()
		hands := []detector.HandLandmarks{
			detector.OpenPalmLandmarks(),
			detector.FistLandmarks(detector.Left),
		}
		ev, ok := d.DetectBatch(hands)
		if !ok || ev != EventToggleDelay {
			t.Errorf("expected %s, got %s (%v)", EventToggleDelay, ev, ok)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		d, _ := newTestDetector()
		if _, ok := d.DetectBatch(nil); ok {
			t.Error("expected no event")
		}
		if _, ok := d.Detect(nil); ok {
			t.Error("expected no event for nil hand")
		}
	})
}

func TestIsPinch_Threshold(t *testing.T) {
	hand := detector.OpenPalmLandmarks()
	hand.Points[detector.ThumbTip] = detector.Point3D{X: 0.58, Y: 0.38}
	hand.Points[detector.IndexTip] = detector.Point3D{X: 0.58, Y: 0.35}

	if !IsPinch(&hand, 0.05) {
		t.Error("tips 0.03 apart should be a pinch")
	}
	if IsPinch(&hand, 0.03) {
		t.Error("threshold is exclusive")
	}
}
