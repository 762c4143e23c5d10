// Package gesture turns per-frame hand geometry into discrete instrument
// events under a shared cooldown.
package gesture

import (
	"sync"
	"time"

	"github.com/ayusman/airsynth/internal/detector"
	"github.com/ayusman/airsynth/internal/geom"
)

// Event is a discrete gesture recognized from a single frame.
type Event string

const (
	// EventCycleWaveform is fired by a right-hand pinch.
	EventCycleWaveform Event = "cycle_waveform"
	// EventToggleDelay is fired by a left-hand fist.
	EventToggleDelay Event = "toggle_delay"
)

// Default thresholds, in normalized image units.
const (
	DefaultPinchThreshold = 0.05
	DefaultFistThreshold  = 0.15
	DefaultCooldown       = 1000 * time.Millisecond
	// FistMinCurled is how many of the four fingertips must be near the wrist.
	FistMinCurled = 3
)

// Config holds the recognition thresholds.
type Config struct {
	PinchThreshold float64
	FistThreshold  float64
	Cooldown       time.Duration
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		PinchThreshold: DefaultPinchThreshold,
		FistThreshold:  DefaultFistThreshold,
		Cooldown:       DefaultCooldown,
	}
}

var fingertips = [...]int{detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}

// Detector recognizes pinch and fist poses. One cooldown window is shared by
// every event kind: after any event fires, nothing fires again until the
// window has elapsed.
type Detector struct {
	config      Config
	now         func() time.Time
	lastGesture time.Time
	mu          sync.Mutex
}

// NewDetector creates a Detector. Zero thresholds take the defaults.
func NewDetector(config Config) *Detector {
	def := DefaultConfig()
	if config.PinchThreshold <= 0 {
		config.PinchThreshold = def.PinchThreshold
	}
	if config.FistThreshold <= 0 {
		config.FistThreshold = def.FistThreshold
	}
	if config.Cooldown <= 0 {
		config.Cooldown = def.Cooldown
	}
	return &Detector{
		config: config,
		now:    time.Now,
	}
}

// SetClock replaces the time source.
func (d *Detector) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// Detect evaluates one hand. A right-hand pinch yields EventCycleWaveform and
// a left-hand fist yields EventToggleDelay. Within the cooldown window it
// reports nothing regardless of geometry.
func (d *Detector) Detect(hand *detector.HandLandmarks) (Event, bool) {
	if hand == nil {
		return "", false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.lastGesture.IsZero() && now.Sub(d.lastGesture) < d.config.Cooldown {
		return "", false
	}

	var ev Event
	switch {
	case hand.IsRight() && IsPinch(hand, d.config.PinchThreshold):
		ev = EventCycleWaveform
	case hand.IsLeft() && IsFist(hand, d.config.FistThreshold):
		ev = EventToggleDelay
	default:
		return "", false
	}

	d.lastGesture = now
	return ev, true
}

// DetectBatch evaluates every hand of one vision tick, right hand first, and
// returns the first event that fires.
func (d *Detector) DetectBatch(hands []detector.HandLandmarks) (Event, bool) {
	for _, label := range []string{detector.Right, detector.Left} {
		for i := range hands {
			if hands[i].Handedness != label {
				continue
			}
			if ev, ok := d.Detect(&hands[i]); ok {
				return ev, true
			}
		}
	}
	return "", false
}

// Reset clears the cooldown.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastGesture = time.Time{}
}

// IsPinch reports whether the thumb and index tips are closer than threshold.
func IsPinch(hand *detector.HandLandmarks, threshold float64) bool {
	return geom.Distance2D(hand.Point2D(detector.ThumbTip), hand.Point2D(detector.IndexTip)) < threshold
}

// CurledFingers counts fingertips (thumb excluded) within threshold of the wrist.
func CurledFingers(hand *detector.HandLandmarks, threshold float64) int {
	wrist := hand.Point2D(detector.Wrist)
	n := 0
	for _, tip := range fingertips {
		if geom.Distance2D(wrist, hand.Point2D(tip)) < threshold {
			n++
		}
	}
	return n
}

// IsFist reports whether at least FistMinCurled fingertips are curled in.
func IsFist(hand *detector.HandLandmarks, threshold float64) bool {
	return CurledFingers(hand, threshold) >= FistMinCurled
}
