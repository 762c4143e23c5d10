// Package detector finds hand landmarks in camera frames.
//
// Handedness is passed through exactly as the model labels it, "Left" or
// "Right", with no correction for a mirrored camera. Downstream code keys
// every role off that label: the Right hand sets pitch and pinches to cycle
// the waveform, the Left hand sets volume and makes a fist to toggle analog
// mode. A frame can hold at most one hand per label that matters; FindHand
// returns the first.
package detector

import "gocv.io/x/gocv"

// Detector locates hands in a frame.
type Detector interface {
	// Detect returns every hand in frame that carries a full landmark set,
	// labeled Left or Right. No hands is an empty slice, not an error.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	Close() error
}

// Config tunes the hand model.
type Config struct {
	MaxHands        int
	MinConfidence   float64 // hands scored below this are discarded
	MinTrackingConf float64
}

// DefaultConfig tracks both hands at 0.5 confidence.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxHands <= 0 {
		c.MaxHands = def.MaxHands
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = def.MinConfidence
	}
	if c.MinTrackingConf <= 0 {
		c.MinTrackingConf = def.MinTrackingConf
	}
	return c
}
