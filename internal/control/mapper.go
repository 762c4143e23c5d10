package control

import (
	"github.com/ayusman/airsynth/internal/detector"
	"github.com/ayusman/airsynth/internal/geom"
)

// Pitch range defaults in Hz.
const (
	DefaultMinFreq = 100.0
	DefaultMaxFreq = 1500.0
)

// MapperConfig bounds the pitch mapping.
type MapperConfig struct {
	MinFreq float64
	MaxFreq float64
}

// DefaultMapperConfig returns the standard 100-1500 Hz range.
func DefaultMapperConfig() MapperConfig {
	return MapperConfig{MinFreq: DefaultMinFreq, MaxFreq: DefaultMaxFreq}
}

// Presence reports which hands were seen in a frame.
type Presence struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Mapper writes hand positions into a Target. The right index fingertip's x
// sets pitch and the left index fingertip's y sets volume.
type Mapper struct {
	config MapperConfig
	target *Target
}

// NewMapper creates a Mapper writing into target.
func NewMapper(config MapperConfig, target *Target) *Mapper {
	if config.MinFreq <= 0 {
		config.MinFreq = DefaultMinFreq
	}
	if config.MaxFreq <= config.MinFreq {
		config.MaxFreq = DefaultMaxFreq
	}
	return &Mapper{config: config, target: target}
}

// Apply updates the target from one vision tick.
//
// A missing right hand holds the last pitch. A missing left hand sets the
// volume target to zero at once; the fade is left to the smoothing loop.
func (m *Mapper) Apply(hands []detector.HandLandmarks) Presence {
	var p Presence

	if right, ok := detector.FindHand(hands, detector.Right); ok {
		p.Right = true
		m.target.SetPitch(PitchFromX(right.Points[detector.IndexTip].X, m.config.MinFreq, m.config.MaxFreq))
	}

	if left, ok := detector.FindHand(hands, detector.Left); ok {
		p.Left = true
		m.target.SetVolume(VolumeFromY(left.Points[detector.IndexTip].Y))
	} else {
		m.target.SetVolume(0)
	}

	return p
}

// PitchFromX maps a normalized x to [minFreq, maxFreq]. The axis is inverted
// to match a mirrored preview: x=0 is the top of the range.
func PitchFromX(x, minFreq, maxFreq float64) float64 {
	hz := geom.Lerp(minFreq, maxFreq, 1-x)
	return geom.Clamp(hz, minFreq, maxFreq)
}

// VolumeFromY maps a normalized y to [0, 1], loud at the top of the frame.
func VolumeFromY(y float64) float64 {
	return geom.Clamp(1-y, 0, 1)
}
