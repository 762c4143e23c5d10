// Package detector provides hand detection interfaces and the landmark types
// consumed by the gesture and control layers.
package detector

import "github.com/ayusman/airsynth/internal/geom"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels as reported by the landmark model.
const (
	Left  = "Left"
	Right = "Right"
)

// Point3D represents a landmark position. X and Y are normalized to the
// frame (0-1); Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand: the 21 MediaPipe landmarks plus the
// handedness label and its confidence. Values are treated as immutable once
// produced.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Point2D projects landmark i onto the image plane.
func (h *HandLandmarks) Point2D(i int) geom.Point2D {
	p := h.Points[i]
	return geom.Point2D{X: p.X, Y: p.Y}
}

// IsLeft reports whether the hand is labeled Left.
func (h *HandLandmarks) IsLeft() bool {
	return h.Handedness == Left
}

// IsRight reports whether the hand is labeled Right.
func (h *HandLandmarks) IsRight() bool {
	return h.Handedness == Right
}

// FindHand returns the first hand carrying the given handedness label.
func FindHand(hands []HandLandmarks, handedness string) (*HandLandmarks, bool) {
	for i := range hands {
		if hands[i].Handedness == handedness {
			return &hands[i], true
		}
	}
	return nil, false
}
