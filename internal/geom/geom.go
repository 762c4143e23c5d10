// Package geom provides the small numeric helpers shared by the control and
// gesture layers.
package geom

import "math"

// Point2D is a position in normalized image coordinates.
type Point2D struct {
	X float64
	Y float64
}

// Lerp linearly interpolates from a toward b by t.
// t is not clamped; t=0 yields a and t=1 yields b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Distance2D returns the Euclidean distance between two points in the image plane.
func Distance2D(a, b Point2D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Clamp limits v to the closed interval [lo, hi].
// NaN is mapped to lo so a malformed landmark never escapes the range.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
