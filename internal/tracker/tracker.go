// Package tracker turns a camera feed into a stream of hand landmark
// batches, one per vision tick.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/airsynth/internal/detector"
)

// ErrAlreadyRunning is returned when Frames is called while a feed is open.
var ErrAlreadyRunning = errors.New("tracker already running")

// Batch is the set of hands seen on one tick. An empty batch means no hands.
type Batch struct {
	Hands     []detector.HandLandmarks `json:"hands"`
	Timestamp time.Time                `json:"timestamp"`
}

// Tracker produces batches until the feed ends or ctx is cancelled, then
// closes the channel.
type Tracker interface {
	Frames(ctx context.Context) (<-chan Batch, error)
}
