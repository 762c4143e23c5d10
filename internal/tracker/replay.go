package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ayusman/airsynth/internal/detector"
)

// DefaultReplayInterval paces replayed batches at roughly 30 fps.
const DefaultReplayInterval = 33 * time.Millisecond

// ReplayTracker plays back recorded batches at a fixed interval. Timestamps
// are rewritten to the playback time.
type ReplayTracker struct {
	batches  []Batch
	interval time.Duration
	loop     bool

	running bool
	mu      sync.Mutex
}

// NewReplayTracker plays batches once, or forever when loop is set.
func NewReplayTracker(batches []Batch, interval time.Duration, loop bool) *ReplayTracker {
	if interval <= 0 {
		interval = DefaultReplayInterval
	}
	return &ReplayTracker{batches: batches, interval: interval, loop: loop}
}

// recordedHand is a hand as written in a script. Points is a slice so a
// short landmark list can be told apart from a zero-filled one.
type recordedHand struct {
	Points     []detector.Point3D `json:"points"`
	Handedness string             `json:"handedness"`
	Score      float64            `json:"score"`
}

type recordedBatch struct {
	Hands     []recordedHand `json:"hands"`
	Timestamp time.Time      `json:"timestamp"`
}

// LoadBatches decodes a JSON array of batches. Hands with fewer than
// detector.NumLandmarks points are dropped; a zeroed tip would read as a pinch.
func LoadBatches(r io.Reader) ([]Batch, error) {
	var recorded []recordedBatch
	if err := json.NewDecoder(r).Decode(&recorded); err != nil {
		return nil, fmt.Errorf("decode batches: %w", err)
	}

	batches := make([]Batch, len(recorded))
	for i, rb := range recorded {
		b := Batch{Timestamp: rb.Timestamp, Hands: make([]detector.HandLandmarks, 0, len(rb.Hands))}
		for _, rh := range rb.Hands {
			if len(rh.Points) < detector.NumLandmarks {
				continue
			}
			h := detector.HandLandmarks{Handedness: rh.Handedness, Score: rh.Score}
			copy(h.Points[:], rh.Points)
			b.Hands = append(b.Hands, h)
		}
		batches[i] = b
	}
	return batches, nil
}

// Frames starts playback.
func (t *ReplayTracker) Frames(ctx context.Context) (<-chan Batch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil, ErrAlreadyRunning
	}
	t.running = true

	out := make(chan Batch)
	go t.run(ctx, out)
	return out, nil
}

func (t *ReplayTracker) run(ctx context.Context, out chan<- Batch) {
	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		close(out)
	}()

	if len(t.batches) == 0 {
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		if i == len(t.batches) {
			if !t.loop {
				return
			}
			i = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		b := t.batches[i]
		b.Timestamp = time.Now()

		select {
		case out <- b:
		case <-ctx.Done():
			return
		}
	}
}
