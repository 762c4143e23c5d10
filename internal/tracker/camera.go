package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/airsynth/internal/capture"
	"github.com/ayusman/airsynth/internal/detector"
)

// Pipeline timing defaults.
const (
	// IdleFPS is the frame rate while nothing moves in view.
	IdleFPS = 5
	// ActiveFPS is the frame rate while hands or motion are seen.
	ActiveFPS = 15
	// IdleTimeout is how long without hands or motion before dropping back
	// to idle.
	IdleTimeout = 2 * time.Second
)

// Mode is the pacing state of a CameraTracker.
type Mode string

const (
	ModeIdle   Mode = "idle"
	ModeActive Mode = "active"
)

// CameraConfig tunes the idle/active pacing.
type CameraConfig struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
	// Preview, if set, receives every captured frame.
	Preview *capture.FrameBuffer
}

// DefaultCameraConfig returns 5/15 fps with a 2s idle timeout.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{IdleFPS: IdleFPS, ActiveFPS: ActiveFPS, IdleTimeout: IdleTimeout}
}

// CameraTracker reads frames from a camera and runs the hand detector only
// while something is happening. In idle mode it samples slowly, checks for
// motion and emits empty batches; motion switches it to active mode, where
// every frame goes through the detector.
type CameraTracker struct {
	config   CameraConfig
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector

	mode    Mode
	running bool
	mu      sync.RWMutex
}

// NewCameraTracker wires a camera, motion gate and detector together.
func NewCameraTracker(config CameraConfig, cam capture.Camera, motion *capture.MotionDetector, det detector.Detector) *CameraTracker {
	if config.IdleFPS <= 0 {
		config.IdleFPS = IdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = ActiveFPS
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = IdleTimeout
	}
	if motion == nil {
		motion = capture.NewMotionDetector(capture.DefaultMotionThreshold)
	}
	return &CameraTracker{
		config:   config,
		camera:   cam,
		motion:   motion,
		detector: det,
		mode:     ModeIdle,
	}
}

// Frames opens the camera and starts the pipeline goroutine.
func (t *CameraTracker) Frames(ctx context.Context) (<-chan Batch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil, ErrAlreadyRunning
	}

	if err := t.camera.Open(); err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}
	t.camera.SetFPS(t.config.IdleFPS)

	t.running = true
	t.mode = ModeIdle

	out := make(chan Batch, 1)
	go t.run(ctx, out)

	log.Println("Camera tracker started")
	return out, nil
}

// Mode reports the current pacing state.
func (t *CameraTracker) Mode() Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// Running reports whether a feed is open.
func (t *CameraTracker) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

func (t *CameraTracker) setMode(m Mode) {
	t.mu.Lock()
	t.mode = m
	t.mu.Unlock()

	fps := t.config.IdleFPS
	if m == ModeActive {
		fps = t.config.ActiveFPS
	}
	t.camera.SetFPS(fps)
}

func (t *CameraTracker) run(ctx context.Context, out chan<- Batch) {
	defer func() {
		if err := t.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
		t.motion.Reset()

		t.mu.Lock()
		t.running = false
		t.mode = ModeIdle
		t.mu.Unlock()

		close(out)
		log.Println("Camera tracker stopped")
	}()

	active := false
	lastActivity := time.Now()

	ticker := time.NewTicker(time.Second / time.Duration(t.config.IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := t.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrNoFrames) || errors.Is(err, capture.ErrCameraNotOpen) {
				return
			}
			log.Printf("Error reading frame: %v", err)
			continue
		}

		if t.config.Preview != nil {
			if err := t.config.Preview.Put(frame); err != nil {
				log.Printf("Error encoding preview: %v", err)
			}
		}

		moved, _ := t.motion.Detect(frame)
		if moved {
			lastActivity = time.Now()
			if !active {
				active = true
				t.setMode(ModeActive)
				ticker.Reset(time.Second / time.Duration(t.config.ActiveFPS))
				log.Println("Switched to active mode")
			}
		}

		var hands []detector.HandLandmarks
		if active && t.detector != nil {
			hands, err = t.detector.Detect(frame)
			if err != nil {
				log.Printf("Error detecting hands: %v", err)
				hands = nil
			}
			if len(hands) > 0 {
				lastActivity = time.Now()
			}
		}
		frame.Close()

		if active && time.Since(lastActivity) > t.config.IdleTimeout {
			active = false
			t.setMode(ModeIdle)
			ticker.Reset(time.Second / time.Duration(t.config.IdleFPS))
			log.Println("Switched to idle mode")
		}

		select {
		case out <- Batch{Hands: hands, Timestamp: time.Now()}:
		case <-ctx.Done():
			return
		}
	}
}
