package synth

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hajimehoshi/oto/v2"
)

// Sink is the audio output device. It pulls rendered PCM from src once opened.
type Sink interface {
	// Open acquires the device and starts pulling float32 little-endian
	// interleaved frames from src.
	Open(src io.Reader, sampleRate, channels int) error
	// Resume restarts a suspended device.
	Resume() error
	// Suspend pauses audio processing without releasing the device.
	Suspend() error
	// Close releases the device.
	Close() error
}

// OtoSink plays audio through the platform device using oto.
type OtoSink struct {
	ctx    *oto.Context
	player oto.Player
	mu     sync.Mutex
}

// NewOtoSink creates an unopened oto sink.
func NewOtoSink() *OtoSink {
	return &OtoSink{}
}

// Open creates the oto context on first use and starts a player on src.
// oto allows a single context per process, so it is kept across reopen.
func (s *OtoSink) Open(src io.Reader, sampleRate, channels int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil {
		return nil
	}

	if s.ctx == nil {
		ctx, ready, err := oto.NewContext(sampleRate, channels, oto.FormatFloat32LE)
		if err != nil {
			return fmt.Errorf("create audio context: %w", err)
		}
		<-ready
		s.ctx = ctx
	}

	s.player = s.ctx.NewPlayer(src)
	s.player.Play()
	return nil
}

// Resume resumes the oto context.
func (s *OtoSink) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return errors.New("audio context not open")
	}
	if err := s.ctx.Resume(); err != nil {
		return fmt.Errorf("resume audio context: %w", err)
	}
	if s.player != nil && !s.player.IsPlaying() {
		s.player.Play()
	}
	return nil
}

// Suspend suspends the oto context.
func (s *OtoSink) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return nil
	}
	return s.ctx.Suspend()
}

// Close stops the player.
func (s *OtoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	return err
}

// NullSink is a Sink that never pulls audio. Tests drive the engine with
// Render instead. Errors can be injected to simulate device failures.
type NullSink struct {
	OpenErr    error
	ResumeErr  error
	SuspendErr error

	opened   bool
	resumes  int
	suspends int
	mu       sync.Mutex
}

// NewNullSink creates a NullSink.
func NewNullSink() *NullSink {
	return &NullSink{}
}

func (s *NullSink) Open(src io.Reader, sampleRate, channels int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OpenErr != nil {
		return s.OpenErr
	}
	s.opened = true
	return nil
}

func (s *NullSink) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ResumeErr != nil {
		return s.ResumeErr
	}
	s.resumes++
	return nil
}

func (s *NullSink) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SuspendErr != nil {
		return s.SuspendErr
	}
	s.suspends++
	return nil
}

func (s *NullSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = false
	return nil
}

// Opened reports whether Open succeeded and Close has not been called since.
func (s *NullSink) Opened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Resumes returns how many times Resume succeeded.
func (s *NullSink) Resumes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumes
}

// Suspends returns how many times Suspend succeeded.
func (s *NullSink) Suspends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspends
}
