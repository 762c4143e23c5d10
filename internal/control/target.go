// Package control maps hand positions to pitch and volume targets and
// smooths them into the continuous values fed to the synthesizer.
package control

import "sync"

// Target holds the latest pitch (Hz) and volume (0-1) requested by the hands.
// Every write replaces whole values, so a reader never sees a half update.
type Target struct {
	pitch  float64
	volume float64
	mu     sync.RWMutex
}

// NewTarget creates a Target at the given pitch and silent volume.
func NewTarget(pitch float64) *Target {
	return &Target{pitch: pitch}
}

// Get returns the current pitch and volume targets.
func (t *Target) Get() (pitch, volume float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pitch, t.volume
}

// SetPitch replaces the pitch target.
func (t *Target) SetPitch(hz float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pitch = hz
}

// SetVolume replaces the volume target.
func (t *Target) SetVolume(v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = v
}
