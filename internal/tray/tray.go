// Package tray provides the system tray menu for AirSynth.
package tray

import (
	"strings"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(playing bool)
	onAnalog   func(enabled bool)
	onSettings func()
	onQuit     func()
	playing    bool
	analog     bool
	waveform   string
	last       string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuAnalog      *systray.MenuItem
	menuWaveform    *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a new Tray instance. The instrument starts stopped.
func New() *Tray {
	return &Tray{waveform: "sine"}
}

// OnToggle sets the callback called when Play/Stop is clicked.
func (t *Tray) OnToggle(fn func(playing bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnAnalog sets the callback called when analog mode is toggled.
func (t *Tray) OnAnalog(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAnalog = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("AirSynth")
	systray.SetTooltip("AirSynth hand theremin")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.playing), "Start or stop the instrument")
	t.menuAnalog = systray.AddMenuItemCheckbox("Analog Mode", "Warm saturation and drift", t.analog)
	systray.AddSeparator()

	t.menuWaveform = systray.AddMenuItem(waveformTitle(t.waveform), "Current waveform")
	t.menuWaveform.Disable()
	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.last), "Last detected gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open the HUD in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit AirSynth")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuAnalog.ClickedCh:
				t.handleAnalog()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.playing = !t.playing
	playing := t.playing
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(playing))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(playing)
	}
}

func (t *Tray) handleAnalog() {
	t.mu.Lock()
	t.analog = !t.analog
	analog := t.analog
	t.checkAnalog()
	callback := t.onAnalog
	t.mu.Unlock()

	if callback != nil {
		callback(analog)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// SetPlaying syncs the Play/Stop item with the instrument, for when it is
// started or stopped from somewhere other than the tray.
func (t *Tray) SetPlaying(playing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = playing
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(playing))
	}
}

// SetAnalog syncs the analog checkbox.
func (t *Tray) SetAnalog(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.analog = enabled
	t.checkAnalog()
}

// SetWaveform updates the waveform display.
func (t *Tray) SetWaveform(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.waveform = name
	if t.menuWaveform != nil {
		t.menuWaveform.SetTitle(waveformTitle(name))
	}
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(feedback string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = feedback
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastTitle(feedback))
	}
}

// IsPlaying returns the state shown by the Play/Stop item.
func (t *Tray) IsPlaying() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.playing
}

// IsAnalog returns the analog checkbox state.
func (t *Tray) IsAnalog() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.analog
}

// Waveform returns the displayed waveform.
func (t *Tray) Waveform() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.waveform
}

// LastGesture returns the displayed gesture feedback.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// checkAnalog must be called with t.mu held.
func (t *Tray) checkAnalog() {
	if t.menuAnalog == nil {
		return
	}
	if t.analog {
		t.menuAnalog.Check()
	} else {
		t.menuAnalog.Uncheck()
	}
}

func toggleTitle(playing bool) string {
	if playing {
		return "■ Stop"
	}
	return "▶ Play"
}

func waveformTitle(name string) string {
	return "Waveform: " + strings.ToUpper(name)
}

func lastTitle(feedback string) string {
	if feedback == "" {
		return "Last: none"
	}
	return "Last: " + feedback
}
