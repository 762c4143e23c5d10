package tray

import "testing"

func TestTray_Toggle(t *testing.T) {
	tr := New()
	if tr.IsPlaying() {
		t.Fatal("expected a new tray to show stopped")
	}

	var got []bool
	tr.OnToggle(func(playing bool) { got = append(got, playing) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("toggle callbacks = %v, want [true false]", got)
	}
	if tr.IsPlaying() {
		t.Error("expected stopped after two toggles")
	}
}

func TestTray_Analog(t *testing.T) {
	tr := New()

	var got bool
	tr.OnAnalog(func(enabled bool) { got = enabled })

	tr.handleAnalog()
	if !got || !tr.IsAnalog() {
		t.Error("expected analog mode on after one click")
	}

	tr.SetAnalog(false)
	if tr.IsAnalog() {
		t.Error("SetAnalog(false) should clear the checkbox state")
	}
}

func TestTray_Settings(t *testing.T) {
	tr := New()
	tr.handleSettings() // no callback set

	called := false
	tr.OnSettings(func() { called = true })
	tr.handleSettings()
	if !called {
		t.Error("expected settings callback")
	}
}

func TestTray_Display(t *testing.T) {
	tr := New()

	tr.SetPlaying(true)
	tr.SetWaveform("square")
	tr.SetLastGesture("DELAY: ON")

	if !tr.IsPlaying() || tr.Waveform() != "square" || tr.LastGesture() != "DELAY: ON" {
		t.Errorf("unexpected tray state playing=%v waveform=%q last=%q", tr.IsPlaying(), tr.Waveform(), tr.LastGesture())
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{toggleTitle(false), "▶ Play"},
		{toggleTitle(true), "■ Stop"},
		{waveformTitle("sawtooth"), "Waveform: SAWTOOTH"},
		{lastTitle(""), "Last: none"},
		{lastTitle("WAVEFORM: SINE"), "Last: WAVEFORM: SINE"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
