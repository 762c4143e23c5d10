package gesture

import (
	"fmt"
	"strings"

	"github.com/ayusman/airsynth/internal/synth"
)

// delayOnThreshold separates "delay on" from "delay off" when toggling.
const (
	delayOnThreshold = 0.1
	delayOnMix       = 0.5
)

// Instrument is the subset of the engine the gesture handler drives.
type Instrument interface {
	Waveform() synth.Waveform
	SetWaveform(synth.Waveform)
	DelayMix() float64
	SetDelayMix(float64)
}

// Apply performs ev on inst and returns the feedback text to show the player.
//
// CycleWaveform steps through synth.CycleOrder. ToggleDelay snaps between
// off (mix 0) and on (mix 0.5); any mix above 0.1 counts as on.
func Apply(ev Event, inst Instrument) string {
	switch ev {
	case EventCycleWaveform:
		next := inst.Waveform().Next()
		inst.SetWaveform(next)
		return fmt.Sprintf("WAVEFORM: %s", strings.ToUpper(string(next)))
	case EventToggleDelay:
		if inst.DelayMix() > delayOnThreshold {
			inst.SetDelayMix(0)
			return "DELAY: OFF"
		}
		inst.SetDelayMix(delayOnMix)
		return "DELAY: ON"
	}
	return ""
}
