package instrument

import (
	"math"

	"github.com/ayusman/airsynth/internal/control"
	"github.com/ayusman/airsynth/internal/gesture"
	"github.com/ayusman/airsynth/internal/synth"
)

// HUD is what the player sees: the smoothed readouts, hand presence, the
// engine settings and any live gesture feedback.
type HUD struct {
	State       string           `json:"state"`
	Playing     bool             `json:"playing"`
	PitchHz     int              `json:"pitch_hz"`
	VolumePct   int              `json:"volume_pct"`
	Hands       control.Presence `json:"hands"`
	Waveform    synth.Waveform   `json:"waveform"`
	DelayMix    float64          `json:"delay_mix"`
	Analog      bool             `json:"analog"`
	Feedback    string           `json:"feedback,omitempty"`
	LastGesture gesture.Event    `json:"last_gesture,omitempty"`
	SessionID   string           `json:"session_id,omitempty"`
}

// HUD returns the current display state. Gesture feedback is cleared once it
// is older than the feedback lifetime.
func (i *Instrument) HUD() HUD {
	snap := i.engine.Snapshot()
	cur := i.loop.Current()

	i.mu.RLock()
	defer i.mu.RUnlock()

	h := HUD{
		State:       snap.State.String(),
		Playing:     snap.Playing,
		PitchHz:     int(math.Round(cur.Pitch)),
		VolumePct:   int(math.Round(cur.Volume * 100)),
		Hands:       i.presence,
		Waveform:    snap.Waveform,
		DelayMix:    snap.DelayMix,
		Analog:      snap.AnalogMode,
		LastGesture: i.lastGesture,
	}
	if i.feedback != "" && i.now().Sub(i.feedbackAt) < i.config.FeedbackTTL {
		h.Feedback = i.feedback
	}
	if i.session != nil {
		h.SessionID = i.session.ID
	}
	return h
}

// Scope returns the analyser's time-domain buffer for oscilloscope display.
func (i *Instrument) Scope() []float32 {
	return i.engine.Analyser().TimeDomainData()
}

// Spectrum returns the analyser's frequency magnitudes in dB.
func (i *Instrument) Spectrum() []float64 {
	return i.engine.Analyser().FrequencyData()
}
