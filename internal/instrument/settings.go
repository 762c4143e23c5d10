package instrument

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/ayusman/airsynth/internal/store"
	"github.com/ayusman/airsynth/internal/synth"
)

// Settings are the user-adjustable engine options.
type Settings struct {
	Waveform synth.Waveform `json:"waveform"`
	DelayMix float64        `json:"delay_mix"`
	Analog   bool           `json:"analog"`
}

// SettingsPatch changes only the fields that are set.
type SettingsPatch struct {
	Waveform *synth.Waveform `json:"waveform,omitempty"`
	DelayMix *float64        `json:"delay_mix,omitempty"`
	Analog   *bool           `json:"analog,omitempty"`
}

// ErrInvalidWaveform is returned when a patch names an unknown waveform.
var ErrInvalidWaveform = errors.New("invalid waveform")

// Settings returns the engine's current options.
func (i *Instrument) Settings() Settings {
	snap := i.engine.Snapshot()
	return Settings{
		Waveform: snap.Waveform,
		DelayMix: snap.DelayMix,
		Analog:   snap.AnalogMode,
	}
}

// ApplySettings applies a manual change from the UI and persists the result.
// The delay mix is clamped to [0, 0.8].
func (i *Instrument) ApplySettings(p SettingsPatch) (Settings, error) {
	if p.Waveform != nil && !p.Waveform.Valid() {
		return i.Settings(), fmt.Errorf("%w: %q", ErrInvalidWaveform, *p.Waveform)
	}

	if p.Waveform != nil {
		i.engine.SetWaveform(*p.Waveform)
	}
	if p.DelayMix != nil {
		i.engine.SetDelayMix(*p.DelayMix)
	}
	if p.Analog != nil {
		i.engine.SetAnalogMode(*p.Analog)
	}

	i.saveSettings()
	return i.Settings(), nil
}

// SetWaveform selects a waveform by name.
func (i *Instrument) SetWaveform(w synth.Waveform) error {
	_, err := i.ApplySettings(SettingsPatch{Waveform: &w})
	return err
}

// SetDelayMix sets the wet/dry mix.
func (i *Instrument) SetDelayMix(mix float64) {
	i.ApplySettings(SettingsPatch{DelayMix: &mix})
}

// SetAnalogMode switches the saturation stage.
func (i *Instrument) SetAnalogMode(enabled bool) {
	i.ApplySettings(SettingsPatch{Analog: &enabled})
}

func (i *Instrument) saveSettings() {
	if i.config.Store == nil {
		return
	}

	s := i.Settings()
	err := i.config.Store.Settings().SetMany(map[string]string{
		store.SettingWaveform: string(s.Waveform),
		store.SettingDelayMix: strconv.FormatFloat(s.DelayMix, 'f', -1, 64),
		store.SettingAnalog:   strconv.FormatBool(s.Analog),
	})
	if err != nil {
		log.Printf("Failed to save settings: %v", err)
	}
}

// restoreSettings loads saved options into the engine. Missing or
// unparseable values are skipped.
func (i *Instrument) restoreSettings() {
	if i.config.Store == nil {
		return
	}

	saved, err := i.config.Store.Settings().All()
	if err != nil {
		log.Printf("Failed to load settings: %v", err)
		return
	}

	if v, ok := saved[store.SettingWaveform]; ok {
		if w, err := synth.ParseWaveform(v); err == nil {
			i.engine.SetWaveform(w)
		}
	}
	if v, ok := saved[store.SettingDelayMix]; ok {
		if mix, err := strconv.ParseFloat(v, 64); err == nil {
			i.engine.SetDelayMix(mix)
		}
	}
	if v, ok := saved[store.SettingAnalog]; ok {
		if analog, err := strconv.ParseBool(v); err == nil {
			i.engine.SetAnalogMode(analog)
		}
	}

	if len(saved) > 0 {
		log.Printf("Restored %d saved settings", len(saved))
	}
}
