// Package testdata holds recorded landmark scripts for replaying the
// instrument without a camera.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/ayusman/airsynth/internal/tracker"
)

//go:embed scripts/*.json
var scriptsFS embed.FS

// Script names.
const (
	// Sweep moves the right index fingertip from x=0.1 to x=0.9 over 20
	// batches while the left hand holds y=0.5.
	Sweep = "sweep"
	// Gestures plays both hands, pinches the right hand once, then makes a
	// left fist three batches later.
	Gestures = "gestures"
	// HandLoss shows both hands for 30 batches, then 10 empty batches.
	HandLoss = "handloss"
)

// LoadScript loads a landmark script by name.
func LoadScript(name string) ([]tracker.Batch, error) {
	data, err := scriptsFS.ReadFile("scripts/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}

	batches, err := tracker.LoadBatches(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}

	return batches, nil
}

// ScriptNames lists the embedded scripts.
func ScriptNames() ([]string, error) {
	entries, err := scriptsFS.ReadDir("scripts")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), path.Ext(entry.Name())))
	}
	return names, nil
}
