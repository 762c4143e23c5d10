package testdata

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/airsynth/internal/detector"
)

func TestScriptNames(t *testing.T) {
	names, err := ScriptNames()
	if err != nil {
		t.Fatalf("ScriptNames() error = %v", err)
	}

	want := []string{Gestures, HandLoss, Sweep}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("ScriptNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadScript(t *testing.T) {
	tests := []struct {
		name    string
		batches int
	}{
		{Sweep, 20},
		{Gestures, 7},
		{HandLoss, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches, err := LoadScript(tt.name)
			if err != nil {
				t.Fatalf("LoadScript() error = %v", err)
			}
			if len(batches) != tt.batches {
				t.Errorf("got %d batches, want %d", len(batches), tt.batches)
			}
		})
	}

	t.Run("unknown script", func(t *testing.T) {
		if _, err := LoadScript("nope"); err == nil {
			t.Error("expected error for unknown script")
		}
	})
}

func TestSweep_Endpoints(t *testing.T) {
	batches, err := LoadScript(Sweep)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}

	first, ok := detector.FindHand(batches[0].Hands, detector.Right)
	if !ok {
		t.Fatal("expected a right hand in the first batch")
	}
	last, _ := detector.FindHand(batches[len(batches)-1].Hands, detector.Right)

	if got := first.Points[detector.IndexTip].X; got < 0.099 || got > 0.101 {
		t.Errorf("first index tip x = %v, want 0.1", got)
	}
	if got := last.Points[detector.IndexTip].X; got < 0.899 || got > 0.901 {
		t.Errorf("last index tip x = %v, want 0.9", got)
	}
}
