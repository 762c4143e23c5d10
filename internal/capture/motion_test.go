package capture

import (
	"image/color"
	"testing"
)

func TestNewMotionDetector(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{"default threshold", 1.0, 1.0},
		{"high threshold", 5.0, 5.0},
		{"zero takes default", 0, DefaultMotionThreshold},
		{"negative takes default", -2, DefaultMotionThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.threshold)
			defer md.Close()

			if md.threshold != tt.want {
				t.Errorf("threshold = %f, want %f", md.threshold, tt.want)
			}
			if md.initialized {
				t.Error("motion detector should not be initialized initially")
			}
		})
	}
}

func TestMotionDetector_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame1 := SolidFrame(color.RGBA{})
	defer frame1.Close()
	frame2 := SolidFrame(color.RGBA{})
	defer frame2.Close()

	detected, changed := md.Detect(&frame1)
	if detected || changed != 0 {
		t.Errorf("first frame should only set the baseline, got %v %f", detected, changed)
	}

	detected, changed = md.Detect(&frame2)
	if detected {
		t.Errorf("identical frames should not detect motion, changed = %f", changed)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	black := SolidFrame(color.RGBA{})
	defer black.Close()
	white := SolidFrame(color.RGBA{R: 255, G: 255, B: 255})
	defer white.Close()

	md.Detect(&black)
	detected, changed := md.Detect(&white)
	if !detected {
		t.Errorf("black to white should detect motion, changed = %f", changed)
	}
	if changed < 50.0 {
		t.Errorf("changed = %f, expected > 50%% for black to white", changed)
	}
	if md.LastChange() != changed {
		t.Errorf("LastChange() = %f, want %f", md.LastChange(), changed)
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := SolidFrame(color.RGBA{})
	defer frame.Close()

	md.Detect(&frame)
	if !md.initialized {
		t.Error("detector should be initialized after first Detect")
	}

	md.Reset()
	if md.initialized {
		t.Error("detector should not be initialized after Reset")
	}
	if !md.prevGray.Empty() {
		t.Error("baseline should be empty after Reset")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0", md.threshold)
	}

	md.SetThreshold(-1.0)
	if md.threshold != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.threshold)
	}
}

func TestMotionDetector_Close_Multiple(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()
}

func TestMotionDetector_NilFrame(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	if detected, changed := md.Detect(nil); detected || changed != 0 {
		t.Errorf("nil frame should report nothing, got %v %f", detected, changed)
	}
}
