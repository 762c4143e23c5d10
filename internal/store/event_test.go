package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEventRepository_LogAndList(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{Waveform: "sine"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	events := []*GestureEvent{
		{SessionID: sess.ID, Kind: "cycle_waveform", Hand: "Right", Feedback: "WAVEFORM: TRIANGLE"},
		{SessionID: sess.ID, Kind: "toggle_delay", Hand: "Left", Feedback: "DELAY: OFF"},
		{SessionID: sess.ID, Kind: "cycle_waveform", Hand: "Right", Feedback: "WAVEFORM: SAWTOOTH"},
	}
	for _, ev := range events {
		if err := s.Events().Log(ev); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
		if ev.ID == 0 {
			t.Error("expected ID to be assigned")
		}
	}

	got, err := s.Events().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}

	var feedback []string
	for _, ev := range got {
		feedback = append(feedback, ev.Feedback)
	}
	want := []string{"WAVEFORM: TRIANGLE", "DELAY: OFF", "WAVEFORM: SAWTOOTH"}
	if diff := cmp.Diff(want, feedback); diff != "" {
		t.Errorf("events out of order (-want +got):\n%s", diff)
	}

	counts, err := s.Events().CountByKind(sess.ID)
	if err != nil {
		t.Fatalf("CountByKind() error = %v", err)
	}
	if diff := cmp.Diff(map[string]int{"cycle_waveform": 2, "toggle_delay": 1}, counts); diff != "" {
		t.Errorf("CountByKind() mismatch (-want +got):\n%s", diff)
	}

	stored, err := s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Gestures != 3 {
		t.Errorf("expected session gesture count 3, got %d", stored.Gestures)
	}
}

func TestEventRepository_RequiresSession(t *testing.T) {
	s := newTestStore(t)

	err := s.Events().Log(&GestureEvent{SessionID: "no-such-session", Kind: "toggle_delay", Hand: "Left"})
	if err == nil {
		t.Error("expected foreign key violation for an unknown session")
	}
}
