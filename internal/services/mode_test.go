package services

import (
	"testing"

	"groundstation/internal/models"
)

func TestTransitionBootCycle(t *testing.T) {
	tests := []struct {
		name       string
		verdict    models.Verdict
		wantMode   models.Mode
		wantEvents []models.EventType
	}{
		{
			name:       "boot success enters configured mode",
			verdict:    models.VerdictValid,
			wantMode:   models.ModeCloud,
			wantEvents: []models.EventType{models.EventConnectionEstablished},
		},
		{
			name:       "boot failure falls to simulated with connection-failed",
			verdict:    models.VerdictFailed,
			wantMode:   models.ModeSimulated,
			wantEvents: []models.EventType{models.EventConnectionFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := ModeState{Mode: models.ModeCloud}
			next, events := Transition(state, CycleBoot, tt.verdict, models.ModeCloud, 3)

			if next.Mode != tt.wantMode {
				t.Errorf("mode = %s, want %s", next.Mode, tt.wantMode)
			}
			assertEvents(t, events, tt.wantEvents)
		})
	}
}

func TestTransitionFailStreakThreshold(t *testing.T) {
	state := ModeState{Mode: models.ModeCloud, Established: true}

	// first failure: streak 1, error logged once
	state, events := Transition(state, CycleScheduled, models.VerdictFailed, models.ModeCloud, 3)
	if state.FailStreak != 1 {
		t.Fatalf("streak after 1st failure = %d, want 1", state.FailStreak)
	}
	assertEvents(t, events, []models.EventType{models.EventErrorLogged})

	// second failure: streak 2, silent
	state, events = Transition(state, CycleScheduled, models.VerdictFailed, models.ModeCloud, 3)
	if state.FailStreak != 2 {
		t.Fatalf("streak after 2nd failure = %d, want 2", state.FailStreak)
	}
	assertEvents(t, events, nil)

	// third failure: threshold reached, fall back to simulated
	state, events = Transition(state, CycleScheduled, models.VerdictFailed, models.ModeCloud, 3)
	if state.Mode != models.ModeSimulated {
		t.Fatalf("mode after 3rd failure = %s, want simulated", state.Mode)
	}
	if state.Established {
		t.Error("established flag not reset on fallback")
	}
	assertEvents(t, events, []models.EventType{models.EventFallback})
}

func TestTransitionValidResetsStreak(t *testing.T) {
	state := ModeState{Mode: models.ModeCloud, FailStreak: 2, Established: true}

	state, events := Transition(state, CycleScheduled, models.VerdictValid, models.ModeCloud, 3)
	if state.FailStreak != 0 {
		t.Errorf("streak = %d, want 0", state.FailStreak)
	}
	if state.Mode != models.ModeCloud {
		t.Errorf("mode = %s, want cloud", state.Mode)
	}
	// already established: no duplicate connection-established
	assertEvents(t, events, nil)
}

func TestTransitionEstablishedEmittedOncePerModeEntry(t *testing.T) {
	state := ModeState{Mode: models.ModeCloud}

	state, events := Transition(state, CycleScheduled, models.VerdictValid, models.ModeCloud, 3)
	assertEvents(t, events, []models.EventType{models.EventConnectionEstablished})

	for i := 0; i < 4; i++ {
		var repeat []models.EventType
		state, repeat = Transition(state, CycleScheduled, models.VerdictValid, models.ModeCloud, 3)
		if len(repeat) != 0 {
			t.Fatalf("valid cycle %d re-emitted events %v", i+2, repeat)
		}
	}
}

func TestTransitionPartiallyInvalidCountsAsValidForModes(t *testing.T) {
	state := ModeState{Mode: models.ModeCloud, FailStreak: 2, Established: true}

	state, _ = Transition(state, CycleScheduled, models.VerdictPartiallyInvalid, models.ModeCloud, 3)
	if state.FailStreak != 0 {
		t.Errorf("partially invalid cycle did not reset streak, got %d", state.FailStreak)
	}
	if state.Mode != models.ModeCloud {
		t.Errorf("mode = %s, want cloud", state.Mode)
	}
}

func TestTransitionSimulatedScheduledProbe(t *testing.T) {
	state := ModeState{Mode: models.ModeSimulated}

	// failures while simulated carry no streak and no events
	next, events := Transition(state, CycleScheduled, models.VerdictFailed, models.ModeCloud, 3)
	if next.Mode != models.ModeSimulated || next.FailStreak != 0 {
		t.Errorf("simulated failure changed state: %+v", next)
	}
	assertEvents(t, events, nil)

	// a successful probe recovers to the configured mode
	next, events = Transition(state, CycleScheduled, models.VerdictValid, models.ModeCloud, 3)
	if next.Mode != models.ModeCloud {
		t.Errorf("mode after probe success = %s, want cloud", next.Mode)
	}
	assertEvents(t, events, []models.EventType{models.EventConnectionEstablished})
}

func TestTransitionReconnect(t *testing.T) {
	// reconnect from simulated with a healthy origin
	state := ModeState{Mode: models.ModeSimulated}
	next, events := Transition(state, CycleReconnect, models.VerdictValid, models.ModeCloud, 3)
	if next.Mode != models.ModeCloud || next.FailStreak != 0 {
		t.Errorf("reconnect success state = %+v", next)
	}
	assertEvents(t, events, []models.EventType{models.EventConnectionEstablished})

	// reconnect failure returns to simulated
	state = ModeState{Mode: models.ModeCloud, FailStreak: 1, Established: true}
	next, events = Transition(state, CycleReconnect, models.VerdictFailed, models.ModeCloud, 3)
	if next.Mode != models.ModeSimulated {
		t.Errorf("reconnect failure mode = %s, want simulated", next.Mode)
	}
	assertEvents(t, events, []models.EventType{models.EventConnectionFailed})
}

func TestModeControllerInitialMode(t *testing.T) {
	if got := NewModeController(models.ModeCloud, 3).Mode(); got != models.ModeCloud {
		t.Errorf("initial mode with cloud configured = %s", got)
	}
	if got := NewModeController(models.ModeSimulated, 3).Mode(); got != models.ModeSimulated {
		t.Errorf("initial mode without origin = %s", got)
	}
}

func TestModeControllerReset(t *testing.T) {
	ctrl := NewModeController(models.ModeCloud, 3)
	ctrl.Apply(CycleScheduled, models.VerdictFailed)
	ctrl.Apply(CycleScheduled, models.VerdictFailed)
	if ctrl.FailStreak() != 2 {
		t.Fatalf("streak = %d, want 2", ctrl.FailStreak())
	}

	ctrl.Reset()
	if ctrl.FailStreak() != 0 || ctrl.Mode() != models.ModeCloud {
		t.Errorf("reset left mode=%s streak=%d", ctrl.Mode(), ctrl.FailStreak())
	}
}

func assertEvents(t *testing.T, got []models.EventType, want []models.EventType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
