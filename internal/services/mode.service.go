package services

import (
	"time"

	"groundstation/internal/models"
)

// CycleKind distinguishes how a validation cycle was initiated
type CycleKind int

const (
	// CycleScheduled is a regular polling-timer cycle
	CycleScheduled CycleKind = iota
	// CycleBoot is the immediate validation cycle at session start
	CycleBoot
	// CycleReconnect is an operator-initiated out-of-band cycle
	CycleReconnect
)

// ModeState is the FSM's complete mutable state, kept separate from the
// controller so transitions stay pure and testable without I/O
type ModeState struct {
	Mode        models.Mode
	FailStreak  int
	Established bool // connection-established already emitted for this mode entry
}

// Transition computes the next state and emitted events for one verdict.
// configured is the session's non-simulated origin mode; threshold is the
// consecutive-failure count that forces the fall back to simulated.
func Transition(state ModeState, kind CycleKind, verdict models.Verdict, configured models.Mode, threshold int) (ModeState, []models.EventType) {
	usable := verdict.Usable()

	switch kind {
	case CycleBoot, CycleReconnect:
		if usable {
			return ModeState{Mode: configured, FailStreak: 0, Established: true},
				[]models.EventType{models.EventConnectionEstablished}
		}
		// unreachable from the outset is a distinct condition from an
		// in-session failure
		return ModeState{Mode: models.ModeSimulated},
			[]models.EventType{models.EventConnectionFailed}

	default: // CycleScheduled
		if state.Mode == models.ModeSimulated {
			// scheduled cycles keep probing the configured origin so the
			// session can recover without operator action; failures carry
			// no streak while simulated
			if usable && configured != models.ModeSimulated {
				return ModeState{Mode: configured, FailStreak: 0, Established: true},
					[]models.EventType{models.EventConnectionEstablished}
			}
			return state, nil
		}

		if usable {
			next := ModeState{Mode: state.Mode, FailStreak: 0, Established: true}
			if !state.Established {
				return next, []models.EventType{models.EventConnectionEstablished}
			}
			return next, nil
		}

		next := state
		next.FailStreak++

		var events []models.EventType
		if next.FailStreak == 1 {
			// log only at streak start, not on every failed cycle
			events = append(events, models.EventErrorLogged)
		}
		if next.FailStreak >= threshold {
			next = ModeState{Mode: models.ModeSimulated}
			events = append(events, models.EventFallback)
		}
		return next, events
	}
}

// ModeController owns the current origin mode and fail-streak counter.
// No other component mutates them; callers serialize access through the
// session's cycle lock.
type ModeController struct {
	state      ModeState
	configured models.Mode
	threshold  int
	now        func() time.Time
}

// NewModeController starts the FSM in its initial mode: the configured
// origin when one exists, otherwise simulated
func NewModeController(configured models.Mode, threshold int) *ModeController {
	return &ModeController{
		state:      ModeState{Mode: initialMode(configured)},
		configured: configured,
		threshold:  threshold,
		now:        time.Now,
	}
}

func initialMode(configured models.Mode) models.Mode {
	if configured == models.ModeCloud || configured == models.ModeLocalBackend {
		return configured
	}
	return models.ModeSimulated
}

// Mode returns the active origin mode
func (m *ModeController) Mode() models.Mode { return m.state.Mode }

// FailStreak returns the consecutive non-valid cycle count
func (m *ModeController) FailStreak() int { return m.state.FailStreak }

// Configured returns the session's non-simulated origin mode
func (m *ModeController) Configured() models.Mode { return m.configured }

// Apply feeds one verdict through the FSM and returns the emitted events
func (m *ModeController) Apply(kind CycleKind, verdict models.Verdict) []models.ModeEvent {
	next, emitted := Transition(m.state, kind, verdict, m.configured, m.threshold)
	m.state = next

	events := make([]models.ModeEvent, 0, len(emitted))
	for _, eventType := range emitted {
		events = append(events, models.ModeEvent{
			Type:       eventType,
			Mode:       m.state.Mode,
			FailStreak: m.state.FailStreak,
			Timestamp:  m.now(),
		})
	}
	return events
}

// Reset returns the FSM to its session-start state
func (m *ModeController) Reset() {
	m.state = ModeState{Mode: initialMode(m.configured)}
}
