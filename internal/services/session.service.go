package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"groundstation/internal/config"
	"groundstation/internal/models"
)

// ErrNoOrigin is returned by Reconnect when the session has no
// non-simulated origin configured to reconnect to
var ErrNoOrigin = errors.New("no telemetry origin configured")

// ErrSessionState is returned when Start/Stop is called out of order
var ErrSessionState = errors.New("session already in requested state")

// CycleSnapshot is the per-cycle hand-off to the presentation layer
type CycleSnapshot struct {
	Result     models.CycleResult `json:"result"`
	Verdict    string             `json:"verdict"`
	Mode       models.Mode        `json:"mode"`
	FailStreak int                `json:"fail_streak"`
	Events     []models.ModeEvent `json:"events,omitempty"`
	At         time.Time          `json:"at"`
}

// Session owns the source-arbitration engine for one operator session: the
// mode controller, the history buffers, and the polling loop that drives
// them. All cycle state mutates under a single cycle lock, so scheduled
// ticks, boot validation and manual reconnects never overlap.
type Session struct {
	cfg        *config.Config
	aggregator *Aggregator
	modeCtrl   *ModeController
	history    *HistoryEngine
	origins    map[models.Mode]Origin

	cycleMu sync.Mutex // one active validation cycle at a time

	stateMu   sync.RWMutex
	latest    CycleSnapshot
	running   bool
	startedAt time.Time
	stop      chan struct{}

	// OnCycle and OnEvent notify the presentation sink; both are invoked
	// from the cycle goroutine after state is committed
	OnCycle func(CycleSnapshot)
	OnEvent func(models.ModeEvent)
}

// ConfiguredMode picks the session's non-simulated origin from config:
// cloud when a credential is present, else the local backend, else none
func ConfiguredMode(cfg *config.Config) models.Mode {
	if cfg.Cloud.APIKey != "" && cfg.Cloud.Base != "" {
		return models.ModeCloud
	}
	if cfg.Local.Base != "" {
		return models.ModeLocalBackend
	}
	return models.ModeSimulated
}

// NewSession wires the engine components together. origins maps each
// reachable mode to its fetcher; simulated has no origin by design.
func NewSession(cfg *config.Config, origins map[models.Mode]Origin) *Session {
	configured := ConfiguredMode(cfg)
	return &Session{
		cfg:        cfg,
		aggregator: NewAggregator(cfg.Polling.ChannelSet(), cfg.Polling.MaxAge.Std()),
		modeCtrl:   NewModeController(configured, cfg.Polling.FailThreshold),
		history:    NewHistoryEngine(cfg.Polling.HistorySize),
		origins:    origins,
	}
}

// History exposes the engine's ring buffers to the API layer
func (s *Session) History() *HistoryEngine { return s.history }

// Channels returns the session's configured channel set in fetch order
func (s *Session) Channels() []models.Channel { return s.aggregator.channels }

// Start runs the boot validation cycle and begins regular polling
func (s *Session) Start() error {
	s.stateMu.Lock()
	if s.running {
		s.stateMu.Unlock()
		return fmt.Errorf("start: %w", ErrSessionState)
	}
	s.running = true
	s.startedAt = time.Now()
	s.stop = make(chan struct{})
	stop := s.stop
	s.stateMu.Unlock()

	// an immediate validation cycle decides whether the configured origin
	// is reachable before the regular cadence begins; it uses the shorter
	// boot timeout
	if s.modeCtrl.Configured() != models.ModeSimulated {
		s.runCycle(CycleBoot, s.cfg.Polling.BootTimeout.Std())
	}

	go s.poll(stop)
	log.Printf("[POLL] session started (interval: %v, origin: %s)", s.cfg.Polling.Interval.Std(), s.modeCtrl.Configured())
	return nil
}

// Stop halts polling and tears down all session state: buffers are cleared
// and Mode/FailStreak return to their session-start values
func (s *Session) Stop() error {
	s.stateMu.Lock()
	if !s.running {
		s.stateMu.Unlock()
		return fmt.Errorf("stop: %w", ErrSessionState)
	}
	s.running = false
	close(s.stop)
	s.stateMu.Unlock()

	// wait out any cycle already in flight before tearing state down, so
	// its commit cannot land after the reset
	s.cycleMu.Lock()
	s.history.Clear()
	s.modeCtrl.Reset()
	s.stateMu.Lock()
	s.latest = CycleSnapshot{}
	s.stateMu.Unlock()
	s.cycleMu.Unlock()

	log.Printf("[POLL] session stopped")
	return nil
}

// Running reports whether the polling loop is active
func (s *Session) Running() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.running
}

// StartedAt returns when the current session began
func (s *Session) StartedAt() time.Time {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.startedAt
}

// Snapshot returns the most recent cycle hand-off
func (s *Session) Snapshot() CycleSnapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.latest
}

// Reconnect runs one out-of-band validation cycle against the configured
// origin, bypassing the polling cadence. It shares the cycle lock with
// scheduled ticks, so the two never mutate state concurrently; a tick that
// fires while a reconnect is in flight is skipped, not queued.
func (s *Session) Reconnect() (CycleSnapshot, error) {
	// Mode and FailStreak live inside a session; nothing may mutate them
	// between stop and the next start
	if !s.Running() {
		return CycleSnapshot{}, fmt.Errorf("reconnect: %w", ErrSessionState)
	}
	if s.modeCtrl.Configured() == models.ModeSimulated {
		return CycleSnapshot{}, ErrNoOrigin
	}
	snapshot, _ := s.runCycle(CycleReconnect, s.cfg.Polling.FetchTimeout.Std())
	return snapshot, nil
}

// poll drives scheduled cycles on the fixed interval
func (s *Session) poll(stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.Polling.Interval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.runCycle(CycleScheduled, s.cfg.Polling.FetchTimeout.Std())
		}
	}
}

// runCycle executes one complete validation cycle: fetch, classify, feed
// the verdict through the FSM, update history, publish. Scheduled cycles
// that would overlap an in-flight one are skipped.
func (s *Session) runCycle(kind CycleKind, timeout time.Duration) (CycleSnapshot, bool) {
	if kind == CycleScheduled {
		if !s.cycleMu.TryLock() {
			log.Printf("[POLL] previous cycle still in flight, tick skipped")
			return CycleSnapshot{}, false
		}
	} else {
		s.cycleMu.Lock()
	}
	defer s.cycleMu.Unlock()

	// a stop may have landed while this cycle waited on the lock; session
	// state must stay torn down
	if !s.Running() {
		return CycleSnapshot{}, false
	}

	// scheduled cycles in simulated mode still probe the configured origin
	// so the session can recover on its own; boot and reconnect always
	// target the configured origin
	target := s.modeCtrl.Mode()
	if kind != CycleScheduled || target == models.ModeSimulated {
		target = s.modeCtrl.Configured()
	}

	var result models.CycleResult
	if origin, ok := s.origins[target]; ok && target != models.ModeSimulated {
		result = s.aggregator.Collect(context.Background(), origin, timeout)
	} else {
		result = models.CycleResult{
			Sample:  models.TelemetrySample{Readings: map[models.Channel]models.Reading{}},
			Verdict: models.VerdictFailed,
		}
	}

	events := s.modeCtrl.Apply(kind, result.Verdict)
	s.history.Record(result)

	// whatever a failed cycle brought back must not reach the display:
	// absent primaries or a stale sample mean the readings were rejected,
	// and operators see placeholders, never partial or stale values. This
	// also covers simulated mode, whose cycles are never usable.
	if !result.Verdict.Usable() {
		result = models.CycleResult{
			Sample:  models.TelemetrySample{Readings: map[models.Channel]models.Reading{}},
			Verdict: result.Verdict,
		}
	}

	snapshot := CycleSnapshot{
		Result:     result,
		Verdict:    result.Verdict.String(),
		Mode:       s.modeCtrl.Mode(),
		FailStreak: s.modeCtrl.FailStreak(),
		Events:     events,
		At:         time.Now(),
	}

	s.stateMu.Lock()
	s.latest = snapshot
	s.stateMu.Unlock()

	s.publish(snapshot)
	return snapshot, true
}

// publish logs emitted events and notifies the presentation sink
func (s *Session) publish(snapshot CycleSnapshot) {
	for _, event := range snapshot.Events {
		switch event.Type {
		case models.EventConnectionEstablished:
			log.Printf("[MODE] connection established (%s)", event.Mode)
		case models.EventConnectionFailed:
			log.Printf("[MODE] origin unreachable, staying in %s", event.Mode)
		case models.EventErrorLogged:
			log.Printf("[MODE] cycle failed in %s (streak: %d)", event.Mode, event.FailStreak)
		case models.EventFallback:
			log.Printf("[MODE] failure threshold reached, falling back to %s", event.Mode)
		}
		if s.OnEvent != nil {
			s.OnEvent(event)
		}
	}
	if s.OnCycle != nil {
		s.OnCycle(snapshot)
	}
}
