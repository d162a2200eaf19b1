package models

import "time"

// EventType names a Mode Controller event
type EventType string

const (
	// EventConnectionEstablished fires once per mode entry, on the first
	// usable cycle after entering a non-simulated mode
	EventConnectionEstablished EventType = "connection_established"
	// EventConnectionFailed fires when the session-start or reconnect
	// validation cycle cannot reach the configured origin
	EventConnectionFailed EventType = "connection_failed"
	// EventErrorLogged fires on the first failure of a streak only
	EventErrorLogged EventType = "error_logged"
	// EventFallback fires when the failure threshold forces a drop to
	// simulated mode
	EventFallback EventType = "fallback"
)

// ModeEvent is emitted by the Mode Controller alongside a transition
type ModeEvent struct {
	Type       EventType `json:"type"`
	Mode       Mode      `json:"mode"`
	FailStreak int       `json:"fail_streak"`
	Timestamp  time.Time `json:"timestamp"`
}
