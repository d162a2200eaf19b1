package models

import "time"

// Channel is an enumerated telemetry channel name
type Channel string

const (
	ChannelTemperature Channel = "temperature"
	ChannelPressure    Channel = "pressure"
	ChannelCoreTemp    Channel = "core_temp"
	ChannelCPUUsage    Channel = "cpu_usage"
	ChannelVibration   Channel = "vibration"
	ChannelBattery     Channel = "battery"
	ChannelGyroX       Channel = "gyro_x"
	ChannelGyroY       Channel = "gyro_y"
	ChannelGyroZ       Channel = "gyro_z"
	ChannelAccelX      Channel = "accel_x"
	ChannelAccelY      Channel = "accel_y"
	ChannelAccelZ      Channel = "accel_z"
)

// Placeholder is the display value for an absent channel.
// Absent channels always render as this, never as a fabricated reading.
const Placeholder = "--.--"

// DefaultChannels returns the full channel set in fixed fetch/merge order
func DefaultChannels() []Channel {
	return []Channel{
		ChannelTemperature,
		ChannelPressure,
		ChannelCoreTemp,
		ChannelCPUUsage,
		ChannelVibration,
		ChannelBattery,
		ChannelGyroX,
		ChannelGyroY,
		ChannelGyroZ,
		ChannelAccelX,
		ChannelAccelY,
		ChannelAccelZ,
	}
}

// IsPrimary reports whether the channel is required for a cycle to be Valid
func (c Channel) IsPrimary() bool {
	return c == ChannelTemperature || c == ChannelPressure
}

// Reading is a single resolved channel value with its origin timestamp
type Reading struct {
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

// TelemetrySample maps channels to their readings for one cycle.
// Absence of a channel key means the fetch for it failed or was skipped;
// channels are independent, so partial samples are normal.
type TelemetrySample struct {
	Readings map[Channel]Reading `json:"readings"`
	// Timestamp is the origin-reported timestamp of the primary temperature
	// channel, zero when that channel is absent
	Timestamp time.Time `json:"timestamp"`
}

// Get returns the reading for a channel and whether it is present
func (s *TelemetrySample) Get(c Channel) (Reading, bool) {
	r, ok := s.Readings[c]
	return r, ok
}

// Value returns a pointer to the channel's numeric value, nil when absent
func (s *TelemetrySample) Value(c Channel) *float64 {
	if r, ok := s.Readings[c]; ok {
		v := r.Value
		return &v
	}
	return nil
}

// Verdict classifies one polling cycle
type Verdict int

const (
	VerdictFailed Verdict = iota
	VerdictPartiallyInvalid
	VerdictValid
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictPartiallyInvalid:
		return "partially_invalid"
	default:
		return "failed"
	}
}

// Usable reports whether the verdict counts as a success for mode transitions.
// PartiallyInvalid cycles carry fresh primary data, so they do.
func (v Verdict) Usable() bool {
	return v == VerdictValid || v == VerdictPartiallyInvalid
}

// Mode identifies the authoritative telemetry origin
type Mode string

const (
	ModeSimulated    Mode = "simulated"
	ModeLocalBackend Mode = "local"
	ModeCloud        Mode = "cloud"
)

// Derived holds quantities computed from a Valid sample. Pointers are nil
// when the inputs required by the formula were not all present.
type Derived struct {
	AltitudeM *float64 `json:"altitude_m,omitempty"`
	TempDelta *float64 `json:"temp_delta,omitempty"`
	GyroMag   *float64 `json:"gyro_mag,omitempty"`
	AccelMag  *float64 `json:"accel_mag,omitempty"`
}

// CycleResult is the aggregator's full output for one cycle
type CycleResult struct {
	Sample  TelemetrySample `json:"sample"`
	Verdict Verdict         `json:"-"`
	Derived Derived         `json:"derived"`
}
