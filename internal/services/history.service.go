package services

import (
	"sync"

	"groundstation/internal/models"
)

// Derived series names used alongside raw channel keys in the history window
const (
	SeriesAltitude  = "altitude_m"
	SeriesTempDelta = "temp_delta"
	SeriesGyroMag   = "gyro_mag"
	SeriesAccelMag  = "accel_mag"
)

// HistoryEngine maintains fixed-capacity ring buffers of recent observations
// per channel plus the derived series. Buffers only ever hold real values
// from usable cycles — gaps are never backfilled with zeros or placeholders,
// so a sparkline shows a flat or short trace after an outage instead of a
// false dip.
//
// The polling loop is the only writer; the lock exists for HTTP and
// WebSocket readers.
type HistoryEngine struct {
	mu       sync.RWMutex
	capacity int
	series   map[string][]models.HistoryPoint
}

// NewHistoryEngine builds an engine whose buffers hold at most capacity points
func NewHistoryEngine(capacity int) *HistoryEngine {
	return &HistoryEngine{
		capacity: capacity,
		series:   make(map[string][]models.HistoryPoint),
	}
}

// Record appends every resolved value of a usable cycle to its buffer.
// Non-usable cycles leave all buffers untouched.
func (h *HistoryEngine) Record(result models.CycleResult) {
	if !result.Verdict.Usable() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch, reading := range result.Sample.Readings {
		h.append(string(ch), models.HistoryPoint{Timestamp: reading.At, Value: reading.Value})
	}

	at := result.Sample.Timestamp
	if v := result.Derived.AltitudeM; v != nil {
		h.append(SeriesAltitude, models.HistoryPoint{Timestamp: at, Value: *v})
	}
	if v := result.Derived.TempDelta; v != nil {
		h.append(SeriesTempDelta, models.HistoryPoint{Timestamp: at, Value: *v})
	}
	if v := result.Derived.GyroMag; v != nil {
		h.append(SeriesGyroMag, models.HistoryPoint{Timestamp: at, Value: *v})
	}
	if v := result.Derived.AccelMag; v != nil {
		h.append(SeriesAccelMag, models.HistoryPoint{Timestamp: at, Value: *v})
	}
}

// append adds one point, evicting the oldest on overflow
func (h *HistoryEngine) append(key string, point models.HistoryPoint) {
	buffer := append(h.series[key], point)
	if len(buffer) > h.capacity {
		buffer = buffer[1:]
	}
	h.series[key] = buffer
}

// Len returns the number of buffered points for a series
func (h *HistoryEngine) Len(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.series[key])
}

// Window returns a copy of every buffer for the dashboard
func (h *HistoryEngine) Window() models.HistoryWindow {
	h.mu.RLock()
	defer h.mu.RUnlock()

	window := make(models.HistoryWindow, len(h.series))
	for key, buffer := range h.series {
		points := make([]models.HistoryPoint, len(buffer))
		copy(points, buffer)
		window[key] = points
	}
	return window
}

// Clear empties every buffer; called at session end
func (h *HistoryEngine) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.series = make(map[string][]models.HistoryPoint)
}
