package models

import "time"

// HistoryPoint is a single observation in a channel's ring buffer
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// HistoryWindow holds the buffered series for the dashboard, keyed by
// channel or derived-series name
type HistoryWindow map[string][]HistoryPoint
