package services

import "time"

// IsFresh reports whether a sample timestamp is within the allowed age
// window. A zero timestamp means the origin never reported one and is
// treated as stale.
func IsFresh(now, timestamp time.Time, maxAge time.Duration) bool {
	if timestamp.IsZero() {
		return false
	}
	return now.Sub(timestamp) <= maxAge
}
