package models

import "time"

// Feed status values reported by the local telemetry feed
const (
	FeedStatusLive   = "live"
	FeedStatusStale  = "stale"
	FeedStatusNoFile = "no_file"
)

// MS5611 is the barometer reading block of the local feed payload
type MS5611 struct {
	Temp     float64 `json:"temp"`
	Pressure float64 `json:"pressure"`
	Altitude float64 `json:"altitude"`
}

// MPU6050 is the IMU reading block of the local feed payload
type MPU6050 struct {
	Gx float64 `json:"gx"`
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`
	Ax float64 `json:"ax"`
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`
}

// Battery is the power reading block of the local feed payload
type Battery struct {
	Volts float64 `json:"volts"`
	Amps  float64 `json:"amps"`
}

// SystemInfo carries host-level stats gathered on the feed machine
type SystemInfo struct {
	CPU     float64 `json:"cpu"`
	GPUTemp float64 `json:"gpu_temp"`
}

// FeedSnapshot is the payload served on /api/telemetry by the local backend.
// The shape matches what the CubeSat simulator's ground reader has always
// produced, so existing dashboards keep working.
type FeedSnapshot struct {
	Status    string     `json:"status"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	MS5611    MS5611     `json:"ms5611"`
	MPU6050   MPU6050    `json:"mpu6050"`
	Tmp       float64    `json:"tmp"`
	Bat       Battery    `json:"bat"`
	System    SystemInfo `json:"system"`
}
