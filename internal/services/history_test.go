package services

import (
	"testing"
	"time"

	"groundstation/internal/models"
)

func usableResult(verdict models.Verdict, at time.Time) models.CycleResult {
	altitude := 66.4
	return models.CycleResult{
		Sample: models.TelemetrySample{
			Readings: map[models.Channel]models.Reading{
				models.ChannelTemperature: {Value: 22.5, At: at},
				models.ChannelPressure:    {Value: 1005.3, At: at},
			},
			Timestamp: at,
		},
		Verdict: verdict,
		Derived: models.Derived{AltitudeM: &altitude},
	}
}

func TestHistoryRecordsUsableCycles(t *testing.T) {
	engine := NewHistoryEngine(60)
	now := time.Now()

	engine.Record(usableResult(models.VerdictValid, now))
	engine.Record(usableResult(models.VerdictPartiallyInvalid, now.Add(time.Second)))

	if got := engine.Len(string(models.ChannelTemperature)); got != 2 {
		t.Errorf("temperature points = %d, want 2", got)
	}
	if got := engine.Len(SeriesAltitude); got != 2 {
		t.Errorf("altitude points = %d, want 2", got)
	}
}

func TestHistorySkipsFailedCycles(t *testing.T) {
	engine := NewHistoryEngine(60)
	engine.Record(usableResult(models.VerdictFailed, time.Now()))

	if got := engine.Len(string(models.ChannelTemperature)); got != 0 {
		t.Errorf("failed cycle recorded %d points", got)
	}
}

func TestHistoryEvictsOldestAtCapacity(t *testing.T) {
	engine := NewHistoryEngine(3)
	base := time.Now()

	for i := 0; i < 5; i++ {
		engine.Record(models.CycleResult{
			Sample: models.TelemetrySample{
				Readings: map[models.Channel]models.Reading{
					models.ChannelPressure: {Value: float64(i), At: base.Add(time.Duration(i) * time.Second)},
				},
				Timestamp: base.Add(time.Duration(i) * time.Second),
			},
			Verdict: models.VerdictPartiallyInvalid,
		})
	}

	window := engine.Window()
	points := window[string(models.ChannelPressure)]
	if len(points) != 3 {
		t.Fatalf("buffer len = %d, want capacity 3", len(points))
	}
	// the two oldest observations were evicted
	if points[0].Value != 2 || points[2].Value != 4 {
		t.Errorf("window = %+v, want values 2..4 in order", points)
	}
}

func TestHistoryWindowIsACopy(t *testing.T) {
	engine := NewHistoryEngine(60)
	engine.Record(usableResult(models.VerdictValid, time.Now()))

	window := engine.Window()
	key := string(models.ChannelTemperature)
	window[key][0].Value = -999

	if fresh := engine.Window(); fresh[key][0].Value == -999 {
		t.Error("window mutation reached the engine's buffer")
	}
}

func TestHistoryClear(t *testing.T) {
	engine := NewHistoryEngine(60)
	engine.Record(usableResult(models.VerdictValid, time.Now()))
	engine.Clear()

	if len(engine.Window()) != 0 {
		t.Error("buffers survive clear")
	}
}
