package services

import (
	"context"
	"math"
	"sync"
	"time"

	"groundstation/internal/models"
)

// standardPressure is sea-level pressure in hPa, the barometric reference
const standardPressure = 1013.25

// Aggregator runs one fetch per configured channel concurrently and folds
// the results into a classified cycle. It holds no session state.
type Aggregator struct {
	channels []models.Channel
	maxAge   time.Duration
	now      func() time.Time
}

// NewAggregator builds an aggregator over a fixed channel set
func NewAggregator(channels []models.Channel, maxAge time.Duration) *Aggregator {
	return &Aggregator{
		channels: channels,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Collect fetches every channel from the origin in parallel, each with its
// own timeout, and classifies the cycle. The cycle completes only after all
// fetches resolve; partial data is still useful, so there is no early exit.
// Results merge in fixed channel order regardless of completion order.
func (a *Aggregator) Collect(ctx context.Context, origin Origin, timeout time.Duration) models.CycleResult {
	type slot struct {
		reading models.Reading
		ok      bool
	}
	slots := make([]slot, len(a.channels))

	var wg sync.WaitGroup
	for i, ch := range a.channels {
		wg.Add(1)
		go func(i int, ch models.Channel) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			reading, ok := origin.Fetch(fetchCtx, ch)
			slots[i] = slot{reading: reading, ok: ok}
		}(i, ch)
	}
	wg.Wait()

	sample := models.TelemetrySample{Readings: make(map[models.Channel]models.Reading, len(a.channels))}
	for i, ch := range a.channels {
		if slots[i].ok {
			sample.Readings[ch] = slots[i].reading
		}
	}
	if temp, ok := sample.Get(models.ChannelTemperature); ok {
		sample.Timestamp = temp.At
	}

	verdict := a.classify(&sample)

	result := models.CycleResult{Sample: sample, Verdict: verdict}
	if verdict.Usable() {
		result.Derived = derive(&sample)
	}
	return result
}

// classify applies the Valid / PartiallyInvalid / Failed rules
func (a *Aggregator) classify(sample *models.TelemetrySample) models.Verdict {
	_, hasTemp := sample.Get(models.ChannelTemperature)
	_, hasPressure := sample.Get(models.ChannelPressure)
	if !hasTemp || !hasPressure {
		return models.VerdictFailed
	}

	// staleness of the primary timestamp invalidates the whole cycle, no
	// matter how well the other channels parsed
	if !IsFresh(a.now(), sample.Timestamp, a.maxAge) {
		return models.VerdictFailed
	}

	for _, ch := range a.channels {
		if ch.IsPrimary() {
			continue
		}
		if _, ok := sample.Get(ch); !ok {
			return models.VerdictPartiallyInvalid
		}
	}
	return models.VerdictValid
}

// derive computes the secondary quantities available from a usable sample.
// Each value requires all of its inputs; nothing is synthesized from
// partial axes.
func derive(sample *models.TelemetrySample) models.Derived {
	var d models.Derived

	if pressure, ok := sample.Get(models.ChannelPressure); ok {
		altitude := Altitude(pressure.Value)
		d.AltitudeM = &altitude
	}

	if temp, ok := sample.Get(models.ChannelTemperature); ok {
		if core, ok := sample.Get(models.ChannelCoreTemp); ok {
			delta := temp.Value - core.Value
			d.TempDelta = &delta
		}
	}

	d.GyroMag = magnitude(sample, models.ChannelGyroX, models.ChannelGyroY, models.ChannelGyroZ)
	d.AccelMag = magnitude(sample, models.ChannelAccelX, models.ChannelAccelY, models.ChannelAccelZ)

	return d
}

// Altitude converts pressure in hPa to altitude in meters using the
// barometric formula
func Altitude(pressure float64) float64 {
	return 44330 * (1 - math.Pow(pressure/standardPressure, 1/5.255))
}

// magnitude returns the Euclidean norm of a 3-axis group, or nil unless all
// three axes are present
func magnitude(sample *models.TelemetrySample, x, y, z models.Channel) *float64 {
	rx, okX := sample.Get(x)
	ry, okY := sample.Get(y)
	rz, okZ := sample.Get(z)
	if !okX || !okY || !okZ {
		return nil
	}
	norm := math.Sqrt(rx.Value*rx.Value + ry.Value*ry.Value + rz.Value*rz.Value)
	return &norm
}
