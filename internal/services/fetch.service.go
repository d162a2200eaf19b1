package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"groundstation/internal/config"
	"groundstation/internal/models"
)

// Origin is a telemetry source the engine can poll. Fetch performs one
// bounded read of a single channel; the deadline comes from ctx. It reports
// absent instead of returning errors — timeouts, network failures,
// non-success statuses and unparsable payloads all look the same to the
// aggregator.
type Origin interface {
	Mode() models.Mode
	Fetch(ctx context.Context, ch models.Channel) (models.Reading, bool)
}

// CloudOrigin polls a per-channel "last value" endpoint, authenticated by
// an API key header. The response carries {value, created_at}.
type CloudOrigin struct {
	cfg    config.CloudConfig
	client *http.Client
	now    func() time.Time
}

// NewCloudOrigin builds a cloud origin from its config section
func NewCloudOrigin(cfg config.CloudConfig) *CloudOrigin {
	return &CloudOrigin{
		cfg:    cfg,
		client: &http.Client{},
		now:    time.Now,
	}
}

// Mode identifies this origin's mode
func (o *CloudOrigin) Mode() models.Mode { return models.ModeCloud }

// lastValue is the cloud provider's per-feed response shape. Providers
// serialize value as either a number or a numeric string.
type lastValue struct {
	Value     json.RawMessage `json:"value"`
	CreatedAt string          `json:"created_at"`
}

// Fetch reads the latest value of one feed
func (o *CloudOrigin) Fetch(ctx context.Context, ch models.Channel) (models.Reading, bool) {
	url := fmt.Sprintf("%s/feeds/%s/data/last", o.cfg.Base, o.cfg.FeedName(ch))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Reading{}, false
	}
	if o.cfg.APIKey != "" {
		req.Header.Set(o.cfg.KeyHeader, o.cfg.APIKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return models.Reading{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Reading{}, false
	}

	var payload lastValue
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Reading{}, false
	}

	value, ok := parseNumeric(payload.Value)
	if !ok {
		return models.Reading{}, false
	}

	// created_at feeds the freshness check; without it the fetch's own
	// completion time stands in
	at := o.now()
	if payload.CreatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, payload.CreatedAt); err == nil {
			at = parsed
		}
	}

	return models.Reading{Value: value, At: at}, true
}

// parseNumeric accepts a JSON number or a quoted numeric string
func parseNumeric(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return finite(asNumber)
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if parsed, err := strconv.ParseFloat(asString, 64); err == nil {
			return finite(parsed)
		}
	}
	return 0, false
}

// finite rejects NaN and infinities, which are as useless as absent data
func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// LocalOrigin polls the local backend's /api/telemetry endpoint and extracts
// a single channel from its payload per fetch.
type LocalOrigin struct {
	base   string
	client *http.Client
	now    func() time.Time
}

// NewLocalOrigin builds a local backend origin
func NewLocalOrigin(cfg config.LocalConfig) *LocalOrigin {
	return &LocalOrigin{
		base:   cfg.Base,
		client: &http.Client{},
		now:    time.Now,
	}
}

// Mode identifies this origin's mode
func (o *LocalOrigin) Mode() models.Mode { return models.ModeLocalBackend }

// localChannelPath maps channels onto the backend payload layout
var localChannelPath = map[models.Channel][]string{
	models.ChannelTemperature: {"ms5611", "temp"},
	models.ChannelPressure:    {"ms5611", "pressure"},
	models.ChannelCoreTemp:    {"tmp"},
	models.ChannelCPUUsage:    {"system", "cpu"},
	models.ChannelBattery:     {"bat", "volts"},
	models.ChannelVibration:   {"vibration"},
	models.ChannelGyroX:       {"mpu6050", "gx"},
	models.ChannelGyroY:       {"mpu6050", "gy"},
	models.ChannelGyroZ:       {"mpu6050", "gz"},
	models.ChannelAccelX:      {"mpu6050", "ax"},
	models.ChannelAccelY:      {"mpu6050", "ay"},
	models.ChannelAccelZ:      {"mpu6050", "az"},
}

// Fetch reads the backend payload and extracts one channel from it
func (o *LocalOrigin) Fetch(ctx context.Context, ch models.Channel) (models.Reading, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.base+"/api/telemetry", nil)
	if err != nil {
		return models.Reading{}, false
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return models.Reading{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Reading{}, false
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Reading{}, false
	}

	// a backend that lost its own feed keeps serving the last values it
	// saw; those must not pass as current observations
	if status, _ := payload["status"].(string); status != models.FeedStatusLive {
		return models.Reading{}, false
	}

	path, ok := localChannelPath[ch]
	if !ok {
		return models.Reading{}, false
	}
	value, ok := walkNumeric(payload, path)
	if !ok {
		return models.Reading{}, false
	}

	at := o.now()
	if stamp, _ := payload["timestamp"].(string); stamp != "" {
		if parsed, err := time.Parse(time.RFC3339, stamp); err == nil {
			at = parsed
		}
	}

	return models.Reading{Value: value, At: at}, true
}

// walkNumeric descends nested JSON objects and returns the leaf as float64
func walkNumeric(payload map[string]any, path []string) (float64, bool) {
	current := any(payload)
	for _, key := range path {
		object, ok := current.(map[string]any)
		if !ok {
			return 0, false
		}
		current, ok = object[key]
		if !ok {
			return 0, false
		}
	}
	value, ok := current.(float64)
	if !ok {
		return 0, false
	}
	return finite(value)
}
