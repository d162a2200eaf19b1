package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"groundstation/internal/config"
	"groundstation/internal/models"
)

func cloudOriginFor(t *testing.T, handler http.HandlerFunc) (*CloudOrigin, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	origin := NewCloudOrigin(config.CloudConfig{
		Base:      server.URL,
		APIKey:    "test-key",
		KeyHeader: "X-AIO-Key",
	})
	return origin, server
}

func TestCloudOriginFetch(t *testing.T) {
	var gotPath, gotKey string
	origin, _ := cloudOriginFor(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-AIO-Key")
		fmt.Fprint(w, `{"value": "22.5", "created_at": "2026-08-26T10:15:00Z"}`)
	})

	reading, ok := origin.Fetch(context.Background(), models.ChannelTemperature)
	if !ok {
		t.Fatal("fetch failed")
	}
	if reading.Value != 22.5 {
		t.Errorf("value = %v, want 22.5", reading.Value)
	}
	want := time.Date(2026, 8, 26, 10, 15, 0, 0, time.UTC)
	if !reading.At.Equal(want) {
		t.Errorf("at = %v, want %v", reading.At, want)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	wantPath := "/feeds/" + string(models.ChannelTemperature) + "/data/last"
	if gotPath != wantPath {
		t.Errorf("path = %q, want %q", gotPath, wantPath)
	}
}

func TestCloudOriginNumericValue(t *testing.T) {
	origin, _ := cloudOriginFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": 1005.3, "created_at": "2026-08-26T10:15:00Z"}`)
	})

	reading, ok := origin.Fetch(context.Background(), models.ChannelPressure)
	if !ok {
		t.Fatal("fetch failed")
	}
	if reading.Value != 1005.3 {
		t.Errorf("value = %v", reading.Value)
	}
}

func TestCloudOriginBadResponses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"value": `)
		}},
		{"non numeric value", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"value": "n/a"}`)
		}},
		{"null value", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"value": null}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origin, _ := cloudOriginFor(t, tt.handler)
			if _, ok := origin.Fetch(context.Background(), models.ChannelTemperature); ok {
				t.Error("fetch reported ok")
			}
		})
	}
}

func TestCloudOriginMissingCreatedAtUsesLocalClock(t *testing.T) {
	origin, _ := cloudOriginFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": 3.3}`)
	})
	frozen := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	origin.now = func() time.Time { return frozen }

	reading, ok := origin.Fetch(context.Background(), models.ChannelBattery)
	if !ok {
		t.Fatal("fetch failed")
	}
	if !reading.At.Equal(frozen) {
		t.Errorf("at = %v, want fetch time", reading.At)
	}
}

func TestCloudOriginFeedNameOverride(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"value": 1}`)
	}))
	defer server.Close()

	origin := NewCloudOrigin(config.CloudConfig{
		Base:      server.URL,
		KeyHeader: "X-AIO-Key",
		Feeds:     map[string]string{string(models.ChannelTemperature): "cansat.temp"},
	})

	if _, ok := origin.Fetch(context.Background(), models.ChannelTemperature); !ok {
		t.Fatal("fetch failed")
	}
	if gotPath != "/feeds/cansat.temp/data/last" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestCloudOriginHonorsContextDeadline(t *testing.T) {
	origin, _ := cloudOriginFor(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"value": 1}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, ok := origin.Fetch(ctx, models.ChannelTemperature); ok {
		t.Error("fetch reported ok past the deadline")
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("fetch blocked %v past its deadline", elapsed)
	}
}

const localPayload = `{
	"status": "live",
	"timestamp": "2026-08-26T10:15:00Z",
	"ms5611": {"temp": 22.5, "pressure": 1005.3},
	"mpu6050": {"gx": 0.1, "gy": 0.2, "gz": 0.3, "ax": 0.01, "ay": 0.02, "az": 0.98},
	"tmp": 41.0,
	"bat": {"volts": 3.7, "amps": 0.4},
	"system": {"cpu": 12.5},
	"vibration": 0.05
}`

func localOriginFor(t *testing.T, handler http.HandlerFunc) *LocalOrigin {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewLocalOrigin(config.LocalConfig{Base: server.URL})
}

func TestLocalOriginExtraction(t *testing.T) {
	origin := localOriginFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, localPayload)
	})

	tests := []struct {
		channel models.Channel
		want    float64
	}{
		{models.ChannelTemperature, 22.5},
		{models.ChannelPressure, 1005.3},
		{models.ChannelCoreTemp, 41.0},
		{models.ChannelCPUUsage, 12.5},
		{models.ChannelBattery, 3.7},
		{models.ChannelVibration, 0.05},
		{models.ChannelGyroX, 0.1},
		{models.ChannelAccelZ, 0.98},
	}

	for _, tt := range tests {
		t.Run(string(tt.channel), func(t *testing.T) {
			reading, ok := origin.Fetch(context.Background(), tt.channel)
			if !ok {
				t.Fatal("fetch failed")
			}
			if reading.Value != tt.want {
				t.Errorf("value = %v, want %v", reading.Value, tt.want)
			}
			want := time.Date(2026, 8, 26, 10, 15, 0, 0, time.UTC)
			if !reading.At.Equal(want) {
				t.Errorf("at = %v", reading.At)
			}
		})
	}
}

func TestLocalOriginRejectsNonLiveFeed(t *testing.T) {
	for _, status := range []string{models.FeedStatusStale, models.FeedStatusNoFile} {
		t.Run(status, func(t *testing.T) {
			origin := localOriginFor(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"status": %q, "ms5611": {"temp": 22.5}}`, status)
			})
			if _, ok := origin.Fetch(context.Background(), models.ChannelTemperature); ok {
				t.Error("stale backend data passed as current")
			}
		})
	}
}

func TestLocalOriginMissingField(t *testing.T) {
	origin := localOriginFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "live", "ms5611": {"temp": 22.5}}`)
	})
	if _, ok := origin.Fetch(context.Background(), models.ChannelPressure); ok {
		t.Error("absent field reported as a reading")
	}
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
		ok   bool
	}{
		{"number", `42.5`, 42.5, true},
		{"integer", `7`, 7, true},
		{"quoted number", `"42.5"`, 42.5, true},
		{"quoted scientific", `"1.2e3"`, 1200, true},
		{"text", `"hello"`, 0, false},
		{"empty string", `""`, 0, false},
		{"bool", `true`, 0, false},
		{"empty", ``, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseNumeric([]byte(tt.raw))
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseNumeric(%s) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}
