package services

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"

	"groundstation/internal/config"
	"groundstation/internal/models"
)

// FeedService is the local backend's telemetry provider: it tails the
// telem.txt file the CubeSat simulator appends to, parses the most recent
// line per sensor, and layers host stats (CPU load, board temperature) on
// top. The result is what GET /api/telemetry serves.
type FeedService struct {
	mu       sync.RWMutex
	snapshot models.FeedSnapshot

	telemFile  string
	staleAfter time.Duration
	interval   time.Duration

	running bool
	stop    chan struct{}
}

// NewFeedService builds the feed reader from its config section
func NewFeedService(cfg config.FeedConfig) *FeedService {
	return &FeedService{
		telemFile:  cfg.TelemFile,
		staleAfter: cfg.StaleAfter.Std(),
		interval:   cfg.ReadInterval.Std(),
		snapshot:   models.FeedSnapshot{Status: models.FeedStatusNoFile},
	}
}

// Start begins the background read loop
func (f *FeedService) Start() {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return
	}
	f.running = true
	f.stop = make(chan struct{})
	stop := f.stop
	f.mu.Unlock()

	go func() {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				f.refresh()
			}
		}
	}()

	log.Printf("[FEED] reader started (file: %s, interval: %v)", f.telemFile, f.interval)
}

// Stop halts the read loop
func (f *FeedService) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return
	}
	f.running = false
	close(f.stop)
	log.Printf("[FEED] reader stopped")
}

// Snapshot returns the current feed payload
func (f *FeedService) Snapshot() models.FeedSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

// refresh performs one read pass. Host stats are gathered outside the lock;
// they can take a while and readers should not wait on them.
func (f *FeedService) refresh() {
	system := models.SystemInfo{
		CPU:     cpuLoad(),
		GPUTemp: boardTemp(),
	}

	now := time.Now().UTC()
	status, parsed := f.readTelemFile(now)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.snapshot.System = system
	f.snapshot.Status = status
	f.snapshot.Timestamp = &now

	if status != models.FeedStatusLive {
		return
	}
	if parsed.ms5611 != nil {
		f.snapshot.MS5611 = *parsed.ms5611
	}
	if parsed.mpu6050 != nil {
		f.snapshot.MPU6050 = *parsed.mpu6050
	}
	if parsed.tmp != nil {
		f.snapshot.Tmp = *parsed.tmp
	}
	if parsed.bat != nil {
		f.snapshot.Bat = *parsed.bat
	}
}

// readTelemFile classifies the file's freshness and parses the latest
// sensor lines when it is live
func (f *FeedService) readTelemFile(now time.Time) (string, telemData) {
	info, err := os.Stat(f.telemFile)
	if err != nil {
		return models.FeedStatusNoFile, telemData{}
	}
	if now.Sub(info.ModTime()) > f.staleAfter {
		return models.FeedStatusStale, telemData{}
	}

	content, err := os.ReadFile(f.telemFile)
	if err != nil {
		return models.FeedStatusNoFile, telemData{}
	}

	return models.FeedStatusLive, parseTelemetry(string(content))
}

// telemData holds whatever sensors a parse pass managed to resolve
type telemData struct {
	ms5611  *models.MS5611
	mpu6050 *models.MPU6050
	bat     *models.Battery
	tmp     *float64
	gps     *[3]float64
}

// parseTelemetry scans the file from the tail and keeps the most recent
// line mentioning each sensor; the simulator writes them on separate lines
func parseTelemetry(content string) telemData {
	lines := strings.Split(content, "\n")

	var lastMS5611, lastMPU6050, lastTmp, lastBat string
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if lastMS5611 == "" && strings.Contains(line, "MS5611") {
			lastMS5611 = line
		}
		if lastMPU6050 == "" && strings.Contains(line, "MPU6050") {
			lastMPU6050 = line
		}
		if lastTmp == "" && strings.Contains(line, "TMP") {
			lastTmp = line
		}
		if lastBat == "" && strings.Contains(line, "BAT") {
			lastBat = line
		}
		if lastMS5611 != "" && lastMPU6050 != "" && lastTmp != "" && lastBat != "" {
			break
		}
	}

	var data telemData
	merge := func(line string) {
		parsed := parseTelemLine(line)
		if data.ms5611 == nil {
			data.ms5611 = parsed.ms5611
		}
		if data.mpu6050 == nil {
			data.mpu6050 = parsed.mpu6050
		}
		if data.tmp == nil {
			data.tmp = parsed.tmp
		}
		if data.bat == nil {
			data.bat = parsed.bat
		}
	}
	for _, line := range []string{lastMS5611, lastMPU6050, lastTmp, lastBat} {
		if line != "" {
			merge(line)
		}
	}
	return data
}

// parseTelemLine tokenizes one simulator line. Tokens of interest:
//
//	TMP <temp>
//	GPS <lat> <lon> <alt>
//	MS5611 <temp> <pressure> <altitude>   (a bare "MS5611>" sentinel at the
//	       end of a line means no baro values: TMP stands in for temp,
//	       standard pressure and the GPS altitude fill the rest)
//	MPU6050 <gx> <gy> <gz> <ax> <ay> <az>
//	BAT <volts> <amps>
func parseTelemLine(line string) telemData {
	parts := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})

	var data telemData

	if idx := tokenIndex(parts, "TMP"); idx >= 0 && idx+1 < len(parts) {
		if v, err := strconv.ParseFloat(parts[idx+1], 64); err == nil {
			data.tmp = &v
		}
	}

	if idx := tokenIndex(parts, "GPS"); idx >= 0 && idx+3 < len(parts) {
		lat, errLat := strconv.ParseFloat(parts[idx+1], 64)
		lon, errLon := strconv.ParseFloat(parts[idx+2], 64)
		alt, errAlt := strconv.ParseFloat(parts[idx+3], 64)
		if errLat == nil && errLon == nil && errAlt == nil {
			data.gps = &[3]float64{lat, lon, alt}
		}
	}

	if idx := tokenPrefixIndex(parts, "MS5611"); idx >= 0 {
		if idx+3 < len(parts) {
			t, errT := strconv.ParseFloat(parts[idx+1], 64)
			p, errP := strconv.ParseFloat(parts[idx+2], 64)
			a, errA := strconv.ParseFloat(parts[idx+3], 64)
			if errT == nil && errP == nil && errA == nil {
				data.ms5611 = &models.MS5611{Temp: t, Pressure: p, Altitude: a}
			}
		} else {
			temp := 0.0
			if data.tmp != nil {
				temp = *data.tmp
			}
			altitude := 0.0
			if data.gps != nil {
				altitude = data.gps[2]
			}
			data.ms5611 = &models.MS5611{Temp: temp, Pressure: 1013.25, Altitude: altitude}
		}
	}

	if idx := tokenIndex(parts, "MPU6050"); idx >= 0 && idx+6 < len(parts) {
		values := make([]float64, 6)
		ok := true
		for i := 0; i < 6; i++ {
			v, err := strconv.ParseFloat(parts[idx+1+i], 64)
			if err != nil {
				ok = false
				break
			}
			values[i] = v
		}
		if ok {
			data.mpu6050 = &models.MPU6050{
				Gx: values[0], Gy: values[1], Gz: values[2],
				Ax: values[3], Ay: values[4], Az: values[5],
			}
		}
	}

	if idx := tokenIndex(parts, "BAT"); idx >= 0 && idx+1 < len(parts) {
		if volts, err := strconv.ParseFloat(parts[idx+1], 64); err == nil {
			bat := models.Battery{Volts: volts}
			if idx+2 < len(parts) {
				if amps, err := strconv.ParseFloat(parts[idx+2], 64); err == nil {
					bat.Amps = amps
				}
			}
			data.bat = &bat
		}
	}

	return data
}

// tokenIndex finds an exact token
func tokenIndex(parts []string, token string) int {
	for i, p := range parts {
		if p == token {
			return i
		}
	}
	return -1
}

// tokenPrefixIndex finds a token or a sentinel form of it (e.g. "MS5611>")
func tokenPrefixIndex(parts []string, token string) int {
	for i, p := range parts {
		if p == token || strings.HasPrefix(p, token) {
			return i
		}
	}
	return -1
}

// cpuLoad samples the host CPU usage since the last call
func cpuLoad() float64 {
	percentages, err := cpu.Percent(0, false)
	if err != nil || len(percentages) == 0 {
		return 0
	}
	return percentages[0]
}

// boardTemp reads the first plausible hardware temperature sensor
func boardTemp() float64 {
	sensors, err := host.SensorsTemperatures()
	if err != nil {
		return 0
	}
	for _, sensor := range sensors {
		if sensor.Temperature > 0 {
			return sensor.Temperature
		}
	}
	return 0
}
