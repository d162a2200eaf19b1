package controllers

import (
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"groundstation/internal/models"
	"groundstation/internal/services"
)

// TelemetryController serves the raw local feed, the arbitrated dashboard
// view and the buffered history
type TelemetryController struct {
	Feed    *services.FeedService
	Session *services.Session
}

// GetTelemetry returns the local feed payload as-is
func (t *TelemetryController) GetTelemetry(c *gin.Context) {
	c.JSON(http.StatusOK, t.Feed.Snapshot())
}

// GetHealth is the liveness endpoint
func (t *TelemetryController) GetHealth(c *gin.Context) {
	snapshot := t.Feed.Snapshot()
	health := gin.H{
		"ok":          true,
		"feed_status": snapshot.Status,
	}
	if snapshot.Timestamp != nil {
		health["data_age"] = humanize.Time(*snapshot.Timestamp)
	}
	if t.Session.Running() {
		health["session_started"] = humanize.Time(t.Session.StartedAt())
	}
	c.JSON(http.StatusOK, health)
}

// GetDashboard returns the operator view: the latest arbitrated cycle with
// placeholders for absent channels, derived values, mode and history
func (t *TelemetryController) GetDashboard(c *gin.Context) {
	snapshot := t.Session.Snapshot()

	display := gin.H{}
	for _, ch := range t.Session.Channels() {
		if reading, ok := snapshot.Result.Sample.Get(ch); ok {
			display[string(ch)] = fmt.Sprintf("%.2f", reading.Value)
		} else {
			display[string(ch)] = models.Placeholder
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"mode":        snapshot.Mode,
		"fail_streak": snapshot.FailStreak,
		"verdict":     snapshot.Verdict,
		"display":     display,
		"sample":      snapshot.Result.Sample,
		"derived":     snapshot.Result.Derived,
		"history":     t.Session.History().Window(),
		"timestamp":   snapshot.At,
	})
}

// GetHistory returns the ring buffers alone
func (t *TelemetryController) GetHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": t.Session.History().Window(),
	})
}
