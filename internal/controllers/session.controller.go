package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"groundstation/internal/services"
)

// SessionController controls the arbitration engine's lifecycle and the
// manual reconnect action
type SessionController struct {
	Session *services.Session
	Tokens  *services.TokenService
}

// PostStart begins a polling session (the login boundary)
func (s *SessionController) PostStart(c *gin.Context) {
	if err := s.Session.Start(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "session already running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "mode": s.Session.Snapshot().Mode})
}

// PostStop tears the session down (the logout boundary)
func (s *SessionController) PostStop(c *gin.Context) {
	if err := s.Session.Stop(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "session not running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// PostReconnect runs the out-of-band validation cycle against the
// configured origin and reports the resulting mode
func (s *SessionController) PostReconnect(c *gin.Context) {
	snapshot, err := s.Session.Reconnect()
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionState):
			c.JSON(http.StatusConflict, gin.H{"error": "session not running"})
		case errors.Is(err, services.ErrNoOrigin):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no telemetry origin configured"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reconnect failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":        snapshot.Mode,
		"fail_streak": snapshot.FailStreak,
		"verdict":     snapshot.Verdict,
		"events":      snapshot.Events,
	})
}

// GetStatus reports the session's current state
func (s *SessionController) GetStatus(c *gin.Context) {
	snapshot := s.Session.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"running":     s.Session.Running(),
		"mode":        snapshot.Mode,
		"fail_streak": snapshot.FailStreak,
		"verdict":     snapshot.Verdict,
		"last_cycle":  snapshot.At,
	})
}

// GetTokenStatus validates a session token from the Authorization header
// or a query parameter
func (s *SessionController) GetTokenStatus(c *gin.Context) {
	token := ""
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required in Authorization header or query parameter"})
		return
	}

	claims, err := s.Tokens.Validate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"user":       claims.UserID,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt.Time,
	})
}
