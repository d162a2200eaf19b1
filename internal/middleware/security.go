package middleware

import (
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Package-level security logger instance
var GlobalSecurityLogger *SecurityLogger

// RateLimiter implements token bucket rate limiting per IP
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates the general API limiter: 100 req/s per IP, burst 200
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(100),
		burst:    200,
	}
}

// NewAuthRateLimiter creates the stricter limiter for credential endpoints:
// one attempt per 2 seconds per IP, burst 10
func NewAuthRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(2 * time.Second),
		burst:    10,
	}
}

// GetLimiter gets or creates a limiter for an IP address
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[ip]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[ip] = limiter
	return limiter
}

// RateLimitMiddleware enforces rate limiting per IP
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			log.Printf("[SECURITY] Rate limit exceeded for IP: %s", ip)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": 60,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// CORSMiddleware configures CORS. An empty allow list admits any origin,
// matching how the dashboard has historically been served from file:// and
// LAN hosts.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimRight(c.GetHeader("Origin"), "/")

		allowed := len(allowedOrigins) == 0
		for _, candidate := range allowedOrigins {
			candidate = strings.TrimRight(strings.TrimSpace(candidate), "/")
			if candidate == "*" || candidate == origin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Vary", "Origin")
			if origin != "" {
				c.Header("Access-Control-Allow-Origin", origin)
			} else {
				c.Header("Access-Control-Allow-Origin", "*")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// IPWhitelist restricts API access to operator console addresses
type IPWhitelist struct {
	ips map[string]bool
	mu  sync.RWMutex
}

// NewIPWhitelist creates a whitelist from the configured address list
func NewIPWhitelist(ips []string) *IPWhitelist {
	wl := &IPWhitelist{
		ips: make(map[string]bool),
	}
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			wl.ips[ip] = true
		}
	}
	return wl
}

// IsAllowed checks if an IP is whitelisted. Localhost is always allowed,
// and an empty whitelist admits everyone.
func (wl *IPWhitelist) IsAllowed(ip string) bool {
	wl.mu.RLock()
	defer wl.mu.RUnlock()

	if ip == "127.0.0.1" || ip == "::1" || ip == "localhost" {
		return true
	}
	if len(wl.ips) == 0 {
		return true
	}

	ipOnly, _, _ := net.SplitHostPort(ip)
	if ipOnly == "" {
		ipOnly = ip
	}
	return wl.ips[ipOnly]
}

// IPWhitelistMiddleware enforces IP whitelisting
func IPWhitelistMiddleware(whitelist *IPWhitelist) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !whitelist.IsAllowed(ip) {
			log.Printf("[SECURITY] Access denied for non-whitelisted IP: %s", ip)
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SecurityLogger logs security events
type SecurityLogger struct {
	mu sync.Mutex
}

// NewSecurityLogger creates and installs the global security logger
func NewSecurityLogger() *SecurityLogger {
	sl := &SecurityLogger{}
	GlobalSecurityLogger = sl
	return sl
}

// LogFailedAuth logs failed authentication attempts
func (sl *SecurityLogger) LogFailedAuth(ip string, reason string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	log.Printf("[SECURITY-WARNING] Failed authentication from IP %s: %s", ip, reason)
}

// LogWebSocketConnected logs successful WebSocket connections
func (sl *SecurityLogger) LogWebSocketConnected(ip string, userID string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	log.Printf("[SECURITY] WebSocket connected for user %s from IP %s", userID, ip)
}
