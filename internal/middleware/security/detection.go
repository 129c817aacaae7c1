package security

import (
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	applog "carteira/internal/log"
)

// TrustedProxies are the networks whose X-Forwarded-For headers are honored
// when resolving the client IP.
var TrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var suspiciousAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan",
}

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64 `json:"suspiciousRequests"`
	BlockedRequests    int64 `json:"blockedRequests"`
}

// Detector flags requests that look like scans or injection attempts.
type Detector struct {
	logger  *applog.Logger
	metrics *DetectionMetrics
}

func NewDetector(logger *applog.Logger) *Detector {
	return &Detector{
		logger:  logger.WithComponent(applog.ComponentSecurity),
		metrics: &DetectionMetrics{},
	}
}

// DetectSuspiciousRequest analyzes request patterns for potential threats
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	path := strings.ToLower(r.URL.Path)
	query := r.URL.RawQuery
	if unescaped, err := url.QueryUnescape(query); err == nil {
		query = unescaped
	}
	query = strings.ToLower(query)

	for _, pattern := range suspiciousPatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			return true
		}
	}

	userAgent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, agent := range suspiciousAgents {
		if strings.Contains(userAgent, agent) {
			return true
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", http.MethodConnect:
		return true
	}

	// Overlong URLs are usually overflow probes.
	if len(r.URL.String()) > 2048 {
		return true
	}

	if xff := r.Header.Get("X-Forwarded-For"); strings.Count(xff, ",") > 5 {
		return true
	}
	return false
}

// Middleware logs suspicious requests. When block is set they are rejected
// with 400 instead of being served.
func (d *Detector) Middleware(block bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !d.DetectSuspiciousRequest(c.Request) {
			c.Next()
			return
		}

		atomic.AddInt64(&d.metrics.SuspiciousRequests, 1)
		d.logger.WarnContext(c.Request.Context(), "Suspicious request detected",
			applog.NewFields().
				WithClientIP(c.ClientIP()).
				WithHTTPRequest(c.Request.Method, c.Request.URL.Path, c.Request.URL.RawQuery, c.Request.UserAgent()).
				ToSlice()...)

		if block {
			atomic.AddInt64(&d.metrics.BlockedRequests, 1)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad request"})
			return
		}
		c.Next()
	}
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: atomic.LoadInt64(&d.metrics.SuspiciousRequests),
		BlockedRequests:    atomic.LoadInt64(&d.metrics.BlockedRequests),
	}
}
