package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	applog "carteira/internal/log"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector(applog.Discard())

	tests := []struct {
		name    string
		method  string
		target  string
		agent   string
		xff     string
		flagged bool
	}{
		{"plain api call", http.MethodGet, "/api/expenses?from=2024-01-01", "Mozilla/5.0", "", false},
		{"path traversal", http.MethodGet, "/api/../../etc/passwd", "", "", true},
		{"encoded query injection", http.MethodGet, "/api/expenses?category=x%27%20union%20select%201", "", "", true},
		{"scanner agent", http.MethodGet, "/api/me", "sqlmap/1.7", "", true},
		{"trace method", "TRACE", "/api/me", "", "", true},
		{"long url", http.MethodGet, "/api/me?q=" + strings.Repeat("a", 2100), "", "", true},
		{"proxy chain", http.MethodGet, "/api/me", "", "1.1.1.1,2.2.2.2,3.3.3.3,4.4.4.4,5.5.5.5,6.6.6.6,7.7.7.7", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Header.Set("User-Agent", tt.agent)
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.flagged, d.DetectSuspiciousRequest(req))
		})
	}
}

func TestDetectorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, block := range []bool{false, true} {
		d := NewDetector(applog.Discard())
		r := gin.New()
		r.Use(d.Middleware(block))
		r.GET("/*path", func(c *gin.Context) { c.Status(http.StatusOK) })

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/.git/config", nil))

		m := d.GetMetrics()
		assert.EqualValues(t, 1, m.SuspiciousRequests)
		if block {
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.EqualValues(t, 1, m.BlockedRequests)
		} else {
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.EqualValues(t, 0, m.BlockedRequests)
		}
	}
}

func TestHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Headers(DefaultHeadersConfig()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"), "HSTS only over TLS")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}
