package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTimeout(t *testing.T) {
	t.Parallel()

	waitForDeadline := func(c *gin.Context) { <-c.Request.Context().Done() }

	tests := []struct {
		name       string
		timeout    time.Duration
		handler    gin.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name:       "silent handler past deadline gets 504",
			timeout:    10 * time.Millisecond,
			handler:    waitForDeadline,
			wantStatus: http.StatusGatewayTimeout,
			wantBody:   `"code":"TIMEOUT"`,
		},
		{
			name:    "late handler response is kept",
			timeout: 10 * time.Millisecond,
			handler: func(c *gin.Context) {
				waitForDeadline(c)
				c.String(http.StatusServiceUnavailable, "busy")
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "busy",
		},
		{
			name:    "fast handler sees a deadline",
			timeout: 5 * time.Second,
			handler: func(c *gin.Context) {
				if _, ok := c.Request.Context().Deadline(); ok {
					c.String(http.StatusOK, "deadline")
				}
			},
			wantStatus: http.StatusOK,
			wantBody:   "deadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(Timeout(tt.timeout))
			router.GET("/api/v1/work", tt.handler)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/work", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestTimeoutWithSkipPaths(t *testing.T) {
	t.Parallel()

	deadlines := make(map[string]bool)

	router := gin.New()
	router.Use(TimeoutWithSkipPaths(time.Second, []string{"/api/v1/stream"}))
	for _, p := range []string{"/api/v1/stream", "/api/v1/work"} {
		router.GET(p, func(c *gin.Context) {
			_, deadlines[c.Request.URL.Path] = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		})
	}

	for _, p := range []string{"/api/v1/stream", "/api/v1/work"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, map[string]bool{"/api/v1/stream": false, "/api/v1/work": true}, deadlines)
}
