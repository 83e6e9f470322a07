package http

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/audience-gateway/internal/platform/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testServerConfig(port int, maxBody int64) *config.ServerConfig {
	return &config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           port,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: maxBody,
	}
}

func TestNew_ConfiguresHTTPServer(t *testing.T) {
	cfg := testServerConfig(8081, 1<<20)

	srv := New(cfg, discardLogger())

	require.NotNil(t, srv.Engine())
	assert.Equal(t, "127.0.0.1:8081", srv.Addr())
	assert.Equal(t, cfg.ReadTimeout, srv.httpServer.ReadHeaderTimeout)
	assert.Equal(t, cfg.IdleTimeout, srv.httpServer.IdleTimeout)
	assert.NotNil(t, srv.httpServer.ErrorLog)
}

func TestServer_AddrFormatsIPv6(t *testing.T) {
	cfg := testServerConfig(9090, 1<<20)
	cfg.Host = "::1"

	assert.Equal(t, "[::1]:9090", New(cfg, discardLogger()).Addr())
}

func TestServer_StartServeShutdown(t *testing.T) {
	srv := New(testServerConfig(0, 1<<20), discardLogger())
	srv.Engine().GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	errCh := srv.Start()

	addr := srv.Addr()
	require.NotEqual(t, "127.0.0.1:0", addr, "bound address should replace the configured port")

	resp, err := http.Get("http://" + addr + "/ping")
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err, ok := <-errCh:
		assert.False(t, ok, "channel should close without error, got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_StartReportsBindFailure(t *testing.T) {
	first := New(testServerConfig(0, 1<<20), discardLogger())
	_ = first.Start()

	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	host, portText, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)

	port, err := strconv.Atoi(portText)
	require.NoError(t, err)

	cfg := testServerConfig(port, 1<<20)
	cfg.Host = host

	err, ok := <-New(cfg, discardLogger()).Start()
	require.True(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on")
}

func TestLimitBody(t *testing.T) {
	srv := New(testServerConfig(0, 16), discardLogger())
	srv.Engine().PUT("/members", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}

		c.String(http.StatusOK, "%d", len(body))
	})

	t.Run("under the limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/members", strings.NewReader(`{"a":1}`)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "7", w.Body.String())
	})

	t.Run("declared length over the limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/members", strings.NewReader(strings.Repeat("x", 64)))
		srv.Engine().ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "request body too large")
	})

	t.Run("streamed body over the limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/members", io.NopCloser(strings.NewReader(strings.Repeat("x", 64))))
		req.ContentLength = -1
		srv.Engine().ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
