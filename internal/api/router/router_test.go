package router

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpmiddleware "github.com/wolfman30/hospital-booking-mcp/internal/http/middleware"
	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

func stubHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

func newTestRouter(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := &Config{
		Logger:         logging.Discard(),
		ServerName:     "hospital-booking-mcp",
		ServerVersion:  "1.2.0",
		Tools:          []string{"resolve_doctor", "search_individual"},
		SSEHandler:     stubHandler("sse"),
		MessageHandler: stubHandler("message"),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, HealthResponse{
		Status:  "ok",
		Server:  "hospital-booking-mcp",
		Version: "1.2.0",
		Tools:   []string{"resolve_doctor", "search_individual"},
	}, resp)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTransportRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, "sse", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages?sessionId=x", nil))
	assert.Equal(t, "message", rec.Body.String())
}

func TestTransportRequiresTokenWhenConfigured(t *testing.T) {
	r := newTestRouter(t, func(c *Config) { c.JWTSecret = "s3cret" })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health stays public")

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/messages", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "message", rec.Body.String())
}

func TestTransportRateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newTestRouter(t, func(c *Config) { c.RateLimiter = httpmiddleware.NewRateLimiter(ctx, 0.001, 1) })

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/messages", nil)
		req.Header.Set("X-Real-Ip", "198.51.100.4")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestSSEHandshake(t *testing.T) {
	mcpServer := server.NewMCPServer("hospital-booking-mcp", "1.2.0", server.WithToolCapabilities(true))
	sse := server.NewSSEServer(mcpServer,
		server.WithSSEEndpoint("/mcp"),
		server.WithMessageEndpoint("/messages"),
	)
	srv := httptest.NewServer(New(&Config{
		Logger:         logging.Discard(),
		SSEHandler:     sse.SSEHandler(),
		MessageHandler: sse.MessageHandler(),
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/mcp", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	scanner := bufio.NewScanner(resp.Body)
	var endpoint string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			endpoint = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	assert.Contains(t, endpoint, "/messages?sessionId=")
}
