package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/hospital-booking-mcp/internal/http/middleware"
	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger        *logging.Logger
	ServerName    string
	ServerVersion string
	Tools         []string

	// SSE transport: the event stream and the endpoint clients post
	// JSON-RPC messages to.
	SSEHandler     http.Handler
	MessageHandler http.Handler
	SSEPath        string
	MessagePath    string

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	JWTSecret          string
	RateLimiter        *httpmiddleware.RateLimiter
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  string   `json:"status"`
	Server  string   `json:"server"`
	Version string   `json:"version"`
	Tools   []string `json:"tools"`
}

// New creates the chi router serving health, metrics and the MCP transport.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// MCP transport. The SSE stream is long-lived, so it gets no timeout
	// or compression middleware.
	r.Group(func(mcp chi.Router) {
		mcp.Use(httpmiddleware.BearerJWT(cfg.JWTSecret))
		mcp.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		if cfg.SSEHandler != nil {
			mcp.Handle(pathOr(cfg.SSEPath, "/mcp"), cfg.SSEHandler)
		}
		if cfg.MessageHandler != nil {
			mcp.Handle(pathOr(cfg.MessagePath, "/messages"), cfg.MessageHandler)
		}
	})

	return r
}

func healthHandler(cfg *Config) http.HandlerFunc {
	tools := cfg.Tools
	if tools == nil {
		tools = []string{}
	}
	body := HealthResponse{
		Status:  "ok",
		Server:  cfg.ServerName,
		Version: cfg.ServerVersion,
		Tools:   tools,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil && cfg.Logger != nil {
			cfg.Logger.Warn("encode health response", "error", err)
		}
	}
}

func pathOr(path, def string) string {
	if path == "" {
		return def
	}
	return path
}
