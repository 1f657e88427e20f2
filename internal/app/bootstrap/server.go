package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/hospital-booking-mcp/internal/api/router"
	"github.com/wolfman30/hospital-booking-mcp/internal/booking"
	appconfig "github.com/wolfman30/hospital-booking-mcp/internal/config"
	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	httpmiddleware "github.com/wolfman30/hospital-booking-mcp/internal/http/middleware"
	"github.com/wolfman30/hospital-booking-mcp/internal/names"
	"github.com/wolfman30/hospital-booking-mcp/internal/observability/metrics"
	"github.com/wolfman30/hospital-booking-mcp/internal/resolver"
	"github.com/wolfman30/hospital-booking-mcp/internal/slotcache"
	"github.com/wolfman30/hospital-booking-mcp/internal/tools"
	"github.com/wolfman30/hospital-booking-mcp/internal/whatsapp"
	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

const (
	SSEPath     = "/mcp"
	MessagePath = "/messages"
)

// Options carries the collaborators main builds outside the config.
type Options struct {
	// Registry receives the tool metrics; a fresh registry when nil.
	Registry *prometheus.Registry
	// Names overrides the transliteration table; loaded from config when nil.
	Names *names.Table
	// Cache overrides the availability cache; built from config when nil.
	Cache slotcache.Cache
	// HTTPClient is shared by the hospital and WhatsApp clients.
	HTTPClient *http.Client
}

// Server is the assembled MCP server.
type Server struct {
	MCP     *server.MCPServer
	SSE     *server.SSEServer
	Toolset *tools.Toolset
	Metrics *metrics.ToolMetrics
	Handler http.Handler

	closers []func()
}

// Close releases the cache backend.
func (s *Server) Close() {
	for _, c := range s.closers {
		c()
	}
}

// Build wires config into a ready-to-serve Server. ctx bounds background
// work (cache sweeping, rate limiter eviction).
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	toolMetrics := metrics.NewToolMetrics(reg)
	lang := directory.ParseLang(cfg.DefaultLang, directory.LangArabic)

	dir, err := directory.NewClient(directory.Config{
		BaseURL:    cfg.HospitalAPIBaseURL,
		Timeout:    cfg.HospitalAPITimeout,
		OTPSource:  cfg.OTPSource,
		HTTPClient: opts.HTTPClient,
		Logger:     logger,
		Observer:   toolMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: hospital client: %w", err)
	}

	out := &Server{Metrics: toolMetrics}
	cache := opts.Cache
	if cache == nil {
		var closeCache func()
		cache, closeCache = BuildSlotCache(ctx, cfg, logger)
		out.closers = append(out.closers, closeCache)
	}
	table := opts.Names
	if table == nil {
		table = LoadNameTable(ctx, cfg, nil, logger)
	}

	rc := resolverConfig(cfg, lang)
	res := resolver.New(probeClient(dir, rc), rc,
		resolver.WithNames(table),
		resolver.WithCache(cache),
		resolver.WithLogger(logger),
		resolver.WithObserver(toolMetrics),
	)
	flow := booking.NewFlow(dir,
		booking.WithVerifyMode(booking.ParseVerifyMode(cfg.OTPVerifyMode)),
		booking.WithDefaultLang(lang),
		booking.WithLogger(logger),
	)
	wa := whatsapp.NewClient(whatsapp.Config{
		GraphAPIBase:  cfg.WhatsAppAPIBaseURL,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		AccessToken:   cfg.WhatsAppAccessToken,
		HTTPClient:    opts.HTTPClient,
		Logger:        logger,
	})
	if !wa.Configured() {
		logger.Warn("whatsapp credentials missing; messaging tools will report not_configured")
	}

	ts, err := tools.New(tools.Deps{
		Directory:   dir,
		Resolver:    res,
		Booking:     flow,
		WhatsApp:    wa,
		Observer:    toolMetrics,
		Logger:      logger,
		DefaultLang: lang,
		WindowDays:  cfg.DaysWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: toolset: %w", err)
	}

	mcpServer := server.NewMCPServer(cfg.ServerName, cfg.ServerVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	ts.Register(mcpServer)

	sseOpts := []server.SSEOption{
		server.WithSSEEndpoint(SSEPath),
		server.WithMessageEndpoint(MessagePath),
	}
	if base := strings.TrimRight(cfg.PublicBaseURL, "/"); base != "" {
		sseOpts = append(sseOpts, server.WithBaseURL(base))
	}
	sse := server.NewSSEServer(mcpServer, sseOpts...)

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	out.MCP = mcpServer
	out.SSE = sse
	out.Toolset = ts
	out.Handler = router.New(&router.Config{
		Logger:             logger,
		ServerName:         cfg.ServerName,
		ServerVersion:      cfg.ServerVersion,
		Tools:              ts.Names(),
		SSEHandler:         sse.SSEHandler(),
		MessageHandler:     sse.MessageHandler(),
		SSEPath:            SSEPath,
		MessagePath:        MessagePath,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		JWTSecret:          cfg.MCPJWTSecret,
		RateLimiter:        limiter,
	})

	logger.Info("mcp server assembled",
		"name", cfg.ServerName,
		"version", cfg.ServerVersion,
		"tools", len(ts.Names()),
		"otp_verify_mode", string(flow.Mode()),
		"clinic_probe_enabled", cfg.ClinicProbeEnabled,
	)
	return out, nil
}

// probeClient widens the client deadline so the resolver's per-clinic
// timeouts are the ones that fire.
func probeClient(dir *directory.Client, rc resolver.Config) *directory.Client {
	longest := max(rc.PrimaryTimeout, rc.SpecialtyTimeout, rc.FallbackTimeout)
	if longest <= dir.Timeout() {
		return dir
	}
	return dir.WithTimeout(longest)
}

func resolverConfig(cfg *appconfig.Config, lang directory.Lang) resolver.Config {
	rc := resolver.DefaultConfig()
	rc.DefaultLang = lang
	rc.FallbackEnabled = cfg.ClinicProbeEnabled
	if len(cfg.ClinicFallbackIDs) > 0 {
		rc.FallbackClinicIDs = cfg.ClinicFallbackIDs
	}
	if cfg.ClinicPrimaryProbeTimeout > 0 {
		rc.PrimaryTimeout = cfg.ClinicPrimaryProbeTimeout
	}
	if cfg.ClinicSpecialtyProbeTimeout > 0 {
		rc.SpecialtyTimeout = cfg.ClinicSpecialtyProbeTimeout
	}
	if cfg.ClinicFallbackProbeTimeout > 0 {
		rc.FallbackTimeout = cfg.ClinicFallbackProbeTimeout
	}
	if cfg.DaysWindow > 0 {
		rc.WindowDays = cfg.DaysWindow
	}
	return rc
}
