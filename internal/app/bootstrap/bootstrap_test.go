package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/hospital-booking-mcp/internal/api/router"
	appconfig "github.com/wolfman30/hospital-booking-mcp/internal/config"
	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/internal/names"
	"github.com/wolfman30/hospital-booking-mcp/internal/slotcache"
	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

func testConfig(apiURL string) *appconfig.Config {
	return &appconfig.Config{
		ServerName:         "AlSalamHospitalMCP",
		ServerVersion:      "9.9.9",
		HospitalAPIBaseURL: apiURL,
		HospitalAPITimeout: time.Second,
		DefaultLang:        "A",
		ClinicProbeEnabled: true,
		ClinicFallbackIDs:  []string{"4", "5"},
		DaysWindow:         7,
		SlotCacheTTL:       time.Minute,
		CacheBackend:       CacheMemory,
		OTPVerifyMode:      "server",
		WhatsAppAPIBaseURL: "https://graph.facebook.com/v21.0",
	}
}

func TestBuildServesHealthAndMetrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := Build(ctx, testConfig("http://127.0.0.1:1"), logging.Discard(), Options{})
	require.NoError(t, err)
	defer srv.Close()

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health router.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, "AlSalamHospitalMCP", health.Server)
	assert.Equal(t, "9.9.9", health.Version)
	assert.Contains(t, health.Tools, "resolve_doctor")
	assert.Contains(t, health.Tools, "booking_flow")
	assert.Equal(t, srv.Toolset.Names(), health.Tools)

	srv.Metrics.ObserveToolCall("resolve_doctor", "ok", 0.1)
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "hospital_tools_calls_total")
}

func TestBuildRejectsBadConfig(t *testing.T) {
	_, err := Build(context.Background(), nil, logging.Discard(), Options{})
	assert.Error(t, err)

	_, err = Build(context.Background(), testConfig(""), logging.Discard(), Options{Cache: slotcache.Nop{}, Names: names.Default()})
	assert.Error(t, err, "hospital base url is required")
}

func TestResolverConfigFromEnv(t *testing.T) {
	cfg := testConfig("http://x")
	cfg.ClinicPrimaryProbeTimeout = 3 * time.Second

	rc := resolverConfig(cfg, directory.LangEnglish)
	assert.Equal(t, directory.LangEnglish, rc.DefaultLang)
	assert.True(t, rc.FallbackEnabled)
	assert.Equal(t, []string{"4", "5"}, rc.FallbackClinicIDs)
	assert.Equal(t, 3*time.Second, rc.PrimaryTimeout)
	assert.Equal(t, 8*time.Second, rc.SpecialtyTimeout, "unset timeouts keep defaults")
	assert.Equal(t, 7, rc.WindowDays)
}

func TestProbeClientWidensDeadline(t *testing.T) {
	dir, err := directory.NewClient(directory.Config{BaseURL: "http://x", Timeout: time.Second})
	require.NoError(t, err)

	rc := resolverConfig(testConfig("http://x"), directory.LangArabic)
	widened := probeClient(dir, rc)
	assert.Equal(t, 12*time.Second, widened.Timeout())
	assert.Equal(t, time.Second, dir.Timeout(), "the shared client keeps its deadline")

	dir, err = directory.NewClient(directory.Config{BaseURL: "http://x", Timeout: time.Minute})
	require.NoError(t, err)
	assert.Same(t, dir, probeClient(dir, rc))
}

func TestBuildSlotCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := logging.Discard()

	cfg := testConfig("http://x")
	cache, closeFn := BuildSlotCache(ctx, cfg, logger)
	defer closeFn()
	assert.IsType(t, &slotcache.Memory{}, cache)

	cfg.CacheBackend = CacheNone
	cache, _ = BuildSlotCache(ctx, cfg, logger)
	assert.IsType(t, slotcache.Nop{}, cache)

	mr := miniredis.RunT(t)
	cfg.CacheBackend = CacheRedis
	cfg.RedisAddr = mr.Addr()
	cache, closeRedis := BuildSlotCache(ctx, cfg, logger)
	defer closeRedis()
	assert.IsType(t, &slotcache.Redis{}, cache)

	cfg.RedisAddr = "127.0.0.1:1"
	cache, _ = BuildSlotCache(ctx, cfg, logger)
	assert.IsType(t, &slotcache.Memory{}, cache, "unreachable redis degrades to memory")
}

func TestBuildRedisClientDisabled(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logging.Discard(), true))
	assert.Nil(t, BuildRedisClient(context.Background(), nil, logging.Discard(), false))
}

func TestLoadNameTable(t *testing.T) {
	logger := logging.Discard()
	cfg := &appconfig.Config{}
	assert.Equal(t, names.Default().Len(), LoadNameTable(context.Background(), cfg, nil, logger).Len())

	cfg.NameTableSource = filepath.Join(t.TempDir(), "missing.json")
	assert.Equal(t, names.Default().Len(), LoadNameTable(context.Background(), cfg, nil, logger).Len(), "load failures fall back")

	cfg.NameTableSource = "s3://bucket/names.json"
	assert.Equal(t, names.Default().Len(), LoadNameTable(context.Background(), cfg, nil, logger).Len(), "s3 source without client falls back")

	path := filepath.Join(t.TempDir(), "names.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entries":[{"arabic":"زياد","latin":["Ziyad","Ziad"]}]}`), 0o600))
	cfg.NameTableSource = path
	table := LoadNameTable(context.Background(), cfg, nil, logger)
	assert.Contains(t, table.Alternates("Ziad"), "زياد")
}
