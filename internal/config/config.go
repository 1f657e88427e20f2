package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// MCP transports accepted in MCP_TRANSPORT.
const (
	TransportSSE   = "sse"
	TransportStdio = "stdio"
)

// Config holds application configuration
type Config struct {
	Port          string
	Transport     string
	Env           string
	PublicBaseURL string
	LogLevel      string
	ServerName    string
	ServerVersion string

	// Hospital directory API
	HospitalAPIBaseURL string
	HospitalAPITimeout time.Duration
	DefaultLang        string

	// Clinic discovery. The integer fallback list is a degraded mode for an
	// upstream without a "clinics for doctor" endpoint and can be switched off.
	ClinicProbeEnabled          bool
	ClinicFallbackIDs           []string
	ClinicPrimaryProbeTimeout   time.Duration
	ClinicSpecialtyProbeTimeout time.Duration
	ClinicFallbackProbeTimeout  time.Duration
	DaysWindow                  int

	// Availability cache
	SlotCacheTTL  time.Duration
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Name transliteration table: local path or s3://bucket/key. Empty uses
	// the embedded table.
	NameTableSource string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// OTP
	OTPVerifyMode string
	OTPSource     string

	// WhatsApp Cloud API
	WhatsAppAPIBaseURL    string
	WhatsAppPhoneNumberID string
	WhatsAppAccessToken   string

	// Transport
	CORSAllowedOrigins []string
	MCPJWTSecret       string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "3001"),
		Transport:     strings.ToLower(strings.TrimSpace(getEnv("MCP_TRANSPORT", TransportSSE))),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		ServerName:    getEnv("MCP_SERVER_NAME", "AlSalamHospitalMCP"),
		ServerVersion: getEnv("MCP_SERVER_VERSION", "1.0.0"),

		HospitalAPIBaseURL: getEnv("HOSPITAL_API_BASE_URL", "https://salemuatapi.alsalamhosp.com:446"),
		HospitalAPITimeout: getEnvAsDuration("HOSPITAL_API_TIMEOUT", 50*time.Second),
		DefaultLang:        strings.ToUpper(getEnv("HOSPITAL_DEFAULT_LANG", "A")),

		ClinicProbeEnabled:          getEnvAsBool("CLINIC_PROBE_ENABLED", true),
		ClinicFallbackIDs:           getEnvAsList("CLINIC_FALLBACK_IDS", []string{"1", "2", "3"}),
		ClinicPrimaryProbeTimeout:   getEnvAsDuration("CLINIC_PRIMARY_PROBE_TIMEOUT", 12*time.Second),
		ClinicSpecialtyProbeTimeout: getEnvAsDuration("CLINIC_SPECIALTY_PROBE_TIMEOUT", 8*time.Second),
		ClinicFallbackProbeTimeout:  getEnvAsDuration("CLINIC_FALLBACK_PROBE_TIMEOUT", 7*time.Second),
		DaysWindow:                  getEnvAsInt("DAYS_WINDOW", 14),

		SlotCacheTTL:  getEnvAsDuration("SLOT_CACHE_TTL", 2*time.Minute),
		CacheBackend:  strings.ToLower(strings.TrimSpace(getEnv("CACHE_BACKEND", "memory"))),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		NameTableSource: getEnv("NAME_TABLE_SOURCE", ""),

		AWSRegion:           getEnv("AWS_REGION", "me-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		OTPVerifyMode: strings.ToLower(strings.TrimSpace(getEnv("OTP_VERIFY_MODE", "server"))),
		OTPSource:     getEnv("OTP_SOURCE", "WhatsApp"),

		WhatsAppAPIBaseURL:    getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v21.0"),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MCPJWTSecret:       getEnv("MCP_JWT_SECRET", ""),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 40),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
