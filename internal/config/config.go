// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes Discord and Sheets
// credentials, sync cadence, cache TTLs, the ops server, and observability
// settings.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Discord
	DiscordToken   string // bot token
	DiscordAppID   string // application ID, for command registration
	DiscordGuildID string // the single guild the bot serves
	RateRPS        float64
	RateBurst      int

	// Sheets
	SpreadsheetID   string
	CredentialsFile string // path to a Google service-account JSON key

	// Local state + roles
	StateDBPath string // SQLite path for board message bookkeeping
	RolesFile   string // YAML role-to-tier map

	// Sync cadence
	SyncInterval time.Duration // periodic full sync
	SyncDebounce time.Duration // mutation coalescing window
	SettleDelay  time.Duration // pause before post-create board reads

	// Caching
	CacheTTL        time.Duration
	InvoiceCacheTTL time.Duration

	// Ops server
	OpsPort        string // just the number; empty disables the server
	OpsCORSOrigins []string

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool

	// Observability
	OTEL OTELConfig
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		DiscordToken:   getenv("DISCORD_TOKEN", ""),
		DiscordAppID:   getenv("DISCORD_APP_ID", ""),
		DiscordGuildID: getenv("DISCORD_GUILD_ID", ""),
		RateRPS:        getfloat("DISCORD_RATE_RPS", 10.0),
		RateBurst:      getint("DISCORD_RATE_BURST", 20),

		SpreadsheetID:   getenv("SHEETS_SPREADSHEET_ID", ""),
		CredentialsFile: getenv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),

		StateDBPath: getenv("STATE_DB_PATH", "crewdesk.db"),
		RolesFile:   getenv("ROLES_FILE", "roles.yaml"),

		SyncInterval: getdur("SYNC_INTERVAL", 10*time.Minute),
		SyncDebounce: getdur("SYNC_DEBOUNCE", 1500*time.Millisecond),
		SettleDelay:  getdur("SETTLE_DELAY", 750*time.Millisecond),

		CacheTTL:        getdur("CACHE_TTL", 30*time.Second),
		InvoiceCacheTTL: getdur("INVOICE_CACHE_TTL", 5*time.Minute),

		OpsPort:        getenv("OPS_PORT", "8080"),
		OpsCORSOrigins: splitCSV(getenv("OPS_CORS_ORIGINS", "")),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "crewdesk"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.DiscordToken) == "" {
		return cfg, errors.New("DISCORD_TOKEN must not be empty")
	}
	if strings.TrimSpace(cfg.DiscordGuildID) == "" {
		return cfg, errors.New("DISCORD_GUILD_ID must not be empty")
	}
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return cfg, errors.New("SHEETS_SPREADSHEET_ID must not be empty")
	}
	if strings.TrimSpace(cfg.StateDBPath) == "" {
		return cfg, errors.New("STATE_DB_PATH must not be empty")
	}
	if cfg.SyncInterval <= 0 || cfg.SyncDebounce < 0 || cfg.SettleDelay < 0 {
		return cfg, errors.New("sync durations must not be negative (and SYNC_INTERVAL must be positive)")
	}
	if cfg.CacheTTL <= 0 || cfg.InvoiceCacheTTL <= 0 {
		return cfg, errors.New("cache TTLs must be positive durations")
	}
	if cfg.RateRPS <= 0 {
		return cfg, errors.New("DISCORD_RATE_RPS must be > 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("DISCORD_RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
