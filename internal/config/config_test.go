package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// setValidBase sets the required keys so Load succeeds unless a test breaks
// one on purpose.
func setValidBase(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "token-abc")
	t.Setenv("DISCORD_GUILD_ID", "123456789012345678")
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-xyz")
}

func TestLoad_RejectsInvalidLogLevel(t *testing.T) {
	setValidBase(t)
	t.Setenv("LOG_LEVEL", "verbose")
	if _, err := Load(); err == nil {
		t.Fatalf("Load accepted an invalid log level")
	}
}

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	setValidBase(t)
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SYNC_INTERVAL", "5m")
	t.Setenv("SYNC_DEBOUNCE", "2s")
	t.Setenv("CACHE_TTL", "garbage")  // -> default 30s
	t.Setenv("DISCORD_RATE_RPS", "x") // -> default 10.0
	t.Setenv("OPS_CORS_ORIGINS", " https://a.com , , http://b ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty {
		t.Fatalf("logging not normalized: %+v", cfg)
	}
	if cfg.SyncInterval != 5*time.Minute || cfg.SyncDebounce != 2*time.Second {
		t.Fatalf("sync cadence wrong: %+v", cfg)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("bad duration should fall back to default, got %v", cfg.CacheTTL)
	}
	if cfg.RateRPS != 10.0 {
		t.Fatalf("bad float should fall back to default, got %v", cfg.RateRPS)
	}
	if want := []string{"https://a.com", "http://b"}; !reflect.DeepEqual(cfg.OpsCORSOrigins, want) {
		t.Fatalf("CSV parse = %v, want %v", cfg.OpsCORSOrigins, want)
	}
}

func TestLoad_RequiresDiscordToken(t *testing.T) {
	setValidBase(t)
	t.Setenv("DISCORD_TOKEN", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DISCORD_TOKEN") {
		t.Fatalf("err = %v, want DISCORD_TOKEN error", err)
	}
}

func TestLoad_RequiresSpreadsheet(t *testing.T) {
	setValidBase(t)
	t.Setenv("SHEETS_SPREADSHEET_ID", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SHEETS_SPREADSHEET_ID") {
		t.Fatalf("err = %v, want SHEETS_SPREADSHEET_ID error", err)
	}
}

func TestLoad_RejectsSampleRatioOutOfRange(t *testing.T) {
	setValidBase(t)
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected sample ratio validation error")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setValidBase(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncInterval != 10*time.Minute {
		t.Fatalf("SyncInterval default = %v", cfg.SyncInterval)
	}
	if cfg.SyncDebounce != 1500*time.Millisecond {
		t.Fatalf("SyncDebounce default = %v", cfg.SyncDebounce)
	}
	if cfg.SettleDelay != 750*time.Millisecond {
		t.Fatalf("SettleDelay default = %v", cfg.SettleDelay)
	}
	if cfg.OpsPort != "8080" || cfg.OTEL.ServiceName != "crewdesk" {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
}
