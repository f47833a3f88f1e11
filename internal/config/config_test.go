package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":5000" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":5000")
	}
	if cfg.GeneratorMode != "auto" {
		t.Fatalf("GeneratorMode = %q, want %q", cfg.GeneratorMode, "auto")
	}
	if cfg.SessionInactivityTimeout != 30*time.Minute {
		t.Fatalf("SessionInactivityTimeout = %v, want %v", cfg.SessionInactivityTimeout, 30*time.Minute)
	}
	if cfg.HistoryWindow != 8 {
		t.Fatalf("HistoryWindow = %d, want 8", cfg.HistoryWindow)
	}
	if cfg.Debug {
		t.Fatalf("Debug should default to false")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("GENERATOR_MODE", "mock")
	t.Setenv("GENERATOR_TIMEOUT", "3s")
	t.Setenv("APP_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.GeneratorMode != "mock" {
		t.Fatalf("GeneratorMode = %q, want %q", cfg.GeneratorMode, "mock")
	}
	if cfg.GeneratorTimeout != 3*time.Second {
		t.Fatalf("GeneratorTimeout = %v, want %v", cfg.GeneratorTimeout, 3*time.Second)
	}
	if !cfg.Debug {
		t.Fatalf("Debug = false, want true")
	}
}

func TestLoadRejectsInvalidGeneratorMode(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GENERATOR_MODE", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject unknown generator mode")
	}
}

func TestLoadRejectsTinyInactivityTimeout(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "1s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject sub-5s inactivity timeout")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_JANITOR_INTERVAL",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOWED_ORIGIN",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_DEBUG",
		"APP_HISTORY_WINDOW",
		"GENERATOR_MODE",
		"GENERATOR_TIMEOUT",
		"GENERATOR_HTTP_URL",
		"OPENAI_API_KEY",
		"OPENAI_MODEL",
		"OPENAI_BASE_URL",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
