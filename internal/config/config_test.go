package config

import (
	"testing"
	"time"
)

func TestLoadFallsBackToDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port = %d, want default 8080", cfg.Port)
	}
	if cfg.Mode != "release" {
		t.Fatalf("mode = %q, want release", cfg.Mode)
	}
	if cfg.PingPeriod != 54*time.Second {
		t.Fatalf("ping period = %s, want 54s", cfg.PingPeriod)
	}
	if cfg.JoinLimit != 10 || cfg.JoinWindow != 10*time.Second {
		t.Fatalf("join limits = %d/%s, want 10/10s", cfg.JoinLimit, cfg.JoinWindow)
	}
	if cfg.ReadLimit != 32768 {
		t.Fatalf("read limit = %d, want 32768", cfg.ReadLimit)
	}
}
