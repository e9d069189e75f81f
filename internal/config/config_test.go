package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultHasStorefrontPlans(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Plans) != 5 {
		t.Fatalf("expected 5 plans, got %d", len(cfg.Plans))
	}
	if cfg.Plans[0].Coins != 100 || cfg.Plans[0].PriceUSD != 5 {
		t.Errorf("unexpected first plan: %+v", cfg.Plans[0])
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twin.yaml")
	content := `
port: 9999
session_secret: test-secret
session_ttl: 1h
plans:
  - coins: 50
    price_usd: 2.5
    label: starter
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Port)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.SessionTTL)
	}
	if len(cfg.Plans) != 1 || cfg.Plans[0].Coins != 50 {
		t.Errorf("expected overridden plans, got %+v", cfg.Plans)
	}
}

func TestLoadRejectsInvalidPlans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twin.yaml")
	content := `
session_secret: s
session_ttl: 1h
plans:
  - coins: 0
    price_usd: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for zero-coin plan")
	}
}

func TestLoadMissingPathUsesDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != Default().Port {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
}

func TestFindPlan(t *testing.T) {
	cfg := Default()
	if _, ok := cfg.FindPlan(100, 5); !ok {
		t.Error("expected to find 100/5 plan")
	}
	if _, ok := cfg.FindPlan(100, 1); ok {
		t.Error("expected mismatched price to miss")
	}
	if _, ok := cfg.FindPlan(42, 5); ok {
		t.Error("expected unknown bundle to miss")
	}
}
