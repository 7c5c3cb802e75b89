package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"risparmi/internal/config"
	"risparmi/internal/core"
)

func TestEngineConfigDefaults(t *testing.T) {
	cfg, err := EngineConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Periods[core.Biweekly]; !got.Equal(decimal.RequireFromString("2.167")) {
		t.Errorf("biweekly = %s, want 2.167", got)
	}
	if cfg.BreakdownTolerance != core.Cents(1) {
		t.Errorf("tolerance = %v, want 0.01", cfg.BreakdownTolerance)
	}
}

func TestEngineConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	body := "breakdown_tolerance = 0.05\n\n[periods_per_month]\nweekly = 4.345\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := EngineConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Periods[core.Weekly]; !got.Equal(decimal.RequireFromString("4.345")) {
		t.Errorf("weekly = %s, want 4.345", got)
	}
	if got := cfg.Periods[core.Monthly]; !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("monthly = %s, want untouched default", got)
	}
	if cfg.BreakdownTolerance != core.Cents(5) {
		t.Errorf("tolerance = %v, want 0.05", cfg.BreakdownTolerance)
	}
}

func TestNewEngineRejectsUnknownFrequency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := os.WriteFile(path, []byte("[periods_per_month]\nfortnightly = 2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewEngine(&config.Config{EngineConfigFile: path}); err == nil {
		t.Fatal("expected unknown frequency to be rejected")
	}
}
