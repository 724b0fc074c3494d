package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
redis:
  addr: "localhost:6379"
  ttl: 5m
postgres:
  url: "postgres://localhost/assess"
catalog:
  ttl: 2m
rewards:
  ttl: 3m
  default_coins_per_stage: 5
  default_total_coins: 20
  default_total_xp: 40
timing:
  reveal_delay: 1500ms
  final_settle_delay: 2500ms
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Rewards.DefaultTotalCoins != 20 || cfg.Rewards.DefaultTotalXP != 40 {
		t.Fatalf("unexpected reward defaults: %+v", cfg.Rewards)
	}
	if got := Duration(cfg.Timing.RevealDelay, 0); got != 1500*time.Millisecond {
		t.Fatalf("expected 1500ms reveal delay, got %v", got)
	}
	if got := Duration(cfg.Timing.FinalSettleDelay, 0); got != 2500*time.Millisecond {
		t.Fatalf("expected 2500ms settle delay, got %v", got)
	}
}

func TestDurationFallback(t *testing.T) {
	if got := Duration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := Duration("not-a-duration", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for junk, got %v", got)
	}
	if got := Duration("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected parsed value, got %v", got)
	}
}
