package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: "9090"
redis:
  addr: "localhost:6379"
match:
  time_limit: 45
  player_name: "Alice"
opponent:
  mode: board
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUIZDUEL_MATCH_TIME_LIMIT", "20")
	t.Setenv("QUIZDUEL_SCORING_BASE_URL", "http://scoring:8000")
	t.Setenv("QUIZDUEL_SERVER_ALLOWED_ORIGINS", "http://localhost:3000,https://quiz.example.org")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" || cfg.Opponent.Mode != "board" {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
	if cfg.Match.TimeLimit != 20 {
		t.Fatalf("expected env override 20, got %d", cfg.Match.TimeLimit)
	}
	if cfg.Scoring.BaseURL != "http://scoring:8000" {
		t.Fatalf("expected scoring url from env, got %q", cfg.Scoring.BaseURL)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://quiz.example.org" {
		t.Fatalf("expected origins from env, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Match.QuestionCount != 5 || cfg.Match.PlayerName != "Alice" {
		t.Fatalf("expected defaults kept, got %+v", cfg.Match)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Match.TimeLimit != 30 || cfg.Opponent.Mode != "simulated" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestTTLDuration(t *testing.T) {
	if d := TTLDuration("", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback, got %v", d)
	}
	if d := TTLDuration("garbage", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback on parse error, got %v", d)
	}
	if d := TTLDuration("90s", time.Minute); d != 90*time.Second {
		t.Fatalf("expected 90s, got %v", d)
	}
}
