package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port" env:"PORT"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	} `yaml:"server" envPrefix:"SERVER_"`
	Redis struct {
		Addr     string `yaml:"addr" env:"ADDR"`
		Password string `yaml:"password" env:"PASSWORD"`
		DB       int    `yaml:"db" env:"DB"`
		TTL      string `yaml:"ttl" env:"TTL"`
	} `yaml:"redis" envPrefix:"REDIS_"`
	Postgres struct {
		URL string `yaml:"url" env:"URL"`
	} `yaml:"postgres" envPrefix:"POSTGRES_"`
	Scoring struct {
		BaseURL  string `yaml:"base_url" env:"BASE_URL"`
		Timeout  string `yaml:"timeout" env:"TIMEOUT"`
		MaxTries uint   `yaml:"max_tries" env:"MAX_TRIES"`
		CacheTTL string `yaml:"cache_ttl" env:"CACHE_TTL"`
	} `yaml:"scoring" envPrefix:"SCORING_"`
	Match struct {
		TimeLimit     int    `yaml:"time_limit" env:"TIME_LIMIT"`
		Players       int    `yaml:"players" env:"PLAYERS"`
		QuestionCount int    `yaml:"question_count" env:"QUESTION_COUNT"`
		PlayerName    string `yaml:"player_name" env:"PLAYER_NAME"`
	} `yaml:"match" envPrefix:"MATCH_"`
	Opponent struct {
		// Mode is "simulated" (offline bot) or "board" (other engines via the progress board).
		Mode string `yaml:"mode" env:"MODE"`
	} `yaml:"opponent" envPrefix:"OPPONENT_"`
	Log struct {
		Level  string `yaml:"level" env:"LEVEL"`
		Pretty bool   `yaml:"pretty" env:"PRETTY"`
	} `yaml:"log" envPrefix:"LOG_"`
}

const envPrefix = "QUIZDUEL_"

// Load reads YAML config from path, then applies QUIZDUEL_* environment overrides.
// A missing file is not an error; defaults and environment still apply.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Redis.TTL = "10m"
	cfg.Scoring.Timeout = "10s"
	cfg.Scoring.MaxTries = 3
	cfg.Scoring.CacheTTL = "1h"
	cfg.Match.TimeLimit = 30
	cfg.Match.Players = 2
	cfg.Match.QuestionCount = 5
	cfg.Opponent.Mode = "simulated"
	cfg.Log.Level = "info"
	return cfg
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
