// Package config loads gamemaster settings from defaults, an optional YAML
// file and GAMEMASTER_* environment variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment variable.
const EnvPrefix = "GAMEMASTER_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Log struct {
	Level  string `yaml:"level" json:"level" env:"LEVEL"`
	Format string `yaml:"format" json:"format" env:"FORMAT"`
}

type Store struct {
	Backend string `yaml:"backend" json:"backend" env:"BACKEND"`
	// Dir is the file backend's root directory.
	Dir         string        `yaml:"dir" json:"dir" env:"DIR"`
	RedisURL    string        `yaml:"redis_url" json:"redis_url" env:"REDIS_URL"`
	RedisPrefix string        `yaml:"redis_prefix" json:"redis_prefix" env:"REDIS_PREFIX"`
	TTL         time.Duration `yaml:"ttl" json:"ttl" env:"TTL"`
	LockTTL     time.Duration `yaml:"lock_ttl" json:"lock_ttl" env:"LOCK_TTL"`
}

type HTTP struct {
	Addr string `yaml:"addr" json:"addr" env:"ADDR"`
}

type Tasks struct {
	SoftLimit time.Duration `yaml:"soft_limit" json:"soft_limit" env:"SOFT_LIMIT"`
	HardLimit time.Duration `yaml:"hard_limit" json:"hard_limit" env:"HARD_LIMIT"`
}

type Dice struct {
	// Seed makes every roll reproducible when non-zero.
	Seed uint64 `yaml:"seed" json:"seed" env:"SEED"`
}

type Safety struct {
	Enabled   bool   `yaml:"enabled" json:"enabled" env:"ENABLED"`
	RulesFile string `yaml:"rules_file" json:"rules_file" env:"RULES_FILE"`
	Rating    string `yaml:"campaign_rating" json:"campaign_rating" env:"CAMPAIGN_RATING"`
	Theme     string `yaml:"theme" json:"theme" env:"THEME"`
}

type Gemini struct {
	APIKey string `yaml:"api_key" json:"-" env:"API_KEY"`
	Model  string `yaml:"model" json:"model" env:"MODEL"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled" json:"enabled" env:"ENABLED"`
	Endpoint    string `yaml:"endpoint" json:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" json:"service_name" env:"SERVICE_NAME"`
}

// Config is the full application configuration.
type Config struct {
	Log       Log       `yaml:"log" json:"log" envPrefix:"LOG_"`
	Store     Store     `yaml:"store" json:"store" envPrefix:"STORE_"`
	HTTP      HTTP      `yaml:"http" json:"http" envPrefix:"HTTP_"`
	Tasks     Tasks     `yaml:"tasks" json:"tasks" envPrefix:"TASKS_"`
	Dice      Dice      `yaml:"dice" json:"dice" envPrefix:"DICE_"`
	Safety    Safety    `yaml:"safety" json:"safety" envPrefix:"SAFETY_"`
	Gemini    Gemini    `yaml:"gemini" json:"gemini" envPrefix:"GEMINI_"`
	Telemetry Telemetry `yaml:"telemetry" json:"telemetry" envPrefix:"OTEL_"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:   Log{Level: "info", Format: "text"},
		Store: Store{Backend: BackendMemory, Dir: ".gamemaster/sessions", RedisPrefix: "gamemaster:", LockTTL: 30 * time.Second},
		HTTP:  HTTP{Addr: ":8080"},
		Tasks: Tasks{SoftLimit: 25 * time.Minute, HardLimit: 30 * time.Minute},
		Safety: Safety{
			Enabled: true,
			Rating:  "general",
			Theme:   "fantasy",
		},
		Gemini:    Gemini{Model: "gemini-1.5-flash"},
		Telemetry: Telemetry{ServiceName: "gamemaster"},
	}
}

// Load reads path (YAML, or JSON by extension) over the defaults and then
// applies environment overrides. An empty path skips the file; a missing
// file named explicitly is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			err = json.Unmarshal(data, &cfg)
		} else {
			err = yaml.Unmarshal(data, &cfg)
		}
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if !slices.Contains([]string{BackendMemory, BackendFile, BackendRedis}, c.Store.Backend) {
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if c.Store.Backend == BackendRedis && c.Store.RedisURL == "" {
		return fmt.Errorf("%w: redis backend requires store.redis_url", ErrInvalidConfig)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Tasks.SoftLimit <= 0 || c.Tasks.HardLimit <= 0 {
		return fmt.Errorf("%w: task limits must be positive", ErrInvalidConfig)
	}
	if c.Tasks.SoftLimit > c.Tasks.HardLimit {
		return fmt.Errorf("%w: soft limit %s exceeds hard limit %s", ErrInvalidConfig, c.Tasks.SoftLimit, c.Tasks.HardLimit)
	}
	return nil
}
