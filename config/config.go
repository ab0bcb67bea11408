// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config controls a cameraman process. Static gameplay configuration lives
// in prefabs; this covers where to find it and how to run.
type Config struct {
	PrefabDir  string     `env:"PREFAB_DIR"  envDefault:"prefabs"`
	RecordPath string     `env:"RECORD_DB"`
	LogLevel   slog.Level `env:"LOG_LEVEL"   envDefault:"INFO"`
	LogFormat  string     `env:"LOG_FORMAT"  envDefault:"text"`
	// Tracer overrides the collision backend named in tuning.yaml.
	Tracer         string `env:"TRACER"`
	ParallelAgents bool   `env:"PARALLEL_AGENTS"`
	Workers        int    `env:"WORKERS"`
	Watch          bool   `env:"WATCH"`
}

// Prefix is prepended to every variable name.
const Prefix = "CAMERAMAN_"

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("parse env: %sWORKERS must not be negative", Prefix)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
		cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	default:
		return Config{}, fmt.Errorf("parse env: unknown log format %q", cfg.LogFormat)
	}
	return cfg, nil
}

// NewLogger builds the process logger.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
