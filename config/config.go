// Package config loads and validates the scheduler configuration from YAML
// or JSON files with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/escaladev/escala/core/metrics"
	"github.com/escaladev/escala/core/solver"
)

type Config struct {
	History   HistoryConfig    `json:"history"`
	Roster    []WorkerConfig   `json:"roster"`
	Holidays  []string         `json:"holidays"`
	Pinned    []SlotConfig     `json:"pinned"`
	Blocked   []SlotConfig     `json:"blocked"`
	Overrides []OverrideConfig `json:"overrides"`
	Solver    SolverConfig     `json:"solver"`
	Metrics   metrics.Config   `json:"metrics"`
}

// HistoryConfig locates the persisted schedule history.
type HistoryConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *HistoryConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "escala.db"
	}
}

// SolverConfig bounds the search effort per run.
type SolverConfig struct {
	MaxNodes       int64 `json:"max_nodes"`
	TimeoutSeconds int   `json:"timeout_seconds"`
}

// Budget converts the configured limits into a solver budget. Zero values
// keep the solver defaults.
func (c SolverConfig) Budget() solver.Config {
	return solver.Config{
		MaxNodes: c.MaxNodes,
		Timeout:  time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("ESCALA_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "escala_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.History.SetDefaults()
	if len(cfg.Roster) == 0 {
		return nil, fmt.Errorf("roster is empty")
	}
	return &cfg, nil
}
