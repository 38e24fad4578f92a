package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config is the full CLI configuration, loaded from a YAML file and
// overridden by ASPECTREE_-prefixed environment variables.
type Config struct {
	Oracle  OracleConfig `koanf:"oracle"`
	Engine  EngineConfig `koanf:"engine"`
	Workers int          `koanf:"workers"`
	Output  string       `koanf:"output"`
	Verbose bool         `koanf:"verbose"`
}

// OracleConfig selects and configures the language model backend.
type OracleConfig struct {
	Backend  string  `koanf:"backend"` // "openai" or "ollama"
	Endpoint string  `koanf:"endpoint"`
	Model    string  `koanf:"model"`
	APIKey   string  `koanf:"api_key"`
	RPS      float64 `koanf:"rps"`
}

// EngineConfig holds the tree construction and pruning knobs.
type EngineConfig struct {
	MaxDepth       int     `koanf:"max_depth"`
	MaxChildren    int     `koanf:"max_children"`
	PruneThreshold float64 `koanf:"prune_threshold"`
	KeepOnError    bool    `koanf:"keep_on_error"`
}

// loadConfig reads the optional YAML file, then environment overrides.
// ASPECTREE_ORACLE_MODEL maps to oracle.model and so on.
func loadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("ASPECTREE_", ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, "ASPECTREE_"))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Config{
		Oracle:  OracleConfig{Backend: "openai"},
		Workers: 4,
		Output:  "results",
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
