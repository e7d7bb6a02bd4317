// Package config loads chit settings from an HCL file, a .env file and
// CHIT_* environment variables, in that order of precedence from lowest to
// highest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvSeed        = "CHIT_SEED"
	EnvRounds      = "CHIT_ROUNDS"
	EnvConcurrency = "CHIT_CONCURRENCY"
	EnvLogLevel    = "CHIT_LOG_LEVEL"
	EnvHistoryDir  = "CHIT_HISTORY_DIR"
)

// Config is the complete, defaulted configuration.
type Config struct {
	Simulation Simulation
	Logging    Logging
	History    History
}

// Simulation configures batch play.
type Simulation struct {
	Rounds int `hcl:"rounds,optional"`
	// Seed zero draws a fresh seed for every run.
	Seed        int64  `hcl:"seed,optional"`
	Concurrency int    `hcl:"concurrency,optional"`
	MaxTurns    int    `hcl:"max_turns,optional"`
	Strategy    string `hcl:"strategy,optional"`
	// RoundsPerGame groups consecutive rounds into one match with rotating
	// starters.
	RoundsPerGame int `hcl:"rounds_per_game,optional"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

// History configures move log recording.
type History struct {
	Enabled     bool   `hcl:"enabled,optional"`
	Dir         string `hcl:"dir,optional"`
	FlushRounds int    `hcl:"flush_rounds,optional"`
}

// fileConfig is the HCL document shape. Every block is optional.
type fileConfig struct {
	Simulation *Simulation `hcl:"simulation,block"`
	Logging    *Logging    `hcl:"logging,block"`
	History    *History    `hcl:"history,block"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Simulation: Simulation{
			Rounds:        1000,
			Concurrency:   4,
			MaxTurns:      500,
			Strategy:      "random",
			RoundsPerGame: 4,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		History: History{
			Dir:         "history",
			FlushRounds: 100,
		},
	}
}

// Load reads filename and fills unset values with defaults. A missing file
// yields the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if s := fc.Simulation; s != nil {
		if s.Rounds != 0 {
			cfg.Simulation.Rounds = s.Rounds
		}
		if s.Seed != 0 {
			cfg.Simulation.Seed = s.Seed
		}
		if s.Concurrency != 0 {
			cfg.Simulation.Concurrency = s.Concurrency
		}
		if s.MaxTurns != 0 {
			cfg.Simulation.MaxTurns = s.MaxTurns
		}
		if s.Strategy != "" {
			cfg.Simulation.Strategy = s.Strategy
		}
		if s.RoundsPerGame != 0 {
			cfg.Simulation.RoundsPerGame = s.RoundsPerGame
		}
	}
	if l := fc.Logging; l != nil {
		if l.Level != "" {
			cfg.Logging.Level = l.Level
		}
		if l.Format != "" {
			cfg.Logging.Format = l.Format
		}
	}
	if h := fc.History; h != nil {
		cfg.History.Enabled = h.Enabled
		if h.Dir != "" {
			cfg.History.Dir = h.Dir
		}
		if h.FlushRounds != 0 {
			cfg.History.FlushRounds = h.FlushRounds
		}
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none
// are named) into the process environment. Missing files are skipped and
// variables already set are left alone.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from CHIT_* variables found through lookup,
// typically os.LookupEnv. Setting CHIT_HISTORY_DIR also enables history.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookupNonEmpty(lookup, EnvSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSeed, v, err)
		}
		c.Simulation.Seed = seed
	}
	if v, ok := lookupNonEmpty(lookup, EnvRounds); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvRounds, v, err)
		}
		c.Simulation.Rounds = n
	}
	if v, ok := lookupNonEmpty(lookup, EnvConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvConcurrency, v, err)
		}
		c.Simulation.Concurrency = n
	}
	if v, ok := lookupNonEmpty(lookup, EnvLogLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := lookupNonEmpty(lookup, EnvHistoryDir); ok {
		c.History.Dir = v
		c.History.Enabled = true
	}
	return nil
}

func lookupNonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

var (
	validStrategies = []string{"random", "greedy"}
	validLevels     = []string{"trace", "debug", "info", "warn", "error"}
	validFormats    = []string{"console", "json"}
)

// maxRoundsPerGame matches the match length limit of the game package.
const maxRoundsPerGame = 50

// Validate checks the configuration for values the simulator cannot run with.
func (c *Config) Validate() error {
	if c.Simulation.Rounds < 1 {
		return fmt.Errorf("rounds must be positive, got %d", c.Simulation.Rounds)
	}
	if c.Simulation.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Simulation.Concurrency)
	}
	if c.Simulation.MaxTurns < 1 {
		return fmt.Errorf("max_turns must be positive, got %d", c.Simulation.MaxTurns)
	}
	if c.Simulation.RoundsPerGame < 1 || c.Simulation.RoundsPerGame > maxRoundsPerGame {
		return fmt.Errorf("rounds_per_game must be 1-%d, got %d", maxRoundsPerGame, c.Simulation.RoundsPerGame)
	}
	if !slices.Contains(validStrategies, c.Simulation.Strategy) {
		return fmt.Errorf("unknown strategy %q (want one of %s)", c.Simulation.Strategy, strings.Join(validStrategies, ", "))
	}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	if !slices.Contains(validFormats, c.Logging.Format) {
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	if c.History.Enabled && c.History.Dir == "" {
		return errors.New("history is enabled but no dir is set")
	}
	if c.History.FlushRounds < 0 {
		return fmt.Errorf("flush_rounds must not be negative, got %d", c.History.FlushRounds)
	}
	return nil
}
