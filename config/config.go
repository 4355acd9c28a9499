// ABOUTME: Configuration management for fitness weights and GA parameters
// ABOUTME: Handles loading/saving TOML config files with fallback to defaults

package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// Config holds all tunable parameters of the stroke matching engine.
type Config struct {
	// Fitness weights over the per-pair distance terms
	Alpha   float64 `toml:"alpha"`   // center-of-mass distance
	Beta    float64 `toml:"beta"`    // arc length difference
	Gamma   float64 `toml:"gamma"`   // chord angle difference
	Epsilon float64 `toml:"epsilon"` // relative position difference

	// Genetic algorithm controls
	PopulationSize         int     `toml:"population_size"` // 0 = 8 per written stroke
	MaxGenerations         int     `toml:"max_generations"`
	ConvergenceGenerations int     `toml:"convergence_generations"`
	TournamentSize         int     `toml:"tournament_size"`
	CrossoverRate          float64 `toml:"crossover_rate"`
	MutationRate           float64 `toml:"mutation_rate"`
	Seed                   uint64  `toml:"seed"` // 0 = non-deterministic

	// Classifier and preprocessing
	AngleThreshold float64 `toml:"angle_threshold"` // radians
	Normalize      bool    `toml:"normalize"`
	TargetSize     float64 `toml:"target_size"`
}

// Default returns the engine defaults. Weights are balanced; the GA sizes
// its population to the written character unless overridden.
func Default() Config {
	return Config{
		Alpha:                  1.0,
		Beta:                   1.0,
		Gamma:                  1.0,
		Epsilon:                1.0,
		PopulationSize:         0,
		MaxGenerations:         100,
		ConvergenceGenerations: 10,
		TournamentSize:         3,
		CrossoverRate:          0.8,
		MutationRate:           0.1,
		Seed:                   0,
		AngleThreshold:         math.Pi / 4,
		Normalize:              true,
		TargetSize:             100.0,
	}
}

// Path returns the default config file path. First tries the current
// directory, then falls back to ~/.config/stroke-grader/config.toml.
func Path() string {
	if _, err := os.Stat("./stroke-grader.toml"); err == nil {
		return "./stroke-grader.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./stroke-grader.toml"
	}

	return filepath.Join(home, ".config", "stroke-grader", "config.toml")
}

// Load loads configuration from a TOML file. A missing file yields the
// defaults; fields absent from the file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}

		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to a TOML file, creating the directory if
// needed.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	defer func() {
		if err := f.Close(); err != nil {
			fmt.Printf("Warning: failed to close config file: %v\n", err)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// SharedConfig wraps Config with a mutex so the TUI can hand updated
// parameters to the grading loop between restart epochs.
type SharedConfig struct {
	mu  sync.RWMutex
	cfg Config
}

// Get returns a copy of the current config.
func (sc *SharedConfig) Get() Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	return sc.cfg
}

// Update replaces the config.
func (sc *SharedConfig) Update(cfg Config) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cfg = cfg
}
