package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{
		validator: validator,
	}
}

// Load loads configuration from the specified file path.
// Returns an error if the file doesn't exist or cannot be parsed. Values
// absent from the file keep their defaults.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration from the specified file path.
// If the file doesn't exist, returns the default configuration.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return l.Load(path)
}

// setDefaults seeds viper with the default configuration so partial files
// only override what they name.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("search.node_budget", def.Search.NodeBudget)
	v.SetDefault("search.wall_clock", def.Search.WallClock)
	v.SetDefault("search.stagnation_window", def.Search.StagnationWindow)
	v.SetDefault("search.stagnation_epsilon", def.Search.StagnationEpsilon)
	v.SetDefault("search.scoring_workers", def.Search.ScoringWorkers)
	v.SetDefault("similarity.threshold", def.Similarity.Threshold)
	v.SetDefault("heuristic.cache_size", def.Heuristic.CacheSize)
	v.SetDefault("heuristic.target_steps", def.Heuristic.TargetSteps)
	v.SetDefault("expansion.branching_factor", def.Expansion.BranchingFactor)
	v.SetDefault("expansion.rank_cache_size", def.Expansion.RankCacheSize)
	v.SetDefault("collaborators.call_timeout", def.Collaborators.CallTimeout)
	v.SetDefault("collaborators.critique_timeout", def.Collaborators.CritiqueTimeout)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
}
