// Package config defines the runtime-configurable surface of the planner:
// search budgets, branching factor, similarity threshold, stagnation
// controls, cache sizes, and collaborator timeouts. Configuration is loaded
// from YAML files; every tunable has a sensible default and validation, so
// no code change is needed to retune a deployment.
package config

import "time"

// Config is the root configuration for the Wayfind planner.
type Config struct {
	Search        SearchConfig        `mapstructure:"search" yaml:"search"`
	Similarity    SimilarityConfig    `mapstructure:"similarity" yaml:"similarity"`
	Heuristic     HeuristicConfig     `mapstructure:"heuristic" yaml:"heuristic"`
	Expansion     ExpansionConfig     `mapstructure:"expansion" yaml:"expansion"`
	Collaborators CollaboratorsConfig `mapstructure:"collaborators" yaml:"collaborators"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`
}

// SearchConfig bounds one planning run.
type SearchConfig struct {
	// NodeBudget is the maximum number of nodes one run may expand.
	NodeBudget int `mapstructure:"node_budget" yaml:"node_budget" validate:"min=1,max=100000"`

	// WallClock is the maximum elapsed time for one run.
	WallClock time.Duration `mapstructure:"wall_clock" yaml:"wall_clock" validate:"min=100ms"`

	// StagnationWindow is K: iterations without improvement before the
	// run terminates as stagnating.
	StagnationWindow int `mapstructure:"stagnation_window" yaml:"stagnation_window" validate:"min=1,max=1000"`

	// StagnationEpsilon is the improvement threshold as a fraction of the
	// initial best f.
	StagnationEpsilon float64 `mapstructure:"stagnation_epsilon" yaml:"stagnation_epsilon" validate:"gt=0,lte=1"`

	// ScoringWorkers bounds the pool scoring sibling candidates.
	ScoringWorkers int `mapstructure:"scoring_workers" yaml:"scoring_workers" validate:"min=1,max=64"`
}

// SimilarityConfig tunes near-duplicate pruning.
type SimilarityConfig struct {
	// Threshold is the similarity at or above which two states are
	// near-duplicates.
	Threshold float64 `mapstructure:"threshold" yaml:"threshold" validate:"gt=0,lte=1"`
}

// HeuristicConfig tunes the cost-to-go estimator.
type HeuristicConfig struct {
	// CacheSize bounds the fingerprint -> estimate LRU cache.
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size" validate:"min=1,max=1000000"`

	// TargetSteps is the typical plan length assumed by the deterministic
	// fallback proxy.
	TargetSteps int `mapstructure:"target_steps" yaml:"target_steps" validate:"min=1,max=100"`
}

// ExpansionConfig tunes successor generation.
type ExpansionConfig struct {
	// BranchingFactor bounds how many successor candidates one expansion
	// may produce.
	BranchingFactor int `mapstructure:"branching_factor" yaml:"branching_factor" validate:"min=1,max=50"`

	// RankCacheSize bounds the fingerprint -> ranked candidates LRU cache.
	RankCacheSize int `mapstructure:"rank_cache_size" yaml:"rank_cache_size" validate:"min=1,max=1000000"`
}

// CollaboratorsConfig tunes external collaborator calls.
type CollaboratorsConfig struct {
	// CallTimeout bounds each estimation/ranking collaborator call.
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout" validate:"min=100ms"`

	// CritiqueTimeout bounds the post-hoc critique call.
	CritiqueTimeout time.Duration `mapstructure:"critique_timeout" yaml:"critique_timeout" validate:"min=100ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	Level string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`

	// Format is the output format: text or json.
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}
