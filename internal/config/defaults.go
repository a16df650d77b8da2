package config

import "time"

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			NodeBudget:        100,
			WallClock:         60 * time.Second,
			StagnationWindow:  5,
			StagnationEpsilon: 0.01,
			ScoringWorkers:    4,
		},
		Similarity: SimilarityConfig{
			Threshold: 0.8,
		},
		Heuristic: HeuristicConfig{
			CacheSize:   500,
			TargetSteps: 6,
		},
		Expansion: ExpansionConfig{
			BranchingFactor: 5,
			RankCacheSize:   256,
		},
		Collaborators: CollaboratorsConfig{
			CallTimeout:     10 * time.Second,
			CritiqueTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
