package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms/openai"
	"gopkg.in/yaml.v3"

	"github.com/wayfind-ai/wayfind/internal/capability"
	"github.com/wayfind-ai/wayfind/internal/collab"
	"github.com/wayfind-ai/wayfind/internal/expand"
	"github.com/wayfind-ai/wayfind/internal/heuristic"
	"github.com/wayfind-ai/wayfind/internal/planner"
	"github.com/wayfind-ai/wayfind/internal/similarity"
	"github.com/wayfind-ai/wayfind/internal/validate"
)

var planCmd = &cobra.Command{
	Use:   "plan \"goal text\"",
	Short: "Search for an action plan satisfying a goal",
	Long: `Plan searches the capability space for an ordered sequence of actions
that satisfies the given goal.

The capability catalog is loaded from a YAML file (--catalog) or falls back
to the built-in document-assistant catalog. When a language model is
configured (--model plus OPENAI_API_KEY), it scores candidate states and
ranks successors; without one, Wayfind degrades to its deterministic
heuristics and still produces a plan.

The plan command does NOT execute any of the planned actions.`,
	Example: `  # Plan offline with the built-in catalog
  wayfind plan "summarize the quarterly report"

  # Plan against a custom catalog with model-guided search
  OPENAI_API_KEY=... wayfind plan --catalog caps.yaml --model gpt-4o "answer the user's question"

  # Emit the full result as JSON
  wayfind plan --output json "summarize the quarterly report" | jq '.actions'`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

var (
	planCatalogFile string
	planOutput      string
	planModel       string
)

func init() {
	planCmd.Flags().StringVar(&planCatalogFile, "catalog", "", "Capability catalog YAML file (default: built-in catalog)")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "text", "Output format: text, yaml, json")
	planCmd.Flags().StringVar(&planModel, "model", "", "Language model for scoring and ranking (requires OPENAI_API_KEY)")
}

// runPlan implements the plan command.
func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	goal := args[0]

	switch planOutput {
	case "text", "yaml", "json":
	default:
		return wrapExit(ExitConfigError,
			fmt.Sprintf("invalid output format: %s (must be text, yaml, or json)", planOutput), nil)
	}

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	client, err := buildClient()
	if err != nil {
		return err
	}

	logger := slog.Default()
	detector := similarity.NewDetector(cfg.Similarity.Threshold)

	estimator, err := heuristic.NewLLMEstimator(client, nil, detector,
		heuristic.WithCacheSize(cfg.Heuristic.CacheSize),
		heuristic.WithTargetSteps(cfg.Heuristic.TargetSteps),
		heuristic.WithCallTimeout(cfg.Collaborators.CallTimeout),
		heuristic.WithLogger(logger),
	)
	if err != nil {
		return wrapExit(ExitConfigError, "failed to build estimator", err)
	}

	expander, err := expand.NewLLMExpander(registry, client, detector,
		expand.WithBranchingFactor(cfg.Expansion.BranchingFactor),
		expand.WithRankCacheSize(cfg.Expansion.RankCacheSize),
		expand.WithCallTimeout(cfg.Collaborators.CallTimeout),
		expand.WithLogger(logger),
	)
	if err != nil {
		return wrapExit(ExitConfigError, "failed to build expander", err)
	}

	opts := []planner.Option{
		planner.WithNodeBudget(cfg.Search.NodeBudget),
		planner.WithWallClock(cfg.Search.WallClock),
		planner.WithStagnationWindow(cfg.Search.StagnationWindow),
		planner.WithStagnationEpsilon(cfg.Search.StagnationEpsilon),
		planner.WithScoringWorkers(cfg.Search.ScoringWorkers),
		planner.WithLogger(logger),
	}

	if client != nil {
		critic := validate.NewLLMCritic(client)
		opts = append(opts, planner.WithValidator(validate.NewValidator(critic,
			validate.WithTimeout(cfg.Collaborators.CritiqueTimeout),
			validate.WithLogger(logger),
		)))
	}

	var emitter *planner.DefaultEventEmitter
	if verbose {
		emitter = planner.NewDefaultEventEmitter()
		defer emitter.Close()
		opts = append(opts, planner.WithEmitter(emitter))
	}

	p, err := planner.New(estimator, expander, detector, opts...)
	if err != nil {
		return wrapExit(ExitConfigError, "failed to build planner", err)
	}

	if emitter != nil {
		events, cancel := emitter.Subscribe(ctx)
		defer cancel()
		go func() {
			for ev := range events {
				logger.Debug("planner event", "type", ev.Type, "payload", ev.Payload)
			}
		}()
	}

	result, err := p.Run(ctx, goal, nil)
	if err != nil {
		return wrapExit(ExitError, "planning run failed", err)
	}

	if err := renderResult(result); err != nil {
		return wrapExit(ExitError, "failed to render result", err)
	}

	if !result.Succeeded() {
		return wrapExit(ExitPartial,
			fmt.Sprintf("run terminated without a complete plan (%s)", result.TerminalPhase), nil)
	}
	return nil
}

// loadRegistry loads the capability catalog from --catalog, or the built-in
// default catalog when no file is given.
func loadRegistry() (*capability.Registry, error) {
	if planCatalogFile == "" {
		registry, err := capability.NewRegistry(capability.DefaultCatalog())
		if err != nil {
			return nil, wrapExit(ExitConfigError, "failed to build default catalog", err)
		}
		return registry, nil
	}

	if _, err := os.Stat(planCatalogFile); err != nil {
		return nil, wrapExit(ExitConfigError,
			fmt.Sprintf("catalog file not found: %s", planCatalogFile), err)
	}

	registry, err := capability.LoadCatalog(planCatalogFile)
	if err != nil {
		return nil, wrapExit(ExitConfigError,
			fmt.Sprintf("failed to load catalog: %s", planCatalogFile), err)
	}
	return registry, nil
}

// buildClient constructs the completion collaborator when --model is set.
// A nil return means offline planning with deterministic fallbacks.
func buildClient() (collab.CompletionClient, error) {
	if planModel == "" {
		return nil, nil
	}

	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, wrapExit(ExitConfigError,
			"--model requires OPENAI_API_KEY to be set", nil)
	}

	model, err := openai.New(openai.WithModel(planModel))
	if err != nil {
		return nil, wrapExit(ExitConfigError, "failed to build model client", err)
	}
	return collab.NewLangchainClient(model), nil
}

// renderResult writes the run result in the requested output format.
func renderResult(result *planner.Result) error {
	switch planOutput {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(result)
	default:
		renderResultText(result)
		return nil
	}
}
