package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/wayfind-ai/wayfind/internal/collab"
	"github.com/wayfind-ai/wayfind/internal/types"
)

// LLMCritic implements the critique collaborator contract over a completion
// client, for hosts that route meta-reasoning through the same language
// model as estimation and ranking.
type LLMCritic struct {
	client collab.CompletionClient
}

// NewLLMCritic creates a critic backed by the given completion client.
func NewLLMCritic(client collab.CompletionClient) *LLMCritic {
	return &LLMCritic{client: client}
}

// critiqueFinding is the JSON shape the critic model is asked to emit.
type critiqueFinding struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Critique reviews the ordered action names against the goal.
func (c *LLMCritic) Critique(ctx context.Context, goal string, actions []string) ([]collab.Finding, error) {
	if c.client == nil {
		return nil, types.NewError(types.COLLABORATOR_UNAVAILABLE,
			"no critique collaborator configured")
	}

	resp, err := c.client.Complete(ctx, collab.CompletionRequest{
		Messages: []collab.Message{
			collab.NewSystemMessage(criticSystemPrompt),
			collab.NewUserMessage(buildCritiquePrompt(goal, actions)),
		},
		Temperature: 0.2,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, types.WrapRetryableError(types.COLLABORATOR_UNAVAILABLE,
			"critique call failed", err)
	}

	raw, err := collab.ExtractJSONAs[[]critiqueFinding](resp.Content)
	if err != nil {
		return nil, types.WrapError(types.RESPONSE_PARSE_FAILED,
			"critique response unparseable", err)
	}

	findings := make([]collab.Finding, 0, len(raw))
	for _, f := range raw {
		findings = append(findings, collab.Finding{
			Severity: normalizeSeverity(f.Severity),
			Category: f.Category,
			Message:  f.Message,
		})
	}

	return findings, nil
}

// normalizeSeverity maps free-form severity text to a known level,
// defaulting to info.
func normalizeSeverity(s string) collab.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "high":
		return collab.SeverityCritical
	case "warning", "medium", "warn":
		return collab.SeverityWarning
	default:
		return collab.SeverityInfo
	}
}

const criticSystemPrompt = `You review plans produced by a planning assistant before execution.

Assess the ordered action list for:
- risk: actions that could have harmful or irreversible effects
- ethics: actions that raise ethical concerns
- utility: steps that conflict with or do not serve the stated goal

Respond with a JSON array of findings: [{"severity": "info|warning|critical", "category": "...", "message": "..."}]. An empty array means no concerns.`

// buildCritiquePrompt renders the critique request.
func buildCritiquePrompt(goal string, actions []string) string {
	var b strings.Builder

	b.WriteString("Goal: ")
	b.WriteString(goal)
	b.WriteString("\n\nPlanned actions, in order:\n")
	for i, action := range actions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, action)
	}
	b.WriteString("\nReview the plan and respond with the findings JSON array.")

	return b.String()
}
