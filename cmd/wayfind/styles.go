package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wayfind-ai/wayfind/internal/collab"
	"github.com/wayfind-ai/wayfind/internal/planner"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD966")).
			Bold(true)

	statusSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFB000")).
				Bold(true)

	statusDegradedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#805800")).
				Bold(true)

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD966"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#805800"))

	findingCriticalStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#000000")).
				Background(lipgloss.Color("#FFB000")).
				Bold(true)

	findingWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFB000"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#805800")).
			Padding(0, 1)
)

// renderResultText prints a human-readable summary of a planning run.
func renderResultText(result *planner.Result) {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Plan: "+result.Goal) + "\n")

	statusLine := fmt.Sprintf("%s (%s)", result.Status, result.TerminalPhase)
	if result.Succeeded() {
		b.WriteString(statusSuccessStyle.Render(statusLine) + "\n")
	} else {
		b.WriteString(statusDegradedStyle.Render(statusLine) + "\n")
	}

	if result.LowConfidence {
		b.WriteString(mutedStyle.Render("confidence: low (deterministic fallback in use)") + "\n")
	}

	b.WriteString("\n")
	if len(result.Actions) == 0 {
		b.WriteString(mutedStyle.Render("  (no actions)") + "\n")
	}
	for i, step := range result.Actions {
		line := fmt.Sprintf("  %d. %s", i+1, stepStyle.Render(step.Name))
		if summary := step.Params.Summary(); summary != "" {
			line += " " + mutedStyle.Render(summary)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(renderAdvisory(result))
	b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf(
		"cost=%d expanded=%d generated=%d pruned=%d elapsed=%s",
		result.Cost,
		result.Diagnostics.NodesExpanded,
		result.Diagnostics.NodesGenerated,
		result.Diagnostics.NodesPruned,
		result.Diagnostics.Elapsed.Round(time.Millisecond),
	)) + "\n")

	fmt.Print(panelStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n")
}

// renderAdvisory formats the validator's annotation, if any.
func renderAdvisory(result *planner.Result) string {
	adv := result.Advisory
	if adv.Unavailable {
		return "\n" + mutedStyle.Render("advisory: critique unavailable, plan unreviewed") + "\n"
	}
	if len(adv.Findings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	if adv.RequiresApproval {
		b.WriteString(findingWarningStyle.Render("advisory: approval recommended") + "\n")
	}
	for _, f := range adv.Findings {
		var style lipgloss.Style
		switch f.Severity {
		case collab.SeverityCritical:
			style = findingCriticalStyle
		case collab.SeverityWarning:
			style = findingWarningStyle
		default:
			style = mutedStyle
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", style.Render("["+string(f.Severity)+"]"), f.Message))
	}
	return b.String()
}
