// Package validate performs post-hoc qualitative review of finished plans.
// The validator submits the ordered action list to the meta-reasoning
// critique collaborator and annotates the result with advisory findings
// (risk, ethics, utility/risk conflicts). It never blocks or mutates a plan;
// go/no-go stays with the caller, typically behind a human-approval gate.
package validate

import (
	"context"
	"log/slog"
	"time"

	"github.com/wayfind-ai/wayfind/internal/collab"
)

// defaultCritiqueTimeout bounds the critique collaborator call.
const defaultCritiqueTimeout = 15 * time.Second

// Report is the advisory annotation attached to a planning result.
type Report struct {
	// Findings are the critique collaborator's advisory observations.
	Findings []collab.Finding `json:"findings"`

	// RequiresApproval is set when any finding reaches the approval
	// threshold severity. It is advice for the caller's approval gate,
	// not a block.
	RequiresApproval bool `json:"requires_approval"`

	// Unavailable is set when the critique collaborator could not be
	// reached; the plan stands unreviewed.
	Unavailable bool `json:"unavailable"`
}

// HighestSeverity returns the most severe finding level present, or
// SeverityInfo for an empty report.
func (r Report) HighestSeverity() collab.Severity {
	highest := collab.SeverityInfo
	for _, f := range r.Findings {
		if f.Severity.AtLeast(highest) {
			highest = f.Severity
		}
	}
	return highest
}

// Validator annotates finished plans with advisory critique.
type Validator struct {
	critic            collab.Critic
	logger            *slog.Logger
	timeout           time.Duration
	approvalThreshold collab.Severity
}

// ValidatorOption configures optional Validator behavior.
type ValidatorOption func(*Validator)

// WithTimeout bounds the critique collaborator call.
func WithTimeout(timeout time.Duration) ValidatorOption {
	return func(v *Validator) {
		if timeout > 0 {
			v.timeout = timeout
		}
	}
}

// WithApprovalThreshold sets the severity at which the report advises
// approval. Default is warning.
func WithApprovalThreshold(s collab.Severity) ValidatorOption {
	return func(v *Validator) {
		v.approvalThreshold = s
	}
}

// WithLogger sets the validator's logger.
func WithLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewValidator creates a validator over the given critique collaborator.
// A nil critic produces Unavailable reports.
func NewValidator(critic collab.Critic, opts ...ValidatorOption) *Validator {
	v := &Validator{
		critic:            critic,
		logger:            slog.Default(),
		timeout:           defaultCritiqueTimeout,
		approvalThreshold: collab.SeverityWarning,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Annotate reviews the ordered action names against the goal and returns the
// advisory report. Critique failures never surface as errors; they yield an
// Unavailable report so the caller knows the plan stands unreviewed.
func (v *Validator) Annotate(ctx context.Context, goal string, actions []string) Report {
	if v.critic == nil {
		return Report{Unavailable: true}
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	findings, err := v.critic.Critique(callCtx, goal, actions)
	if err != nil {
		v.logger.Warn("plan critique unavailable", "error", err)
		return Report{Unavailable: true}
	}

	report := Report{Findings: findings}
	for _, f := range findings {
		if f.Severity.AtLeast(v.approvalThreshold) {
			report.RequiresApproval = true
			break
		}
	}

	return report
}
