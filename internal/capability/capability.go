// Package capability defines the static catalog of invocable actions the
// planner draws from. The catalog is built once at process startup and is
// read-only afterwards, which keeps it a safe, shareable structure across
// concurrent planning runs. Adding capabilities requires a restart; there is
// deliberately no hot reload.
package capability

import "fmt"

// Category tags a capability with the kind of work it performs.
type Category string

const (
	// CategoryDocumentAnalysis covers structure extraction, section
	// summarization, and other document-level analysis actions.
	CategoryDocumentAnalysis Category = "document_analysis"

	// CategoryMemoryOperation covers reads and writes against the hosting
	// application's memory stores.
	CategoryMemoryOperation Category = "memory_operation"

	// CategoryRetrieval covers document and knowledge retrieval actions.
	CategoryRetrieval Category = "retrieval"

	// CategorySynthesis covers actions that produce a final synthesized
	// artifact (summary, answer, report).
	CategorySynthesis Category = "synthesis"

	// CategoryConversation covers conversation-management actions such as
	// responding to the user or asking a clarifying question.
	CategoryConversation Category = "conversation_management"

	// CategoryMetaReasoning covers reflection and planning-control actions.
	CategoryMetaReasoning Category = "meta_reasoning"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is a known value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryDocumentAnalysis, CategoryMemoryOperation, CategoryRetrieval,
		CategorySynthesis, CategoryConversation, CategoryMetaReasoning:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether actions in this category can conclude a plan.
// Synthesis and conversation-management actions produce user-facing output,
// so a plan ending in one of them is considered complete by the default
// goal predicate.
func (c Category) IsTerminal() bool {
	return c == CategorySynthesis || c == CategoryConversation
}

// AllCategories returns every known category in a stable order.
func AllCategories() []Category {
	return []Category{
		CategoryDocumentAnalysis,
		CategoryMemoryOperation,
		CategoryRetrieval,
		CategorySynthesis,
		CategoryConversation,
		CategoryMetaReasoning,
	}
}

// StateView is the read-only view of a planning state that precondition
// predicates evaluate against. The search package's state type implements it;
// keeping the contract minimal lets preconditions stay decoupled from the
// search machinery.
type StateView interface {
	// Goal returns the natural-language goal text.
	Goal() string

	// ActionNames returns the ordered capability names in the history.
	ActionNames() []string

	// LatestAction returns the most recent capability name, or "" for the
	// root state.
	LatestAction() string

	// Observation returns the latest observation text.
	Observation() string
}

// Precondition is a predicate deciding whether a capability is applicable in
// a given state. Predicates must be pure: no side effects, no external calls.
type Precondition func(state StateView) bool

// Capability is a named action descriptor in the catalog. Capabilities
// describe what an action would do; they never execute anything.
type Capability struct {
	// Name is the unique identifier of the capability.
	Name string

	// Category is the kind of work this capability performs.
	Category Category

	// Effect is a natural-language description of what invoking the
	// capability does, used in collaborator prompts.
	Effect string

	// Precondition decides whether the capability applies to a state.
	// A nil precondition means always applicable.
	Precondition Precondition

	// Repeatable marks capabilities that may legally follow themselves in
	// a plan. Non-repeatable capabilities are excluded when they equal the
	// state's immediately preceding action, which prevents trivial
	// self-loops.
	Repeatable bool

	// Params describes the parameter shape this capability accepts.
	Params ParamSpec
}

// Validate checks the capability descriptor for structural problems.
func (c Capability) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("capability name cannot be empty")
	}
	if !c.Category.IsValid() {
		return fmt.Errorf("capability %s: invalid category %q", c.Name, c.Category)
	}
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("capability %s: %w", c.Name, err)
	}
	return nil
}

// Applicable reports whether the capability's precondition holds for state.
func (c Capability) Applicable(state StateView) bool {
	if c.Precondition == nil {
		return true
	}
	return c.Precondition(state)
}
