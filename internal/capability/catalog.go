package capability

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wayfind-ai/wayfind/internal/types"
)

// CatalogEntry is the YAML representation of one capability. Preconditions
// are declarative so catalogs can live in files: each clause compiles to a
// pure predicate over the state's action history.
type CatalogEntry struct {
	Name       string    `yaml:"name"`
	Category   Category  `yaml:"category"`
	Effect     string    `yaml:"effect"`
	Repeatable bool      `yaml:"repeatable"`
	Params     ParamSpec `yaml:"params"`

	// Requires lists capability names that must all appear in the state's
	// history before this capability applies.
	Requires []string `yaml:"requires,omitempty"`

	// Forbids lists capability names whose presence in the history makes
	// this capability inapplicable.
	Forbids []string `yaml:"forbids,omitempty"`

	// MaxUses caps how many times this capability may appear in one
	// history. Zero means unlimited.
	MaxUses int `yaml:"max_uses,omitempty"`
}

// Catalog is the YAML file shape for a capability catalog.
type Catalog struct {
	Capabilities []CatalogEntry `yaml:"capabilities"`
}

// Compile turns the declarative entry into a Capability with a compiled
// precondition predicate.
func (e CatalogEntry) Compile() (Capability, error) {
	cap := Capability{
		Name:       e.Name,
		Category:   e.Category,
		Effect:     e.Effect,
		Repeatable: e.Repeatable,
		Params:     e.Params,
	}

	requires := append([]string(nil), e.Requires...)
	forbids := append([]string(nil), e.Forbids...)
	maxUses := e.MaxUses
	name := e.Name

	if len(requires) > 0 || len(forbids) > 0 || maxUses > 0 {
		cap.Precondition = func(state StateView) bool {
			history := state.ActionNames()
			counts := make(map[string]int, len(history))
			for _, action := range history {
				counts[action]++
			}
			for _, required := range requires {
				if counts[required] == 0 {
					return false
				}
			}
			for _, forbidden := range forbids {
				if counts[forbidden] > 0 {
					return false
				}
			}
			if maxUses > 0 && counts[name] >= maxUses {
				return false
			}
			return true
		}
	}

	if err := cap.Validate(); err != nil {
		return Capability{}, err
	}
	return cap, nil
}

// LoadCatalog reads a YAML capability catalog from path and builds a
// registry from it.
func LoadCatalog(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.CATALOG_LOAD_FAILED,
			fmt.Sprintf("failed to read catalog file %s", path), err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a registry from raw YAML catalog bytes.
func ParseCatalog(data []byte) (*Registry, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, types.WrapError(types.CATALOG_PARSE_FAILED,
			"failed to parse catalog YAML", err)
	}

	if len(catalog.Capabilities) == 0 {
		return nil, types.NewError(types.CATALOG_VALIDATION_FAILED,
			"catalog declares no capabilities")
	}

	caps := make([]Capability, 0, len(catalog.Capabilities))
	for _, entry := range catalog.Capabilities {
		c, err := entry.Compile()
		if err != nil {
			return nil, types.WrapError(types.CATALOG_VALIDATION_FAILED,
				"failed to compile catalog entry", err)
		}
		caps = append(caps, c)
	}

	return NewRegistry(caps)
}

// DefaultCatalog returns the built-in capability set used when no catalog
// file is supplied. It covers the standard research-assistant flow:
// retrieve, analyze, remember, synthesize, respond.
func DefaultCatalog() []Capability {
	return []Capability{
		{
			Name:     "retrieve-documents",
			Category: CategoryRetrieval,
			Effect:   "Retrieve documents relevant to the goal from the knowledge store.",
			Params:   ParamSpec{Kind: ParamQuery},
		},
		{
			Name:     "extract-structure",
			Category: CategoryDocumentAnalysis,
			Effect:   "Extract the section structure of the working document.",
		},
		{
			Name:       "summarize-section",
			Category:   CategoryDocumentAnalysis,
			Effect:     "Summarize one section of the working document.",
			Repeatable: true,
			Params:     ParamSpec{Kind: ParamSection},
			Precondition: func(state StateView) bool {
				return containsAction(state, "extract-structure")
			},
		},
		{
			Name:     "memory-lookup",
			Category: CategoryMemoryOperation,
			Effect:   "Look up related past conversations and notes in memory.",
			Params:   ParamSpec{Kind: ParamQuery},
		},
		{
			Name:     "memory-store",
			Category: CategoryMemoryOperation,
			Effect:   "Store a durable note about the current task in memory.",
			Params:   ParamSpec{Kind: ParamFreeForm},
		},
		{
			Name:     "synthesize-summary",
			Category: CategorySynthesis,
			Effect:   "Synthesize the gathered material into a final summary.",
			Precondition: func(state StateView) bool {
				return containsAction(state, "summarize-section")
			},
		},
		{
			Name:     "compose-response",
			Category: CategoryConversation,
			Effect:   "Compose the final response to the user.",
		},
		{
			Name:     "ask-clarifying-question",
			Category: CategoryConversation,
			Effect:   "Ask the user a clarifying question about the goal.",
			Precondition: func(state StateView) bool {
				return len(state.ActionNames()) == 0
			},
		},
		{
			Name:       "reflect-on-progress",
			Category:   CategoryMetaReasoning,
			Effect:     "Reflect on progress so far and reconsider the approach.",
			Repeatable: false,
			Precondition: func(state StateView) bool {
				return len(state.ActionNames()) >= 2
			},
		},
	}
}

// containsAction reports whether the state's history includes the named
// capability.
func containsAction(state StateView, name string) bool {
	for _, action := range state.ActionNames() {
		if action == name {
			return true
		}
	}
	return false
}
