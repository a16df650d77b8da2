package capability

import "fmt"

// ParamKind discriminates the parameter shapes a capability can take.
// Capabilities vary in what they need (nothing, a query string, a section
// reference, free-form instructions); modeling the variation as a tagged
// variant keeps the invocation contract uniform without an inheritance
// hierarchy.
type ParamKind string

const (
	// ParamNone means the capability takes no parameters.
	ParamNone ParamKind = "none"

	// ParamQuery means the capability takes a retrieval/search query.
	ParamQuery ParamKind = "query"

	// ParamSection means the capability targets a document section by
	// index or label.
	ParamSection ParamKind = "section"

	// ParamFreeForm means the capability takes free-form instruction text.
	ParamFreeForm ParamKind = "freeform"
)

// IsValid checks if the kind is a known value.
func (k ParamKind) IsValid() bool {
	switch k {
	case ParamNone, ParamQuery, ParamSection, ParamFreeForm:
		return true
	default:
		return false
	}
}

// ParamSpec declares which parameter shape a capability accepts.
type ParamSpec struct {
	// Kind is the accepted parameter shape. The zero value is treated as
	// ParamNone.
	Kind ParamKind `yaml:"kind" json:"kind"`
}

// Validate checks the spec for structural problems.
func (s ParamSpec) Validate() error {
	if s.Kind == "" {
		return nil
	}
	if !s.Kind.IsValid() {
		return fmt.Errorf("invalid param kind %q", s.Kind)
	}
	return nil
}

// Params is one concrete parameter assignment for a capability invocation.
// Exactly the field matching the capability's declared kind is meaningful;
// the rest stay zero.
type Params struct {
	// Kind mirrors the capability's declared parameter shape.
	Kind ParamKind `json:"kind"`

	// Query holds the search query for ParamQuery capabilities.
	Query string `json:"query,omitempty"`

	// Section holds the section reference for ParamSection capabilities.
	Section string `json:"section,omitempty"`

	// Instructions holds free-form text for ParamFreeForm capabilities.
	Instructions string `json:"instructions,omitempty"`
}

// NoParams returns the empty parameter assignment.
func NoParams() Params {
	return Params{Kind: ParamNone}
}

// Matches reports whether the assignment fits the declared spec.
func (p Params) Matches(spec ParamSpec) bool {
	kind := spec.Kind
	if kind == "" {
		kind = ParamNone
	}
	pk := p.Kind
	if pk == "" {
		pk = ParamNone
	}
	return pk == kind
}

// Summary renders a short human-readable description of the assignment,
// used in prompts and diagnostics.
func (p Params) Summary() string {
	switch p.Kind {
	case ParamQuery:
		return fmt.Sprintf("query=%q", p.Query)
	case ParamSection:
		return fmt.Sprintf("section=%q", p.Section)
	case ParamFreeForm:
		return fmt.Sprintf("instructions=%q", p.Instructions)
	default:
		return ""
	}
}
