package capability

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-ai/wayfind/internal/types"
)

const testCatalogYAML = `
capabilities:
  - name: fetch-notes
    category: retrieval
    effect: Fetch notes relevant to the goal.
    params:
      kind: query
  - name: outline-notes
    category: document_analysis
    effect: Outline the fetched notes.
    requires: [fetch-notes]
  - name: draft-reply
    category: conversation_management
    effect: Draft the reply to the user.
    requires: [outline-notes]
    forbids: [draft-reply]
  - name: revise-draft
    category: document_analysis
    effect: Revise the current draft.
    repeatable: true
    max_uses: 2
`

func TestParseCatalog(t *testing.T) {
	r, err := ParseCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)
	require.Equal(t, 4, r.Len())

	fetch, err := r.Get("fetch-notes")
	require.NoError(t, err)
	assert.Equal(t, CategoryRetrieval, fetch.Category)
	assert.Equal(t, ParamQuery, fetch.Params.Kind)
	assert.Nil(t, fetch.Precondition, "no clauses means no compiled precondition")

	revise, err := r.Get("revise-draft")
	require.NoError(t, err)
	assert.True(t, revise.Repeatable)
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantCode types.ErrorCode
	}{
		{
			name:     "malformed yaml",
			yaml:     "capabilities: [\n",
			wantCode: types.CATALOG_PARSE_FAILED,
		},
		{
			name:     "empty catalog",
			yaml:     "capabilities: []",
			wantCode: types.CATALOG_VALIDATION_FAILED,
		},
		{
			name: "unknown category",
			yaml: `
capabilities:
  - name: broken
    category: juggling
`,
			wantCode: types.CATALOG_VALIDATION_FAILED,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)

			var werr *types.Error
			require.True(t, errors.As(err, &werr))
			assert.Equal(t, tt.wantCode, werr.Code)
		})
	}
}

func TestCatalogEntry_CompiledPreconditions(t *testing.T) {
	r, err := ParseCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)

	tests := []struct {
		name    string
		capName string
		history []string
		want    bool
	}{
		{
			name:    "requires unmet",
			capName: "outline-notes",
			history: nil,
			want:    false,
		},
		{
			name:    "requires met",
			capName: "outline-notes",
			history: []string{"fetch-notes"},
			want:    true,
		},
		{
			name:    "forbids blocks second use",
			capName: "draft-reply",
			history: []string{"fetch-notes", "outline-notes", "draft-reply"},
			want:    false,
		},
		{
			name:    "forbids clear on first use",
			capName: "draft-reply",
			history: []string{"fetch-notes", "outline-notes"},
			want:    true,
		},
		{
			name:    "max_uses below cap",
			capName: "revise-draft",
			history: []string{"revise-draft"},
			want:    true,
		},
		{
			name:    "max_uses at cap",
			capName: "revise-draft",
			history: []string{"revise-draft", "revise-draft"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.PreconditionsHold(stubState{actions: tt.history}, tt.capName)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogYAML), 0o644))

	r, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Len())
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var werr *types.Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, types.CATALOG_LOAD_FAILED, werr.Code)
}

func TestDefaultCatalog(t *testing.T) {
	r, err := NewRegistry(DefaultCatalog())
	require.NoError(t, err)

	assert.True(t, r.Has("retrieve-documents"))
	assert.True(t, r.Has("synthesize-summary"))
	assert.True(t, r.Has("compose-response"))

	// summarize-section needs the structure extracted first.
	assert.False(t, r.PreconditionsHold(stubState{}, "summarize-section"))
	assert.True(t, r.PreconditionsHold(
		stubState{actions: []string{"extract-structure"}}, "summarize-section"))

	// A clarifying question only makes sense before any work happened.
	assert.True(t, r.PreconditionsHold(stubState{}, "ask-clarifying-question"))
	assert.False(t, r.PreconditionsHold(
		stubState{actions: []string{"retrieve-documents"}}, "ask-clarifying-question"))

	// synthesize-summary requires at least one section summary.
	assert.False(t, r.PreconditionsHold(
		stubState{actions: []string{"extract-structure"}}, "synthesize-summary"))
	assert.True(t, r.PreconditionsHold(
		stubState{actions: []string{"extract-structure", "summarize-section"}}, "synthesize-summary"))
}

func TestCapability_Applicable_SelfLoopFieldsOnly(t *testing.T) {
	// Applicable evaluates only the precondition; self-loop exclusion for
	// non-repeatable capabilities is the expander's job.
	c := Capability{Name: "extract-structure", Category: CategoryDocumentAnalysis}
	assert.True(t, c.Applicable(stubState{actions: []string{"extract-structure"}}))
}
