package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "tagged code block",
			response: "Here is the ranking:\n```json\n[\"a\", \"b\"]\n```\nDone.",
			want:     `["a", "b"]`,
		},
		{
			name:     "untagged code block",
			response: "```\n{\"severity\": \"info\"}\n```",
			want:     `{"severity": "info"}`,
		},
		{
			name:     "raw object in prose",
			response: `The verdict is {"severity": "warning", "message": "late retrieval"} overall.`,
			want:     `{"severity": "warning", "message": "late retrieval"}`,
		},
		{
			name:     "raw array in prose",
			response: `Ranked: ["summarize-section", "synthesize-summary"].`,
			want:     `["summarize-section", "synthesize-summary"]`,
		},
		{
			name:     "nested brackets",
			response: `{"findings": [{"severity": "info"}]}`,
			want:     `{"findings": [{"severity": "info"}]}`,
		},
		{
			name:     "braces inside strings",
			response: `{"message": "use {placeholder} here"}`,
			want:     `{"message": "use {placeholder} here"}`,
		},
		{
			name:     "no json at all",
			response: "I cannot rank these candidates.",
			wantErr:  true,
		},
		{
			name:     "unmatched bracket",
			response: `{"broken": true`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONAs(t *testing.T) {
	names, err := ExtractJSONAs[[]string]("```json\n[\"first\", \"second\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, names)

	type verdict struct {
		Severity string `json:"severity"`
	}
	v, err := ExtractJSONAs[verdict](`{"severity": "critical"}`)
	require.NoError(t, err)
	assert.Equal(t, "critical", v.Severity)

	// Valid JSON of the wrong shape fails at unmarshal.
	_, err = ExtractJSONAs[[]string](`{"severity": "critical"}`)
	require.Error(t, err)
}

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
		wantErr  bool
	}{
		{name: "bare integer", response: "4", want: 4},
		{name: "bare float", response: "3.5", want: 3.5},
		{name: "with whitespace", response: "  6 \n", want: 6},
		{name: "embedded in prose", response: "I estimate about 4 more steps.", want: 4},
		{name: "labeled", response: "Estimate: 2.5 steps", want: 2.5},
		{name: "negative", response: "-1", want: -1},
		{name: "first of several", response: "between 3 and 5 steps", want: 3},
		{name: "empty", response: "", wantErr: true},
		{name: "no number", response: "several more steps", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractNumber(tt.response)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
