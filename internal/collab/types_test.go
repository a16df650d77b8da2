package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionRequest_Validate(t *testing.T) {
	valid := CompletionRequest{
		Messages: []Message{
			NewSystemMessage("you estimate remaining steps"),
			NewUserMessage("how many steps remain?"),
		},
		Temperature: 0.2,
		MaxTokens:   64,
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*CompletionRequest)
		want   string
	}{
		{
			name:   "no messages",
			mutate: func(r *CompletionRequest) { r.Messages = nil },
			want:   "at least one message",
		},
		{
			name:   "empty content",
			mutate: func(r *CompletionRequest) { r.Messages[1].Content = "" },
			want:   "message 1",
		},
		{
			name:   "bad role",
			mutate: func(r *CompletionRequest) { r.Messages[0].Role = "narrator" },
			want:   "invalid role",
		},
		{
			name:   "temperature out of range",
			mutate: func(r *CompletionRequest) { r.Temperature = 1.5 },
			want:   "temperature",
		},
		{
			name:   "negative max tokens",
			mutate: func(r *CompletionRequest) { r.MaxTokens = -1 },
			want:   "max tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			req.Messages = append([]Message(nil), valid.Messages...)
			tt.mutate(&req)

			err := req.Validate()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityInfo))
	assert.True(t, SeverityWarning.AtLeast(SeverityWarning))
	assert.False(t, SeverityInfo.AtLeast(SeverityWarning))
	assert.False(t, SeverityWarning.AtLeast(SeverityCritical))
}

func TestMarshalCompact(t *testing.T) {
	assert.Equal(t, `{"name":"extract-structure"}`, MarshalCompact(map[string]string{"name": "extract-structure"}))
	// Unmarshalable values degrade to an empty object instead of failing.
	assert.Equal(t, "{}", MarshalCompact(make(chan int)))
}
