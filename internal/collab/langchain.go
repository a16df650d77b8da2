package collab

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/wayfind-ai/wayfind/internal/types"
)

// LangchainClient adapts any langchaingo model (OpenAI, Anthropic, Ollama,
// and the rest) to the CompletionClient contract. The hosting application
// constructs the underlying model; the planner only ever sees Complete.
type LangchainClient struct {
	model llms.Model
}

// NewLangchainClient wraps a langchaingo model as a CompletionClient.
func NewLangchainClient(model llms.Model) *LangchainClient {
	return &LangchainClient{model: model}
}

// Complete sends a completion request through the wrapped model.
// Transport failures are reported as retryable collaborator errors so the
// planner routes them to its fallback paths.
func (c *LangchainClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, types.WrapError(types.RESPONSE_PARSE_FAILED, "invalid completion request", err)
	}

	messages := toLangchainMessages(req.Messages)

	var callOpts []llms.CallOption
	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, types.WrapRetryableError(types.COLLABORATOR_UNAVAILABLE,
			"completion call failed", err)
	}

	return fromLangchainResponse(resp), nil
}

// toLangchainMessages converts planner messages to langchaingo MessageContent.
func toLangchainMessages(messages []Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))

	for _, msg := range messages {
		role := llms.ChatMessageTypeHuman
		switch msg.Role {
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		case RoleAssistant:
			role = llms.ChatMessageTypeAI
		}

		result = append(result, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}

	return result
}

// fromLangchainResponse converts a langchaingo response to a CompletionResponse.
func fromLangchainResponse(resp *llms.ContentResponse) *CompletionResponse {
	out := &CompletionResponse{
		ID:           types.NewID().String(),
		FinishReason: FinishReasonStop,
	}

	if resp == nil || len(resp.Choices) == 0 {
		out.FinishReason = FinishReasonError
		return out
	}

	choice := resp.Choices[0]
	out.Content = choice.Content
	if choice.StopReason == "length" {
		out.FinishReason = FinishReasonLength
	}

	return out
}
