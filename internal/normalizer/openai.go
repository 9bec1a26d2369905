package normalizer

import (
	"encoding/json"
	"fmt"

	"github.com/llmbridge/llmbridge/internal/toolcall"
)

// OpenAI response structures.
type openAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object,omitempty"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices,omitempty"`
	Usage   *openAIUsage   `json:"usage,omitempty"`
}

type openAIChoice struct {
	Index        int            `json:"index"`
	Message      *openAIMessage `json:"message,omitempty"`
	FinishReason *string        `json:"finish_reason,omitempty"`
}

type openAIMessage struct {
	Role      string           `json:"role,omitempty"`
	Content   *string          `json:"content,omitempty"`
	ToolCalls []openAIToolCall `json:"tool_calls,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// extractOpenAI passes choices[0].message through, but the repair shim still
// runs over it afterwards as defensive normalization: an arguments field that
// arrives as a bare object instead of a string is coerced here.
func extractOpenAI(raw []byte, declared []toolcall.ToolDefinition) (*NormalizedResponse, error) {
	var resp openAIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal openai response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in openai response")
	}

	result := &NormalizedResponse{
		ID:    resp.ID,
		Model: resp.Model,
	}

	if resp.Usage != nil {
		result.Usage = Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	message := resp.Choices[0].Message
	if message == nil {
		return result, nil
	}

	if message.Content != nil {
		result.Text = *message.Content
	}

	for _, call := range message.ToolCalls {
		arguments := "{}"
		if len(call.Function.Arguments) > 0 {
			arguments = decodeOpenAIArguments(call.Function.Arguments)
		}

		result.ToolCalls = append(result.ToolCalls, toolcall.ToolCall{
			ID:   call.ID,
			Type: toolcall.TypeFunction,
			Function: toolcall.FunctionCall{
				Name:      call.Function.Name,
				Arguments: arguments,
			},
		})
	}

	return result, nil
}

// decodeOpenAIArguments accepts arguments delivered either as the contractual
// JSON string or, from lax upstreams, as a bare JSON object.
func decodeOpenAIArguments(raw json.RawMessage) string {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	return string(raw)
}
