package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/llmbridge/llmbridge/internal/toolcall"
)

// Anthropic response structures (Bedrock-hosted Claude).
type anthropicResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role,omitempty"`
	Model      string             `json:"model"`
	Content    []anthropicContent `json:"content,omitempty"`
	StopReason *string            `json:"stop_reason,omitempty"`
	Usage      *anthropicUsage    `json:"usage,omitempty"`

	// Salesforce-wrapped generations carry prose here instead of content
	// blocks; an embedded <function_calls> region may hide inside.
	Generations []anthropicGeneration `json:"generations,omitempty"`
	Generation  string                `json:"generation,omitempty"`
}

type anthropicContent struct {
	Type  string          `json:"type"`
	Text  *string         `json:"text,omitempty"`
	ID    *string         `json:"id,omitempty"`
	Name  *string         `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicGeneration struct {
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// extractAnthropic handles both native content-block responses and
// Salesforce-wrapped prose. Text blocks concatenate; tool_use blocks each
// become one canonical call with input JSON-stringified. Prose containing a
// <function_calls> region delegates to the parser, and the matched region is
// stripped out of the visible text.
func extractAnthropic(raw []byte, declared []toolcall.ToolDefinition) (*NormalizedResponse, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal anthropic response: %w", err)
	}

	result := &NormalizedResponse{
		ID:    resp.ID,
		Model: resp.Model,
	}

	if resp.Usage != nil {
		result.Usage = Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
		}
	}

	if len(resp.Content) > 0 {
		extractAnthropicBlocks(resp.Content, result)
		return result, nil
	}

	prose := resp.Generation
	if prose == "" && len(resp.Generations) > 0 {
		prose = resp.Generations[0].Text
	}

	if prose == "" {
		return nil, fmt.Errorf("anthropic response has neither content blocks nor generations")
	}

	if toolcall.ContainsRegion(prose) {
		result.ToolCalls = toolcall.ParseFromText(prose)
		result.Text = toolcall.StripFromText(prose)
	} else {
		result.Text = prose
	}

	return result, nil
}

func extractAnthropicBlocks(blocks []anthropicContent, result *NormalizedResponse) {
	var text strings.Builder

	for _, block := range blocks {
		switch block.Type {
		case "text":
			if block.Text != nil {
				text.WriteString(*block.Text)
			}
		case "tool_use":
			if block.Name == nil || *block.Name == "" {
				continue
			}

			arguments := "{}"
			if len(block.Input) > 0 {
				arguments = string(block.Input)
			}

			id := ""
			if block.ID != nil {
				id = *block.ID
			}

			if id == "" {
				id = toolcall.NewCallID()
			}

			result.ToolCalls = append(result.ToolCalls, toolcall.ToolCall{
				ID:   id,
				Type: toolcall.TypeFunction,
				Function: toolcall.FunctionCall{
					Name:      *block.Name,
					Arguments: arguments,
				},
			})
		}
	}

	result.Text = text.String()
}
