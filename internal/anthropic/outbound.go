package anthropic

import (
	"fmt"
	"time"

	"github.com/llmbridge/llmbridge/internal/normalizer"
)

const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// Message is the Anthropic v1 messages response shape.
type Message struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      UsageBlock     `json:"usage"`
}

// ContentBlock is one unit of Anthropic message content.
type ContentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

type UsageBlock struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// BuildMessage renders a normalized response as an Anthropic message. Each
// canonical tool call becomes a tool_use block whose input is the parsed
// argument object, not a JSON string; that inversion relative to OpenAI is
// the most common conversion mistake. stop_reason is tool_use whenever any
// tool_use block is present.
func BuildMessage(result *normalizer.NormalizedResponse) Message {
	msg := Message{
		ID:         result.ID,
		Type:       "message",
		Role:       "assistant",
		Model:      result.Model,
		StopReason: StopEndTurn,
		Usage: UsageBlock{
			InputTokens:  result.Usage.PromptTokens,
			OutputTokens: result.Usage.CompletionTokens,
		},
	}

	if msg.ID == "" {
		msg.ID = fmt.Sprintf("msg_%d", time.Now().UnixNano())
	}

	if result.Text != "" {
		msg.Content = append(msg.Content, ContentBlock{
			Type: "text",
			Text: result.Text,
		})
	}

	for _, call := range result.ToolCalls {
		msg.Content = append(msg.Content, ContentBlock{
			Type:  "tool_use",
			ID:    ToWireID(call.ID),
			Name:  call.Function.Name,
			Input: call.ArgumentsMap(),
		})
	}

	if len(result.ToolCalls) > 0 {
		msg.StopReason = StopToolUse
	}

	if len(msg.Content) == 0 {
		msg.Content = append(msg.Content, ContentBlock{
			Type: "text",
			Text: "",
		})
	}

	return msg
}
