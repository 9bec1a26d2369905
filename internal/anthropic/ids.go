// Package anthropic translates between the canonical OpenAI-shape tool call
// representation and Anthropic's message/content-block protocol.
package anthropic

import (
	"strings"

	"github.com/llmbridge/llmbridge/internal/toolcall"
)

// ToWireID renders a canonical call id with Anthropic's toolu_ prefix. A
// call_ prefix is rewritten, never leaked into an Anthropic-shaped response;
// a leaked call_ id is a known cause of client-library infinite loops.
func ToWireID(id string) string {
	if strings.HasPrefix(id, toolcall.AnthropicIDPrefix) {
		return id
	}

	if rest, ok := strings.CutPrefix(id, toolcall.OpenAIIDPrefix); ok {
		return toolcall.AnthropicIDPrefix + rest
	}

	return toolcall.AnthropicIDPrefix + id
}

// ToCanonicalID maps a wire id back to the canonical call_ prefix, or
// synthesizes one when neither prefix is present.
func ToCanonicalID(id string) string {
	if strings.HasPrefix(id, toolcall.OpenAIIDPrefix) {
		return id
	}

	if rest, ok := strings.CutPrefix(id, toolcall.AnthropicIDPrefix); ok {
		return toolcall.OpenAIIDPrefix + rest
	}

	if id == "" {
		return toolcall.NewCallID()
	}

	return toolcall.OpenAIIDPrefix + id
}
