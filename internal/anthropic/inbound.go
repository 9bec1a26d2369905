package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/llmbridge/llmbridge/internal/toolcall"
)

// ConvertRequest maps an Anthropic v1 messages request into canonical OpenAI
// chat-completion shape. The multi-turn tool round trip is reconstructed in
// full: an assistant tool_use turn stays an assistant message carrying
// tool_calls, and each tool_result block becomes its own tool-role message.
// Handing the backend anything less makes it re-propose the same tool call
// indefinitely.
func ConvertRequest(request map[string]any) (map[string]any, []string, error) {
	converted := make(map[string]any)

	for _, key := range []string{"model", "temperature", "top_p", "stream"} {
		if value, ok := request[key]; ok {
			converted[key] = value
		}
	}

	if maxTokens, ok := request["max_tokens"]; ok {
		converted["max_tokens"] = maxTokens
	}

	var messages []any

	if system, ok := request["system"]; ok {
		if text := systemText(system); text != "" {
			messages = append(messages, map[string]any{
				"role":    "system",
				"content": text,
			})
		}
	}

	rawMessages, _ := request["messages"].([]any)

	convertedMessages, mismatched := ConvertMessages(rawMessages)
	messages = append(messages, convertedMessages...)
	converted["messages"] = messages

	if tools, ok := request["tools"].([]any); ok && len(tools) > 0 {
		converted["tools"] = ConvertTools(tools)
	}

	return converted, mismatched, nil
}

// ConvertMessages converts the conversation history. The second return value
// lists tool_use ids referenced by a tool_result with no matching prior
// tool_use in this history; those results are still forwarded best-effort,
// since dropping them silently breaks the continuation.
func ConvertMessages(messages []any) ([]any, []string) {
	var (
		converted  []any
		mismatched []string
	)

	knownCallIDs := make(map[string]bool)

	for _, message := range messages {
		msgMap, ok := message.(map[string]any)
		if !ok {
			continue
		}

		role, _ := msgMap["role"].(string)

		switch content := msgMap["content"].(type) {
		case string:
			converted = append(converted, map[string]any{
				"role":    role,
				"content": content,
			})
		case []any:
			if role == "assistant" {
				converted = append(converted, convertAssistantBlocks(content, knownCallIDs))
			} else {
				userMessages, missing := convertUserBlocks(role, content, knownCallIDs)
				converted = append(converted, userMessages...)
				mismatched = append(mismatched, missing...)
			}
		default:
			converted = append(converted, map[string]any{
				"role":    role,
				"content": "",
			})
		}
	}

	return converted, mismatched
}

// convertAssistantBlocks folds an assistant turn's blocks into one message:
// text blocks concatenate into content, tool_use blocks become the tool_calls
// array with arguments re-serialized as JSON strings.
func convertAssistantBlocks(blocks []any, knownCallIDs map[string]bool) map[string]any {
	var (
		text      strings.Builder
		toolCalls []any
	)

	for _, block := range blocks {
		blockMap, ok := block.(map[string]any)
		if !ok {
			continue
		}

		switch blockMap["type"] {
		case "text":
			if t, ok := blockMap["text"].(string); ok {
				text.WriteString(t)
			}
		case "tool_use":
			name, _ := blockMap["name"].(string)
			if name == "" {
				continue
			}

			id, _ := blockMap["id"].(string)
			callID := ToCanonicalID(id)
			knownCallIDs[callID] = true

			arguments := "{}"
			if input := blockMap["input"]; input != nil {
				if encoded, err := toolcall.CompactJSON(input); err == nil {
					arguments = encoded
				}
			}

			toolCalls = append(toolCalls, toolcall.ToolCall{
				ID:   callID,
				Type: toolcall.TypeFunction,
				Function: toolcall.FunctionCall{
					Name:      name,
					Arguments: arguments,
				},
			}.AsMap())
		}
	}

	message := map[string]any{
		"role":    "assistant",
		"content": text.String(),
	}

	if len(toolCalls) > 0 {
		message["tool_calls"] = toolCalls
		message["content"] = ""
	}

	return message
}

// convertUserBlocks splits a user turn into tool-role messages (one per
// tool_result block, in block order) followed by a plain user message for any
// text blocks.
func convertUserBlocks(role string, blocks []any, knownCallIDs map[string]bool) ([]any, []string) {
	var (
		messages   []any
		mismatched []string
		text       strings.Builder
	)

	for _, block := range blocks {
		blockMap, ok := block.(map[string]any)
		if !ok {
			continue
		}

		switch blockMap["type"] {
		case "text":
			if t, ok := blockMap["text"].(string); ok {
				text.WriteString(t)
			}
		case "tool_result":
			wireID, _ := blockMap["tool_use_id"].(string)
			callID := ToCanonicalID(wireID)

			if !knownCallIDs[callID] {
				mismatched = append(mismatched, wireID)
			}

			messages = append(messages, map[string]any{
				"role":         "tool",
				"tool_call_id": callID,
				"content":      resultContentText(blockMap["content"]),
			})
		}
	}

	if text.Len() > 0 || len(messages) == 0 {
		messages = append(messages, map[string]any{
			"role":    role,
			"content": text.String(),
		})
	}

	return messages, mismatched
}

// resultContentText flattens a tool_result content value to a string: plain
// strings pass through, block arrays concatenate their text, anything else is
// re-serialized.
func resultContentText(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		var text strings.Builder

		for _, block := range v {
			if blockMap, ok := block.(map[string]any); ok {
				if t, ok := blockMap["text"].(string); ok {
					text.WriteString(t)
				}
			}
		}

		return text.String()
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	}
}

// ConvertTools maps Anthropic tool definitions to OpenAI function tools.
func ConvertTools(tools []any) []any {
	converted := make([]any, 0, len(tools))

	for _, tool := range tools {
		toolMap, ok := tool.(map[string]any)
		if !ok {
			continue
		}

		// Already OpenAI-shaped.
		if toolType, _ := toolMap["type"].(string); toolType == "function" {
			if _, hasFunction := toolMap["function"]; hasFunction {
				converted = append(converted, tool)
				continue
			}
		}

		name, _ := toolMap["name"].(string)
		if name == "" {
			continue
		}

		function := map[string]any{
			"name": name,
		}

		if description, ok := toolMap["description"].(string); ok {
			function["description"] = description
		}

		if inputSchema, ok := toolMap["input_schema"]; ok {
			function["parameters"] = inputSchema
		}

		converted = append(converted, map[string]any{
			"type":     "function",
			"function": function,
		})
	}

	return converted
}

// IsToolContinuation reports whether the history's final user turn carries a
// tool_result block, i.e. the conversation is resuming after a tool call.
func IsToolContinuation(messages []any) bool {
	for i := len(messages) - 1; i >= 0; i-- {
		msgMap, ok := messages[i].(map[string]any)
		if !ok {
			continue
		}

		if role, _ := msgMap["role"].(string); role != "user" {
			return false
		}

		blocks, ok := msgMap["content"].([]any)
		if !ok {
			return false
		}

		for _, block := range blocks {
			if blockMap, ok := block.(map[string]any); ok {
				if blockMap["type"] == "tool_result" {
					return true
				}
			}
		}

		return false
	}

	return false
}

func systemText(system any) string {
	switch v := system.(type) {
	case string:
		return v
	case []any:
		var text strings.Builder

		for _, block := range v {
			if blockMap, ok := block.(map[string]any); ok {
				if t, ok := blockMap["text"].(string); ok {
					text.WriteString(t)
				}
			}
		}

		return text.String()
	default:
		return ""
	}
}
