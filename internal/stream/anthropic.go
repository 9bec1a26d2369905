// Package stream renders completed normalized responses as ordered
// protocol-specific streaming event sequences.
package stream

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/llmbridge/llmbridge/internal/anthropic"
	"github.com/llmbridge/llmbridge/internal/normalizer"
)

// wordsPerDelta is the fixed word-count window used to chunk text deltas.
// Chunking on word boundaries keeps every delta payload valid UTF-8; a byte
// window could split a multi-byte character.
const wordsPerDelta = 12

// FormatSSE renders one SSE event in Anthropic's "event:"+"data:" framing.
func FormatSSE(eventType string, data any) []byte {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return []byte("event: error\ndata: {\"error\":\"failed to marshal data\"}\n\n")
	}

	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, string(jsonData)))
}

// AnthropicEvents renders the strict Anthropic SSE sequence for a completed
// response: message_start, content_block_start, one or more
// content_block_delta, content_block_stop, message_delta, message_stop. None
// are omitted even for empty content.
func AnthropicEvents(result *normalizer.NormalizedResponse) [][]byte {
	msg := anthropic.BuildMessage(result)

	var events [][]byte

	events = append(events, FormatSSE("message_start", map[string]any{
		"type": "message_start",
		"message": map[string]any{
			"id":            msg.ID,
			"type":          "message",
			"role":          "assistant",
			"model":         msg.Model,
			"content":       []any{},
			"stop_reason":   nil,
			"stop_sequence": nil,
			"usage": map[string]any{
				"input_tokens":  msg.Usage.InputTokens,
				"output_tokens": 0,
			},
		},
	}))

	events = append(events, FormatSSE("content_block_start", map[string]any{
		"type":  "content_block_start",
		"index": 0,
		"content_block": map[string]any{
			"type": "text",
			"text": "",
		},
	}))

	for _, chunk := range chunkByWords(result.Text, wordsPerDelta) {
		events = append(events, FormatSSE("content_block_delta", map[string]any{
			"type":  "content_block_delta",
			"index": 0,
			"delta": map[string]any{
				"type": "text_delta",
				"text": chunk,
			},
		}))
	}

	events = append(events, FormatSSE("content_block_stop", map[string]any{
		"type":  "content_block_stop",
		"index": 0,
	}))

	events = append(events, toolUseBlockEvents(result)...)

	events = append(events, FormatSSE("message_delta", map[string]any{
		"type": "message_delta",
		"delta": map[string]any{
			"stop_reason":   msg.StopReason,
			"stop_sequence": nil,
		},
		"usage": map[string]any{
			"output_tokens": msg.Usage.OutputTokens,
		},
	}))

	events = append(events, FormatSSE("message_stop", map[string]any{
		"type": "message_stop",
	}))

	return events
}

// toolUseBlockEvents emits one tool_use content block per canonical call,
// each carrying the full input as a single input_json_delta.
func toolUseBlockEvents(result *normalizer.NormalizedResponse) [][]byte {
	var events [][]byte

	for i, call := range result.ToolCalls {
		index := i + 1

		events = append(events, FormatSSE("content_block_start", map[string]any{
			"type":  "content_block_start",
			"index": index,
			"content_block": map[string]any{
				"type":  "tool_use",
				"id":    anthropic.ToWireID(call.ID),
				"name":  call.Function.Name,
				"input": map[string]any{},
			},
		}))

		events = append(events, FormatSSE("content_block_delta", map[string]any{
			"type":  "content_block_delta",
			"index": index,
			"delta": map[string]any{
				"type":         "input_json_delta",
				"partial_json": call.Function.Arguments,
			},
		}))

		events = append(events, FormatSSE("content_block_stop", map[string]any{
			"type":  "content_block_stop",
			"index": index,
		}))
	}

	return events
}

// AnthropicErrorEvent is emitted once when rendering fails mid-stream; the
// stream terminates right after instead of truncating silently.
func AnthropicErrorEvent(message string) []byte {
	return FormatSSE("error", map[string]any{
		"type": "error",
		"error": map[string]any{
			"type":    "api_error",
			"message": message,
		},
	})
}

// chunkByWords splits text into groups of n whitespace-delimited words,
// preserving the original spacing. Empty text yields a single empty chunk so
// the delta sequence is never empty.
func chunkByWords(text string, n int) []string {
	if text == "" {
		return []string{""}
	}

	words := strings.SplitAfter(text, " ")
	chunks := make([]string, 0, len(words)/n+1)

	for start := 0; start < len(words); start += n {
		end := start + n
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, strings.Join(words[start:end], ""))
	}

	return chunks
}
