package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/llmbridge/llmbridge/internal/normalizer"
)

// DoneLine is the literal OpenAI stream terminator.
const DoneLine = "data: [DONE]\n\n"

// NewCompletionID synthesizes an id for responses whose backend supplied none.
func NewCompletionID() string {
	return fmt.Sprintf("chatcmpl-%d", time.Now().UnixNano())
}

// formatDataLine renders one OpenAI SSE data line (no event: prefix).
func formatDataLine(data any) []byte {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return []byte("data: {\"error\":{\"type\":\"api_error\",\"message\":\"failed to marshal data\"}}\n\n")
	}

	return []byte(fmt.Sprintf("data: %s\n\n", string(jsonData)))
}

// OpenAIChunks renders the OpenAI chat.completion.chunk sequence: a role
// delta, content deltas (or tool_calls deltas carrying the complete call in a
// single chunk), a finish chunk with an empty delta, and the [DONE] literal.
func OpenAIChunks(result *normalizer.NormalizedResponse) [][]byte {
	id := result.ID
	if id == "" {
		id = NewCompletionID()
	}

	created := time.Now().Unix()

	chunk := func(delta map[string]any, finishReason any) []byte {
		return formatDataLine(map[string]any{
			"id":      id,
			"object":  "chat.completion.chunk",
			"created": created,
			"model":   result.Model,
			"choices": []any{
				map[string]any{
					"index":         0,
					"delta":         delta,
					"finish_reason": finishReason,
				},
			},
		})
	}

	var chunks [][]byte

	chunks = append(chunks, chunk(map[string]any{"role": "assistant"}, nil))

	if len(result.ToolCalls) > 0 {
		deltaCalls := make([]any, 0, len(result.ToolCalls))

		for i, call := range result.ToolCalls {
			deltaCalls = append(deltaCalls, map[string]any{
				"index": i,
				"id":    call.ID,
				"type":  call.Type,
				"function": map[string]any{
					"name":      call.Function.Name,
					"arguments": call.Function.Arguments,
				},
			})
		}

		chunks = append(chunks, chunk(map[string]any{"tool_calls": deltaCalls}, nil))
	} else {
		for _, piece := range chunkByWords(result.Text, wordsPerDelta) {
			chunks = append(chunks, chunk(map[string]any{"content": piece}, nil))
		}
	}

	chunks = append(chunks, chunk(map[string]any{}, result.FinishReason))
	chunks = append(chunks, []byte(DoneLine))

	return chunks
}

// OpenAIErrorEvent terminates an OpenAI stream after a mid-stream failure.
func OpenAIErrorEvent(message string) []byte {
	return formatDataLine(map[string]any{
		"error": map[string]any{
			"type":    "api_error",
			"message": message,
		},
	})
}
