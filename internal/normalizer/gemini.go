package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/llmbridge/llmbridge/internal/toolcall"
)

// Gemini (Vertex) response structures.
type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates,omitempty"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string               `json:"modelVersion,omitempty"`
	ResponseID    string               `json:"responseId,omitempty"`
}

type geminiCandidate struct {
	Content      *geminiContent `json:"content,omitempty"`
	FinishReason string         `json:"finishReason,omitempty"`
	Index        int            `json:"index,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts,omitempty"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}

// extractGemini concatenates text parts and converts each functionCall part
// into one canonical call.
func extractGemini(raw []byte, declared []toolcall.ToolDefinition) (*NormalizedResponse, error) {
	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal gemini response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in gemini response")
	}

	result := &NormalizedResponse{
		ID:    resp.ResponseID,
		Model: resp.ModelVersion,
	}

	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return result, nil
	}

	var text strings.Builder

	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}

		if part.FunctionCall != nil && part.FunctionCall.Name != "" {
			arguments := "{}"
			if part.FunctionCall.Args != nil {
				if encoded, err := toolcall.CompactJSON(part.FunctionCall.Args); err == nil {
					arguments = encoded
				}
			}

			result.ToolCalls = append(result.ToolCalls, toolcall.ToolCall{
				ID:   toolcall.NewCallID(),
				Type: toolcall.TypeFunction,
				Function: toolcall.FunctionCall{
					Name:      part.FunctionCall.Name,
					Arguments: arguments,
				},
			})
		}
	}

	result.Text = text.String()

	return result, nil
}
