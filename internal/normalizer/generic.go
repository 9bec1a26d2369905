package normalizer

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// genericTextPaths are probed in order for the best-effort fallback. This is
// the only place structural sniffing of unknown JSON is allowed.
var genericTextPaths = []string{
	"generations.0.text",
	"content",
	"text",
	"response",
}

// extractGeneric is the last-resort extractor for unclassified backends. No
// tool-call extraction is attempted.
func extractGeneric(raw []byte) (*NormalizedResponse, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("generic response is not valid JSON")
	}

	parsed := gjson.ParseBytes(raw)
	result := &NormalizedResponse{
		ID:    parsed.Get("id").String(),
		Model: parsed.Get("model").String(),
	}

	for _, path := range genericTextPaths {
		if value := parsed.Get(path); value.Exists() && value.Type == gjson.String {
			result.Text = value.String()
			break
		}
	}

	result.Usage = Usage{
		PromptTokens:     int(parsed.Get("usage.prompt_tokens").Int()),
		CompletionTokens: int(parsed.Get("usage.completion_tokens").Int()),
		TotalTokens:      int(parsed.Get("usage.total_tokens").Int()),
	}

	return result, nil
}
