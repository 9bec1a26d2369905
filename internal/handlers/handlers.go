// Package handlers hosts the gateway's two protocol surfaces: OpenAI chat
// completions and Anthropic messages.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pkoukk/tiktoken-go"

	"github.com/llmbridge/llmbridge/internal/gateway"
)

func writeJSON(w http.ResponseWriter, status int, doc any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(doc)
}

func writeGatewayError(w http.ResponseWriter, gwErr *gateway.Error, anthropicSurface bool, logger *slog.Logger) {
	status := gateway.HTTPStatus(gwErr.Kind)
	logger.Error("request failed", "kind", string(gwErr.Kind), "error", gwErr)

	if anthropicSurface {
		writeJSON(w, status, gateway.AnthropicErrorDoc(gwErr.Kind, gwErr.Message))
	} else {
		writeJSON(w, status, gateway.OpenAIErrorDoc(gwErr.Kind, gwErr.Message))
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func setStreamingHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// countInputTokens estimates request size with the cl100k_base encoding.
// Logged alongside each request; failures degrade to zero.
func countInputTokens(text string, logger *slog.Logger) int {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Error("failed to get tiktoken encoding", "error", err)
		return 0
	}

	return len(encoding.Encode(text, nil, nil))
}
