package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/llmbridge/llmbridge/internal/gateway"
	"github.com/llmbridge/llmbridge/internal/metrics"
	"github.com/llmbridge/llmbridge/internal/normalizer"
	"github.com/llmbridge/llmbridge/internal/stream"
	"github.com/llmbridge/llmbridge/internal/toolcall"
)

// ChatHandler serves POST /v1/chat/completions, the OpenAI surface.
type ChatHandler struct {
	gateway   *gateway.Gateway
	collector *metrics.Collector
	logger    *slog.Logger
}

func NewChatHandler(gw *gateway.Gateway, collector *metrics.Collector, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		gateway:   gw,
		collector: collector,
		logger:    logger,
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeGatewayError(w, gateway.NewError(gateway.KindBadRequest, "failed to read request body", err), false, h.logger)
		return
	}

	var request map[string]any
	if err := json.Unmarshal(body, &request); err != nil {
		writeGatewayError(w, gateway.NewError(gateway.KindBadRequest, "request body is not valid JSON", err), false, h.logger)
		return
	}

	model, _ := request["model"].(string)

	var declared []toolcall.ToolDefinition

	if tools, ok := request["tools"].([]any); ok {
		declared, err = toolcall.ValidateDefinitions(tools, toolcall.FormatOpenAI)
		if err != nil {
			var validationErr *toolcall.ValidationError
			if errors.As(err, &validationErr) {
				writeGatewayError(w, gateway.NewError(gateway.KindToolDefinitionValidation, validationErr.Error(), nil), false, h.logger)
				return
			}
		}
	}

	streaming, _ := request["stream"].(bool)

	payload := make(map[string]any, len(request))
	maps.Copy(payload, request)
	delete(payload, "stream")

	h.logger.Info("chat completion request",
		"model", model,
		"tools", len(declared),
		"stream", streaming,
		"input_tokens", countInputTokens(string(body), h.logger),
	)

	result, gwErr := h.gateway.Complete(r.Context(), gateway.Request{
		Model:   model,
		Payload: payload,
		Tools:   declared,
		Stream:  streaming,
	})
	if gwErr != nil {
		h.collector.BackendCalls.WithLabelValues("unknown", "error").Inc()
		writeGatewayError(w, gwErr, false, h.logger)

		return
	}

	h.collector.BackendCalls.WithLabelValues(string(result.Backend), "ok").Inc()
	h.collector.ToolCallsTotal.WithLabelValues(string(result.Backend), "emitted").Add(float64(len(result.ToolCalls)))

	if streaming {
		h.writeStream(w, result)
		return
	}

	writeJSON(w, http.StatusOK, buildChatCompletion(result, declared))
}

func (h *ChatHandler) writeStream(w http.ResponseWriter, result *normalizer.NormalizedResponse) {
	setStreamingHeaders(w)
	w.WriteHeader(http.StatusOK)

	for _, chunk := range stream.OpenAIChunks(result) {
		if _, err := w.Write(chunk); err != nil {
			h.logger.Error("stream write failed", "error", err)
			w.Write(stream.OpenAIErrorEvent("stream rendering failed"))

			return
		}

		flush(w)
	}
}

// buildChatCompletion renders the non-streaming OpenAI document. The repair
// shim runs once more over the assembled message as the terminal compliance
// gate; the pass is idempotent, so an already-clean message is unchanged.
func buildChatCompletion(result *normalizer.NormalizedResponse, declared []toolcall.ToolDefinition) map[string]any {
	message := map[string]any{
		"role":    "assistant",
		"content": result.Text,
	}

	if len(result.ToolCalls) > 0 {
		calls := make([]any, 0, len(result.ToolCalls))
		for _, call := range result.ToolCalls {
			calls = append(calls, call.AsMap())
		}

		message["tool_calls"] = calls
		message["content"] = ""
	}

	message = toolcall.RepairMessage(message, declared)

	finishReason := result.FinishReason
	if _, hasCalls := message["tool_calls"]; !hasCalls && finishReason == normalizer.FinishToolCalls {
		finishReason = normalizer.FinishStop
	}

	id := result.ID
	if id == "" {
		id = stream.NewCompletionID()
	}

	return map[string]any{
		"id":      id,
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   result.Model,
		"choices": []any{
			map[string]any{
				"index":         0,
				"message":       message,
				"finish_reason": finishReason,
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     result.Usage.PromptTokens,
			"completion_tokens": result.Usage.CompletionTokens,
			"total_tokens":      result.Usage.TotalTokens,
		},
	}
}
