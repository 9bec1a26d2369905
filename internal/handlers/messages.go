package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/llmbridge/llmbridge/internal/anthropic"
	"github.com/llmbridge/llmbridge/internal/gateway"
	"github.com/llmbridge/llmbridge/internal/metrics"
	"github.com/llmbridge/llmbridge/internal/normalizer"
	"github.com/llmbridge/llmbridge/internal/stream"
	"github.com/llmbridge/llmbridge/internal/toolcall"
)

// MessagesHandler serves POST /v1/messages, the Anthropic surface. The
// request history is reconstructed into canonical shape before the backend
// call so that tool-result continuations survive the round trip.
type MessagesHandler struct {
	gateway   *gateway.Gateway
	collector *metrics.Collector
	logger    *slog.Logger
}

func NewMessagesHandler(gw *gateway.Gateway, collector *metrics.Collector, logger *slog.Logger) *MessagesHandler {
	return &MessagesHandler{
		gateway:   gw,
		collector: collector,
		logger:    logger,
	}
}

func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeGatewayError(w, gateway.NewError(gateway.KindBadRequest, "failed to read request body", err), true, h.logger)
		return
	}

	var request map[string]any
	if err := json.Unmarshal(body, &request); err != nil {
		writeGatewayError(w, gateway.NewError(gateway.KindBadRequest, "request body is not valid JSON", err), true, h.logger)
		return
	}

	model, _ := request["model"].(string)

	var declared []toolcall.ToolDefinition

	if tools, ok := request["tools"].([]any); ok {
		declared, err = toolcall.ValidateDefinitions(tools, toolcall.FormatAnthropic)
		if err != nil {
			var validationErr *toolcall.ValidationError
			if errors.As(err, &validationErr) {
				writeGatewayError(w, gateway.NewError(gateway.KindToolDefinitionValidation, validationErr.Error(), nil), true, h.logger)
				return
			}
		}
	}

	payload, mismatched, err := anthropic.ConvertRequest(request)
	if err != nil {
		writeGatewayError(w, gateway.NewError(gateway.KindBadRequest, "failed to convert request", err), true, h.logger)
		return
	}

	// Mismatched results are forwarded best-effort, never dropped; dropping
	// is what makes agent frameworks loop forever.
	for _, wireID := range mismatched {
		h.logger.Warn("tool_result references unknown tool_use id", "tool_use_id", wireID)
		h.collector.ToolCallsTotal.WithLabelValues("inbound", "result_mismatch").Inc()
	}

	rawMessages, _ := request["messages"].([]any)
	streaming, _ := request["stream"].(bool)
	delete(payload, "stream")

	h.logger.Info("messages request",
		"model", model,
		"tools", len(declared),
		"stream", streaming,
		"tool_continuation", anthropic.IsToolContinuation(rawMessages),
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
		writeGatewayError(w, gwErr, true, h.logger)

		return
	}

	h.collector.BackendCalls.WithLabelValues(string(result.Backend), "ok").Inc()
	h.collector.ToolCallsTotal.WithLabelValues(string(result.Backend), "emitted").Add(float64(len(result.ToolCalls)))

	if streaming {
		h.writeStream(w, result)
		return
	}

	writeJSON(w, http.StatusOK, anthropic.BuildMessage(result))
}

func (h *MessagesHandler) writeStream(w http.ResponseWriter, result *normalizer.NormalizedResponse) {
	setStreamingHeaders(w)
	w.WriteHeader(http.StatusOK)

	for _, event := range stream.AnthropicEvents(result) {
		if _, err := w.Write(event); err != nil {
			h.logger.Error("stream write failed", "error", err)
			w.Write(stream.AnthropicErrorEvent("stream rendering failed"))

			return
		}

		flush(w)
	}
}
