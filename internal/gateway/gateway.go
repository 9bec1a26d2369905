package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/llmbridge/llmbridge/internal/normalizer"
	"github.com/llmbridge/llmbridge/internal/registry"
	"github.com/llmbridge/llmbridge/internal/toolcall"
)

// Caller performs the single upstream backend call per request. Retry policy,
// if any, belongs to the caller's implementation, not to the pipeline.
type Caller interface {
	Call(ctx context.Context, model string, payload []byte) ([]byte, error)
}

// Request is one canonical (OpenAI-shape) generation request ready for the
// backend.
type Request struct {
	Model   string
	Payload map[string]any
	Tools   []toolcall.ToolDefinition
	Stream  bool
}

// Gateway wires the capability registry, the backend caller, and the
// normalizer into one request-handling path. All components are stateless
// transformations over their inputs; the only shared mutable state is the
// registry's and normalizer's lock-guarded caches.
type Gateway struct {
	registry   *registry.Registry
	normalizer *normalizer.Normalizer
	caller     Caller
	logger     *slog.Logger
}

func New(reg *registry.Registry, caller Caller, logger *slog.Logger) *Gateway {
	return &Gateway{
		registry:   reg,
		normalizer: normalizer.New(),
		caller:     caller,
		logger:     logger,
	}
}

// Registry exposes the capability registry to the hosting handlers.
func (g *Gateway) Registry() *registry.Registry {
	return g.registry
}

// Complete runs one full pipeline pass: resolve the model's capability, call
// the backend once, and normalize the raw reply into canonical form. The
// returned response is already repaired; every tool call in it satisfies the
// strict OpenAI contract.
func (g *Gateway) Complete(ctx context.Context, req Request) (*normalizer.NormalizedResponse, *Error) {
	capability := g.registry.Lookup(req.Model)
	passthrough := g.registry.ShouldUseDirectPassthrough(req.Model, len(req.Tools))

	if _, ok := req.Payload["max_tokens"]; !ok && capability.DefaultMaxTokens > 0 {
		req.Payload["max_tokens"] = capability.DefaultMaxTokens
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, NewError(KindBadRequest, "encode backend payload", err)
	}

	raw, err := g.caller.Call(ctx, req.Model, payload)
	if err != nil {
		return nil, NewError(KindBackendCall, "backend call failed", err)
	}

	result, err := g.normalizer.Normalize(capability.BackendType, raw, req.Tools)
	if err != nil {
		// Normalize already fell back to the generic extractor; reaching
		// this point means even that produced nothing parseable.
		return nil, NewError(KindUnknownBackendShape, "unrecognized backend response shape", err)
	}

	g.logger.Debug("normalized backend response",
		"backend", string(result.Backend),
		"direct_passthrough", passthrough,
		"tool_calls", len(result.ToolCalls),
		"finish_reason", result.FinishReason,
		"processing_ms", result.ProcessingTimeMS,
	)

	return result, nil
}
