// Package normalizer converts backend-specific raw responses into one
// canonical intermediate representation with OpenAI-shape tool calls.
package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/llmbridge/llmbridge/internal/registry"
	"github.com/llmbridge/llmbridge/internal/toolcall"
)

const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
	FinishError     = "error"

	// NoContentPlaceholder keeps content present when even the generic
	// extractor yields nothing; downstream consumers never see an absent
	// content field.
	NoContentPlaceholder = "[no content]"

	memoCacheLimit = 256
)

// Usage is the canonical token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NormalizedResponse is the canonical result of processing one backend reply.
// Text carries any prose surrounding the calls; the protocol surfaces enforce
// content/tool_calls exclusivity when assembling the wire message.
type NormalizedResponse struct {
	ID               string
	Model            string
	Text             string
	ToolCalls        []toolcall.ToolCall
	FinishReason     string
	Usage            Usage
	Backend          registry.BackendType
	ProcessingTimeMS int64
}

// Normalizer dispatches raw responses to the extractor selected by backend
// type, then runs the repair shim as the terminal compliance gate. A
// content-keyed memo cache of recent normalizations is kept as an
// optimization; it is never a correctness mechanism.
type Normalizer struct {
	mu   sync.Mutex
	memo map[string]*NormalizedResponse
}

func New() *Normalizer {
	return &Normalizer{
		memo: make(map[string]*NormalizedResponse),
	}
}

// Normalize extracts canonical text and tool calls from one raw backend
// response. Dispatch is by backend type, not by response shape: shape alone is
// ambiguous across providers, and structural sniffing is reserved for the
// documented generic fallback.
func (n *Normalizer) Normalize(backend registry.BackendType, raw []byte, declared []toolcall.ToolDefinition) (*NormalizedResponse, error) {
	start := time.Now()

	key := memoKey(backend, raw, declared)
	if cached := n.lookupMemo(key); cached != nil {
		result := *cached
		result.ProcessingTimeMS = time.Since(start).Milliseconds()

		return &result, nil
	}

	var (
		result *NormalizedResponse
		err    error
	)

	switch backend {
	case registry.BackendOpenAI:
		result, err = extractOpenAI(raw, declared)
	case registry.BackendAnthropic:
		result, err = extractAnthropic(raw, declared)
	case registry.BackendGemini:
		result, err = extractGemini(raw, declared)
	default:
		result, err = extractGeneric(raw)
	}

	effective := backend

	if err != nil {
		// Unknown or unparseable shape: fall back to best-effort generic
		// extraction before giving up.
		if backend != registry.BackendGeneric {
			result, err = extractGeneric(raw)
			effective = registry.BackendGeneric
		}

		if err != nil {
			return nil, fmt.Errorf("normalize %s response: %w", backend, err)
		}
	}

	finalize(result, effective, declared)
	result.ProcessingTimeMS = time.Since(start).Milliseconds()

	n.storeMemo(key, result)

	return result, nil
}

// finalize applies the invariants shared by every extractor: repaired calls,
// derived finish reason, placeholder text, and computed usage totals.
// Upstream-reported stop reasons are not trusted for the finish decision; some
// backends report a generic stop even when a tool was invoked.
func finalize(result *NormalizedResponse, backend registry.BackendType, declared []toolcall.ToolDefinition) {
	result.Backend = backend
	result.ToolCalls = toolcall.RepairTypedCalls(result.ToolCalls, declared)

	if len(result.ToolCalls) > 0 {
		result.FinishReason = FinishToolCalls
	} else {
		result.FinishReason = FinishStop
		if result.Text == "" {
			result.Text = NoContentPlaceholder
		}
	}

	if result.Usage.TotalTokens == 0 && (result.Usage.PromptTokens > 0 || result.Usage.CompletionTokens > 0) {
		result.Usage.TotalTokens = result.Usage.PromptTokens + result.Usage.CompletionTokens
	}
}

func memoKey(backend registry.BackendType, raw []byte, declared []toolcall.ToolDefinition) string {
	hash := sha256.New()
	hash.Write([]byte(backend))
	hash.Write(raw)

	for _, def := range declared {
		hash.Write([]byte(def.Name))
	}

	return hex.EncodeToString(hash.Sum(nil))
}

func (n *Normalizer) lookupMemo(key string) *NormalizedResponse {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.memo[key]
}

func (n *Normalizer) storeMemo(key string, result *NormalizedResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.memo) >= memoCacheLimit {
		n.memo = make(map[string]*NormalizedResponse, memoCacheLimit)
	}

	copied := *result
	n.memo[key] = &copied
}
