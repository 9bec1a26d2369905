// Package registry maps model identifiers to backend families and their
// capability sets.
package registry

import (
	"strings"
	"sync"
)

// BackendType identifies which extractor family handles a model's responses.
type BackendType string

const (
	BackendOpenAI    BackendType = "openai_native"
	BackendAnthropic BackendType = "anthropic_bedrock"
	BackendGemini    BackendType = "vertex_gemini"
	BackendGeneric   BackendType = "generic"
)

// ModelCapability describes one backend/model family. Entries are loaded at
// process start and read-only thereafter.
type ModelCapability struct {
	BackendType             BackendType
	SupportsNativeToolCalls bool
	RequiresNormalization   bool
	DefaultMaxTokens        int
}

// Pattern pairs a case-insensitive model-name fragment with its capability.
type Pattern struct {
	Match      string
	Capability ModelCapability
}

// DefaultPatterns is the built-in pattern table, scanned in order for the
// first prefix or substring match.
var DefaultPatterns = []Pattern{
	{Match: "gpt-", Capability: ModelCapability{BackendType: BackendOpenAI, SupportsNativeToolCalls: true, DefaultMaxTokens: 4096}},
	{Match: "o1-", Capability: ModelCapability{BackendType: BackendOpenAI, SupportsNativeToolCalls: true, DefaultMaxTokens: 4096}},
	{Match: "o3-", Capability: ModelCapability{BackendType: BackendOpenAI, SupportsNativeToolCalls: true, DefaultMaxTokens: 4096}},
	{Match: "o4-", Capability: ModelCapability{BackendType: BackendOpenAI, SupportsNativeToolCalls: true, DefaultMaxTokens: 4096}},
	{Match: "claude", Capability: ModelCapability{BackendType: BackendAnthropic, SupportsNativeToolCalls: true, RequiresNormalization: true, DefaultMaxTokens: 8192}},
	{Match: "anthropic", Capability: ModelCapability{BackendType: BackendAnthropic, SupportsNativeToolCalls: true, RequiresNormalization: true, DefaultMaxTokens: 8192}},
	{Match: "gemini", Capability: ModelCapability{BackendType: BackendGemini, SupportsNativeToolCalls: true, RequiresNormalization: true, DefaultMaxTokens: 8192}},
	{Match: "vertex", Capability: ModelCapability{BackendType: BackendGemini, SupportsNativeToolCalls: true, RequiresNormalization: true, DefaultMaxTokens: 8192}},
}

var genericCapability = ModelCapability{
	BackendType:           BackendGeneric,
	RequiresNormalization: true,
	DefaultMaxTokens:      4096,
}

// Registry resolves model strings to capabilities. Lookups are cached per
// exact model string for the process lifetime; the underlying pattern table is
// static configuration, so the cache is never invalidated.
type Registry struct {
	patterns  []Pattern
	overrides map[string]ModelCapability

	mu    sync.RWMutex
	cache map[string]ModelCapability
}

// New builds a registry from the built-in pattern table plus exact-string
// overrides, which take precedence over pattern matches.
func New(overrides map[string]ModelCapability) *Registry {
	r := &Registry{
		patterns:  DefaultPatterns,
		overrides: make(map[string]ModelCapability, len(overrides)),
		cache:     make(map[string]ModelCapability),
	}

	for model, capability := range overrides {
		r.overrides[strings.ToLower(model)] = capability
	}

	return r
}

// Lookup returns the capability for the given model string. Unmatched models
// fall back to the generic capability.
func (r *Registry) Lookup(model string) ModelCapability {
	key := strings.ToLower(strings.TrimSpace(model))

	r.mu.RLock()
	capability, cached := r.cache[key]
	r.mu.RUnlock()

	if cached {
		return capability
	}

	capability = r.resolve(key)

	// Two concurrent first-lookups may both resolve; they compute the same
	// value, so last-write-wins is fine.
	r.mu.Lock()
	r.cache[key] = capability
	r.mu.Unlock()

	return capability
}

func (r *Registry) resolve(model string) ModelCapability {
	if capability, ok := r.overrides[model]; ok {
		return capability
	}

	for _, pattern := range r.patterns {
		if strings.HasPrefix(model, pattern.Match) || strings.Contains(model, pattern.Match) {
			return pattern.Capability
		}
	}

	return genericCapability
}

// ShouldUseDirectPassthrough reports whether tool handling can skip the
// normalization pipeline: only when the model natively speaks OpenAI tool
// calls and the caller actually declared tools.
func (r *Registry) ShouldUseDirectPassthrough(model string, toolCount int) bool {
	capability := r.Lookup(model)

	return capability.SupportsNativeToolCalls &&
		!capability.RequiresNormalization &&
		toolCount > 0
}
