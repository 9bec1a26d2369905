package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_PatternMatching(t *testing.T) {
	r := New(nil)

	tests := []struct {
		model string
		want  BackendType
	}{
		{"gpt-4o", BackendOpenAI},
		{"o3-mini", BackendOpenAI},
		{"claude-sonnet-4", BackendAnthropic},
		{"anthropic.claude-v2", BackendAnthropic},
		{"gemini-2.0-flash", BackendGemini},
		{"vertex-custom", BackendGemini},
		{"mistral-large", BackendGeneric},
		{"", BackendGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Lookup(tt.model).BackendType)
		})
	}
}

func TestLookup_CaseAndWhitespaceInsensitive(t *testing.T) {
	r := New(nil)

	assert.Equal(t, BackendAnthropic, r.Lookup("  Claude-Opus-4 ").BackendType)
	assert.Equal(t, BackendOpenAI, r.Lookup("GPT-4").BackendType)
}

func TestLookup_OverridesTakePrecedence(t *testing.T) {
	r := New(map[string]ModelCapability{
		"gpt-4o-mimic": {BackendType: BackendGeneric, RequiresNormalization: true},
	})

	assert.Equal(t, BackendGeneric, r.Lookup("gpt-4o-mimic").BackendType)
	assert.Equal(t, BackendOpenAI, r.Lookup("gpt-4o").BackendType)
}

func TestLookup_ConcurrentFirstLookups(t *testing.T) {
	r := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, BackendGemini, r.Lookup("gemini-pro").BackendType)
		}()
	}
	wg.Wait()
}

func TestShouldUseDirectPassthrough(t *testing.T) {
	r := New(nil)

	assert.True(t, r.ShouldUseDirectPassthrough("gpt-4o", 2))
	assert.False(t, r.ShouldUseDirectPassthrough("gpt-4o", 0))
	assert.False(t, r.ShouldUseDirectPassthrough("claude-sonnet-4", 2))
	assert.False(t, r.ShouldUseDirectPassthrough("unknown-model", 2))
}

func TestLookup_DefaultMaxTokens(t *testing.T) {
	r := New(nil)

	assert.Equal(t, 4096, r.Lookup("gpt-4o").DefaultMaxTokens)
	assert.Equal(t, 8192, r.Lookup("claude-sonnet-4").DefaultMaxTokens)
	assert.Equal(t, 4096, r.Lookup("totally-unknown").DefaultMaxTokens)
}
