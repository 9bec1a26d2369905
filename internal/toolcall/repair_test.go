package toolcall

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairCall_NameResolutionCascade(t *testing.T) {
	declared := []ToolDefinition{{Name: "declared_tool"}}

	tests := []struct {
		name     string
		raw      map[string]any
		declared []ToolDefinition
		want     string
		ok       bool
	}{
		{
			name: "function object wins",
			raw: map[string]any{
				"name":     "flat_name",
				"function": map[string]any{"name": "nested_name"},
			},
			want: "nested_name",
			ok:   true,
		},
		{
			name: "flat name key",
			raw:  map[string]any{"name": "flat_name"},
			want: "flat_name",
			ok:   true,
		},
		{
			name: "tool_name alias",
			raw:  map[string]any{"tool_name": "aliased"},
			want: "aliased",
			ok:   true,
		},
		{
			name: "function_name alias",
			raw:  map[string]any{"function_name": "aliased"},
			want: "aliased",
			ok:   true,
		},
		{
			name:     "single declared tool fallback",
			raw:      map[string]any{"arguments": map[string]any{"q": "x"}},
			declared: declared,
			want:     "declared_tool",
			ok:       true,
		},
		{
			name: "unresolvable without declaration",
			raw:  map[string]any{"arguments": map[string]any{}},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := RepairCall(0, tt.raw, tt.declared)

			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, call.Function.Name)
			}
		})
	}
}

func TestRepairCall_ArgumentsAlwaysValidJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{
			name: "object arguments",
			raw:  map[string]any{"name": "f", "arguments": map[string]any{"x": float64(1)}},
			want: `{"x":1}`,
		},
		{
			name: "input alias",
			raw:  map[string]any{"name": "f", "input": map[string]any{"q": "a"}},
			want: `{"q":"a"}`,
		},
		{
			name: "missing arguments default to empty object",
			raw:  map[string]any{"name": "f"},
			want: "{}",
		},
		{
			name: "non-JSON string wrapped",
			raw:  map[string]any{"name": "f", "arguments": "plain text"},
			want: `"plain text"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := RepairCall(0, tt.raw, nil)

			require.True(t, ok)
			assert.Equal(t, tt.want, call.Function.Arguments)
			assert.True(t, json.Valid([]byte(call.Function.Arguments)))
		})
	}
}

func TestRepairCalls_PerCallIndependence(t *testing.T) {
	candidates := []any{
		map[string]any{"name": "good", "arguments": map[string]any{}},
		map[string]any{"arguments": map[string]any{"orphan": true}},
		map[string]any{"name": "also_good"},
	}

	repaired := RepairCalls(candidates, nil)

	require.Len(t, repaired, 2)
	assert.Equal(t, "good", repaired[0].Function.Name)
	assert.Equal(t, "also_good", repaired[1].Function.Name)
}

func TestRepairMessage_Compliance(t *testing.T) {
	message := map[string]any{
		"role":    "assistant",
		"content": "calling a tool",
		"tool_calls": []any{
			map[string]any{"name": "f", "arguments": map[string]any{"x": float64(1)}},
		},
	}

	repaired := RepairMessage(message, nil)

	assert.Equal(t, "", repaired["content"])

	calls, ok := repaired["tool_calls"].([]any)
	require.True(t, ok)
	require.Len(t, calls, 1)

	call := calls[0].(map[string]any)
	assert.Equal(t, TypeFunction, call["type"])
	assert.NotEmpty(t, call["id"])
}

func TestRepairMessage_AllCallsUnrecoverable(t *testing.T) {
	message := map[string]any{
		"role":       "assistant",
		"tool_calls": []any{map[string]any{"arguments": map[string]any{}}},
	}

	repaired := RepairMessage(message, nil)

	_, hasCalls := repaired["tool_calls"]
	assert.False(t, hasCalls)
	assert.Equal(t, UnrecoverablePlaceholder, repaired["content"])
}

func TestRepairMessage_NoToolCallsUntouched(t *testing.T) {
	message := map[string]any{
		"role":    "assistant",
		"content": "plain answer",
	}

	repaired := RepairMessage(message, nil)

	assert.Equal(t, message, repaired)
}

func TestRepairMessage_Idempotent(t *testing.T) {
	message := map[string]any{
		"role":    "assistant",
		"content": "text",
		"tool_calls": []any{
			map[string]any{"tool_name": "f", "input": map[string]any{"k": "v"}},
		},
	}

	once := RepairMessage(message, nil)
	twice := RepairMessage(once, nil)

	assert.Equal(t, once, twice)
}

func TestRepairMessage_SingleDeclaredToolScenario(t *testing.T) {
	declared := []ToolDefinition{{Name: "only_tool"}}
	message := map[string]any{
		"role": "assistant",
		"tool_calls": []any{
			map[string]any{"id": "call_1", "type": "function"},
		},
	}

	repaired := RepairMessage(message, declared)

	calls, ok := repaired["tool_calls"].([]any)
	require.True(t, ok)
	require.Len(t, calls, 1)

	call := calls[0].(map[string]any)
	assert.Equal(t, "call_1", call["id"])

	function := call["function"].(map[string]any)
	assert.Equal(t, "only_tool", function["name"])
	assert.Equal(t, "{}", function["arguments"])
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Google_Search", SanitizeName("Google_Search"))
	assert.Equal(t, "getweather", SanitizeName("get weather!"))
	assert.Equal(t, "", SanitizeName("   "))
	assert.Len(t, SanitizeName(strings.Repeat("a", 200)), MaxNameLength)
}

func TestDeterministicCallID_StableAcrossRuns(t *testing.T) {
	first := DeterministicCallID(0, "f", "{}")
	second := DeterministicCallID(0, "f", "{}")
	other := DeterministicCallID(1, "f", "{}")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Contains(t, first, OpenAIIDPrefix)
}
