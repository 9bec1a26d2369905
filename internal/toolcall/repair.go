package toolcall

import (
	"maps"
)

// UnrecoverablePlaceholder replaces the message content when every candidate
// call in a response failed to resolve a function name. An empty-but-present
// tool_calls array is itself a contract violation, so the whole array is
// dropped instead.
const UnrecoverablePlaceholder = "[tool call could not be recovered: the model emitted a function invocation without a resolvable name]"

// nameKeys and argumentKeys are the ordered resolution cascades applied to
// each candidate call. Earlier keys are the shapes emitted by compliant
// backends, later ones the shapes seen in degraded output.
var (
	nameKeys     = []string{"name", "tool_name", "function_name"}
	argumentKeys = []string{"arguments", "input", "params"}
)

// RepairCall resolves one candidate call into canonical compliant form.
// Returns false when no function name can be resolved; such calls are dropped
// rather than passed through with an empty name.
func RepairCall(index int, raw map[string]any, declared []ToolDefinition) (ToolCall, bool) {
	function, _ := raw["function"].(map[string]any)

	name := resolveName(raw, function, declared)
	if name == "" {
		return ToolCall{}, false
	}

	arguments := encodeArguments(resolveArguments(raw, function))

	id, _ := raw["id"].(string)
	if id == "" {
		id = DeterministicCallID(index, name, arguments)
	}

	return ToolCall{
		ID:   id,
		Type: TypeFunction,
		Function: FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}, true
}

// RepairCalls repairs each candidate independently: a call is resolved or
// dropped on its own, never as a batch.
func RepairCalls(candidates []any, declared []ToolDefinition) []ToolCall {
	if len(candidates) > MaxCallsPerResponse {
		candidates = candidates[:MaxCallsPerResponse]
	}

	repaired := make([]ToolCall, 0, len(candidates))

	for i, candidate := range candidates {
		raw, ok := candidate.(map[string]any)
		if !ok {
			continue
		}

		if call, ok := RepairCall(i, raw, declared); ok {
			repaired = append(repaired, call)
		}
	}

	return repaired
}

// RepairTypedCalls runs the repair pass over already-typed calls, used by the
// normalizer as its terminal compliance gate.
func RepairTypedCalls(calls []ToolCall, declared []ToolDefinition) []ToolCall {
	candidates := make([]any, 0, len(calls))
	for _, call := range calls {
		candidates = append(candidates, call.AsMap())
	}

	return RepairCalls(candidates, declared)
}

// RepairMessage is the terminal compliance gate over an OpenAI-shape assistant
// message. Messages without a tool_calls key pass through untouched. When
// repaired calls remain, content is forced to an empty string (never null);
// when every call was unrecoverable, tool_calls is dropped entirely and
// content degrades to a diagnostic placeholder. The pass is idempotent.
func RepairMessage(message map[string]any, declared []ToolDefinition) map[string]any {
	repairedMsg := make(map[string]any, len(message))
	maps.Copy(repairedMsg, message)

	rawCalls, hasCalls := message["tool_calls"].([]any)
	if !hasCalls {
		return repairedMsg
	}

	repaired := RepairCalls(rawCalls, declared)

	if len(repaired) == 0 {
		delete(repairedMsg, "tool_calls")

		content, _ := repairedMsg["content"].(string)
		if content == "" {
			repairedMsg["content"] = UnrecoverablePlaceholder
		}

		return repairedMsg
	}

	calls := make([]any, 0, len(repaired))
	for _, call := range repaired {
		calls = append(calls, call.AsMap())
	}

	repairedMsg["tool_calls"] = calls
	repairedMsg["content"] = ""

	return repairedMsg
}

func resolveName(raw, function map[string]any, declared []ToolDefinition) string {
	if function != nil {
		if name, _ := function["name"].(string); SanitizeName(name) != "" {
			return SanitizeName(name)
		}
	}

	for _, key := range nameKeys {
		if name, _ := raw[key].(string); SanitizeName(name) != "" {
			return SanitizeName(name)
		}
	}

	// Last resort: a request that declared exactly one tool leaves no
	// ambiguity about which function was meant.
	if len(declared) == 1 {
		return declared[0].Name
	}

	return ""
}

func resolveArguments(raw, function map[string]any) any {
	if function != nil {
		if value, ok := function["arguments"]; ok && value != nil {
			return value
		}
	}

	for _, key := range argumentKeys {
		if value, ok := raw[key]; ok && value != nil {
			return value
		}
	}

	return map[string]any{}
}
