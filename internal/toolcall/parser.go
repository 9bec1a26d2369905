package toolcall

import (
	"encoding/json"
	"regexp"
	"strings"
)

// maxRegionBytes limits how much delimited payload the parser will consider.
// Avoids unbounded work on degenerate model output.
const maxRegionBytes = 256 * 1024

// Precompiled at init time, reused for all requests.
var functionCallsRegion = regexp.MustCompile(`(?s)<function_calls>(.*?)</function_calls>`)

// ParseFromText locates the first <function_calls>...</function_calls> region
// in model output and parses its interior as JSON. Both a single object and an
// array of objects are accepted; upstream output is non-deterministic about
// which of the two it emits for a single call. A payload that stays malformed
// after one bounded recovery pass yields an empty slice, never an error.
func ParseFromText(text string) []ToolCall {
	match := functionCallsRegion.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	payload := strings.TrimSpace(match[1])
	if payload == "" || len(payload) > maxRegionBytes {
		return nil
	}

	rawCalls, ok := decodeCallPayload(payload)
	if !ok {
		// One recovery attempt: trim a single stray trailing bracket or comma.
		rawCalls, ok = decodeCallPayload(trimStrayTrailer(payload))
		if !ok {
			return nil
		}
	}

	if len(rawCalls) > MaxCallsPerResponse {
		rawCalls = rawCalls[:MaxCallsPerResponse]
	}

	calls := make([]ToolCall, 0, len(rawCalls))

	for _, raw := range rawCalls {
		if call, ok := compliantCallFromMap(raw); ok {
			calls = append(calls, call)
		}
	}

	return calls
}

// StripFromText removes the first <function_calls> region from the visible
// text, so that prose around an embedded call survives on its own.
func StripFromText(text string) string {
	return strings.TrimSpace(functionCallsRegion.ReplaceAllString(text, ""))
}

// ContainsRegion reports whether text carries a <function_calls> region.
func ContainsRegion(text string) bool {
	return functionCallsRegion.MatchString(text)
}

// decodeCallPayload accepts either one JSON object or a JSON array of objects.
func decodeCallPayload(payload string) ([]map[string]any, bool) {
	trimmed := strings.TrimSpace(payload)

	if strings.HasPrefix(trimmed, "[") {
		var items []any
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, false
		}

		calls := make([]map[string]any, 0, len(items))

		for _, item := range items {
			if obj, ok := item.(map[string]any); ok {
				calls = append(calls, obj)
			}
		}

		return calls, true
	}

	var single map[string]any
	if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
		return nil, false
	}

	return []map[string]any{single}, true
}

// trimStrayTrailer removes one trailing bracket or comma, the two
// malformations seen in practice when a model truncates or duplicates the
// close of a call payload.
func trimStrayTrailer(payload string) string {
	trimmed := strings.TrimSpace(payload)

	for _, suffix := range []string{"]", "}", ","} {
		if strings.HasSuffix(trimmed, suffix) {
			candidate := strings.TrimSpace(strings.TrimSuffix(trimmed, suffix))
			if candidate != "" {
				return candidate
			}
		}
	}

	return trimmed
}

// compliantCallFromMap converts one recovered object into canonical shape:
// fresh id when absent, type forced to "function", arguments serialized to a
// compact JSON string whether the source was a string or an object.
func compliantCallFromMap(raw map[string]any) (ToolCall, bool) {
	name, _ := raw["name"].(string)
	if name == "" {
		if function, ok := raw["function"].(map[string]any); ok {
			name, _ = function["name"].(string)
		}
	}

	name = SanitizeName(name)
	if name == "" {
		return ToolCall{}, false
	}

	arguments := encodeArguments(resolveRawArguments(raw))

	id, _ := raw["id"].(string)
	if id == "" {
		id = NewCallID()
	}

	call := ToolCall{
		ID:   id,
		Type: TypeFunction,
		Function: FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}

	return call, IsCompliant(call)
}

func resolveRawArguments(raw map[string]any) any {
	for _, key := range []string{"arguments", "input", "args", "params"} {
		if value, ok := raw[key]; ok && value != nil {
			return value
		}
	}

	if function, ok := raw["function"].(map[string]any); ok {
		if value, ok := function["arguments"]; ok && value != nil {
			return value
		}
	}

	return map[string]any{}
}

// encodeArguments renders any argument value as a JSON string: already-valid
// JSON strings pass through, other strings are wrapped, everything else is
// marshaled compactly.
func encodeArguments(value any) string {
	switch v := value.(type) {
	case string:
		if IsValidJSON(v) {
			return v
		}

		wrapped, err := CompactJSON(v)
		if err != nil {
			return "{}"
		}

		return wrapped
	default:
		encoded, err := CompactJSON(v)
		if err != nil {
			return "{}"
		}

		return encoded
	}
}
