package toolcall

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// TypeFunction is the only tool call type in the canonical (OpenAI-shape) form.
	TypeFunction = "function"

	// MaxNameLength caps sanitized function names per the OpenAI contract.
	MaxNameLength = 64

	// MaxCallsPerResponse bounds how many calls one response may carry.
	MaxCallsPerResponse = 32

	// OpenAIIDPrefix and AnthropicIDPrefix are the provider-specific id prefixes.
	OpenAIIDPrefix    = "call_"
	AnthropicIDPrefix = "toolu_"
)

// ToolCall is the canonical OpenAI-shape tool invocation.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and JSON-encoded arguments.
// Arguments is always a JSON string in canonical form, never a bare object.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition is a client-declared function contract in canonical form.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

var nameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeName strips characters outside [A-Za-z0-9_-] and truncates to
// MaxNameLength.
func SanitizeName(name string) string {
	sanitized := nameSanitizer.ReplaceAllString(name, "")
	if len(sanitized) > MaxNameLength {
		sanitized = sanitized[:MaxNameLength]
	}

	return sanitized
}

// NewCallID returns a fresh canonical tool call id.
func NewCallID() string {
	return OpenAIIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// DeterministicCallID derives a stable id from the call's position and content,
// used when repairing calls that arrived without one.
func DeterministicCallID(index int, name, arguments string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s:%s", index, name, arguments)))

	return fmt.Sprintf("%s%d_%s", OpenAIIDPrefix, index, hex.EncodeToString(sum[:8]))
}

// CompactJSON serializes v as compact JSON without HTML escaping, matching the
// wire form strict clients expect for arguments.
func CompactJSON(v any) (string, error) {
	var sb strings.Builder

	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return "", err
	}

	// Encoder appends a newline.
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

// IsValidJSON reports whether s parses as JSON.
func IsValidJSON(s string) bool {
	return json.Valid([]byte(s))
}

// IsCompliant is the structural check shared by the parser, the repair shim,
// and the tests: id present, type "function", non-empty name, and arguments
// that parse as JSON.
func IsCompliant(call ToolCall) bool {
	if call.ID == "" || call.Type != TypeFunction {
		return false
	}

	if call.Function.Name == "" {
		return false
	}

	return IsValidJSON(call.Function.Arguments)
}

// AsMap renders the call in the generic map shape used when splicing tool
// calls into map-based message transformations.
func (c ToolCall) AsMap() map[string]any {
	return map[string]any{
		"id":   c.ID,
		"type": c.Type,
		"function": map[string]any{
			"name":      c.Function.Name,
			"arguments": c.Function.Arguments,
		},
	}
}

// ArgumentsMap parses the call's arguments string into a map. Tool calls with
// non-object arguments yield an empty map.
func (c ToolCall) ArgumentsMap() map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(c.Function.Arguments), &args); err != nil || args == nil {
		return map[string]any{}
	}

	return args
}
