package toolcall

import (
	"fmt"
	"strings"
)

// DefinitionFormat selects which wire shape tool definitions arrive in.
type DefinitionFormat string

const (
	FormatOpenAI    DefinitionFormat = "openai"
	FormatAnthropic DefinitionFormat = "anthropic"
)

// ValidationError aggregates every violation found across a request's tool
// definitions, not just the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid tool definitions: %s", strings.Join(e.Violations, "; "))
}

var schemaTypes = map[string]bool{
	"object":  true,
	"array":   true,
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"null":    true,
}

// ValidateDefinitions checks client-supplied tool definitions against the
// requested format and returns them in canonical form. A non-nil error is
// always a *ValidationError listing every violation.
func ValidateDefinitions(tools []any, format DefinitionFormat) ([]ToolDefinition, error) {
	var (
		defs       []ToolDefinition
		violations []string
	)

	for i, tool := range tools {
		toolMap, ok := tool.(map[string]any)
		if !ok {
			violations = append(violations, fmt.Sprintf("tool %d: not an object", i))
			continue
		}

		var def ToolDefinition

		switch format {
		case FormatOpenAI:
			def, violations = validateOpenAIDefinition(i, toolMap, violations)
		case FormatAnthropic:
			def, violations = validateAnthropicDefinition(i, toolMap, violations)
		default:
			violations = append(violations, fmt.Sprintf("tool %d: unknown format %q", i, format))
			continue
		}

		if def.Name != "" {
			violations = validateSchema(def.Name, def.Parameters, violations)
			defs = append(defs, def)
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	return defs, nil
}

func validateOpenAIDefinition(index int, tool map[string]any, violations []string) (ToolDefinition, []string) {
	var def ToolDefinition

	if toolType, _ := tool["type"].(string); toolType != TypeFunction {
		violations = append(violations, fmt.Sprintf("tool %d: type must be %q", index, TypeFunction))
		return def, violations
	}

	function, ok := tool["function"].(map[string]any)
	if !ok {
		violations = append(violations, fmt.Sprintf("tool %d: missing function object", index))
		return def, violations
	}

	name, _ := function["name"].(string)
	if SanitizeName(name) == "" {
		violations = append(violations, fmt.Sprintf("tool %d: function.name is empty", index))
		return def, violations
	}

	def.Name = SanitizeName(name)
	def.Description, _ = function["description"].(string)
	def.Parameters, _ = function["parameters"].(map[string]any)

	return def, violations
}

func validateAnthropicDefinition(index int, tool map[string]any, violations []string) (ToolDefinition, []string) {
	var def ToolDefinition

	name, _ := tool["name"].(string)
	if SanitizeName(name) == "" {
		violations = append(violations, fmt.Sprintf("tool %d: name is empty", index))
		return def, violations
	}

	description, _ := tool["description"].(string)
	if description == "" {
		violations = append(violations, fmt.Sprintf("tool %q: description is required", name))
	}

	inputSchema, ok := tool["input_schema"].(map[string]any)
	if !ok {
		violations = append(violations, fmt.Sprintf("tool %q: input_schema is required", name))
	}

	def.Name = SanitizeName(name)
	def.Description = description
	def.Parameters = inputSchema

	return def, violations
}

// validateSchema applies the JSON-Schema-subset checks shared by both formats:
// object type, known property types, array items, and required/properties
// cross-references.
func validateSchema(toolName string, schema map[string]any, violations []string) []string {
	if schema == nil {
		return violations
	}

	if schemaType, _ := schema["type"].(string); schemaType != "object" {
		violations = append(violations, fmt.Sprintf("tool %q: schema type must be \"object\"", toolName))
	}

	properties, _ := schema["properties"].(map[string]any)

	for propName, prop := range properties {
		propMap, ok := prop.(map[string]any)
		if !ok {
			violations = append(violations, fmt.Sprintf("tool %q: property %q is not an object", toolName, propName))
			continue
		}

		propType, _ := propMap["type"].(string)
		if propType != "" && !schemaTypes[propType] {
			violations = append(violations, fmt.Sprintf("tool %q: property %q has unknown type %q", toolName, propName, propType))
		}

		if propType == "array" {
			if _, hasItems := propMap["items"]; !hasItems {
				violations = append(violations, fmt.Sprintf("tool %q: array property %q must declare items", toolName, propName))
			}
		}
	}

	if required, ok := schema["required"].([]any); ok {
		for _, entry := range required {
			fieldName, _ := entry.(string)
			if _, exists := properties[fieldName]; !exists {
				violations = append(violations, fmt.Sprintf("tool %q: required field %q not present in properties", toolName, fieldName))
			}
		}
	}

	return violations
}
