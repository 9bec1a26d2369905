package toolcall

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAITool(name string, params map[string]any) map[string]any {
	return map[string]any{
		"type": TypeFunction,
		"function": map[string]any{
			"name":        name,
			"description": "test tool",
			"parameters":  params,
		},
	}
}

func TestValidateDefinitions_OpenAI(t *testing.T) {
	tools := []any{
		openAITool("get_weather", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{"type": "string"},
			},
			"required": []any{"location"},
		}),
	}

	defs, err := ValidateDefinitions(tools, FormatOpenAI)

	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "get_weather", defs[0].Name)
}

func TestValidateDefinitions_Anthropic(t *testing.T) {
	tools := []any{
		map[string]any{
			"name":        "get_weather",
			"description": "look up weather",
			"input_schema": map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}

	defs, err := ValidateDefinitions(tools, FormatAnthropic)

	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "get_weather", defs[0].Name)
}

func TestValidateDefinitions_CollectsAllViolations(t *testing.T) {
	tools := []any{
		map[string]any{"type": "retrieval"},
		openAITool("bad_schema", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tags": map[string]any{"type": "array"},
			},
			"required": []any{"missing"},
		}),
	}

	_, err := ValidateDefinitions(tools, FormatOpenAI)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Violations, 3)
}

func TestValidateDefinitions_SchemaTypeMustBeObject(t *testing.T) {
	tools := []any{
		openAITool("f", map[string]any{"type": "string"}),
	}

	_, err := ValidateDefinitions(tools, FormatOpenAI)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	require.Len(t, vErr.Violations, 1)
	assert.Contains(t, vErr.Violations[0], `schema type must be "object"`)
}

func TestValidateDefinitions_UnknownPropertyType(t *testing.T) {
	tools := []any{
		openAITool("f", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"x": map[string]any{"type": "float"},
			},
		}),
	}

	_, err := ValidateDefinitions(tools, FormatOpenAI)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Violations[0], `unknown type "float"`)
}

func TestValidateDefinitions_AnthropicMissingFields(t *testing.T) {
	tools := []any{
		map[string]any{"name": "f"},
	}

	_, err := ValidateDefinitions(tools, FormatAnthropic)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Violations, 2)
}

func TestValidateDefinitions_MissingParametersIsAllowed(t *testing.T) {
	tools := []any{
		map[string]any{
			"type": TypeFunction,
			"function": map[string]any{
				"name": "no_params",
			},
		},
	}

	defs, err := ValidateDefinitions(tools, FormatOpenAI)

	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Nil(t, defs[0].Parameters)
}
