// Package gateway orchestrates the request pipeline: route, call the
// backend, normalize, repair, and classify failures.
package gateway

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure. The core never chooses an HTTP status
// itself; the hosting handler maps the kind to one.
type ErrorKind string

const (
	KindToolDefinitionValidation ErrorKind = "tool_definition_validation"
	KindToolCallParse            ErrorKind = "tool_call_parse"
	KindToolCallUnrecoverable    ErrorKind = "tool_call_unrecoverable"
	KindToolResultMismatch       ErrorKind = "tool_result_mismatch"
	KindBackendCall              ErrorKind = "backend_call"
	KindUnknownBackendShape      ErrorKind = "unknown_backend_shape"
	KindBadRequest               ErrorKind = "bad_request"
)

// Error carries a classified failure through the pipeline.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// HTTPStatus maps an error kind to the status the hosting layer should write.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindToolDefinitionValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindBackendCall:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

// anthropicErrorType maps kinds to Anthropic's error type vocabulary.
func anthropicErrorType(kind ErrorKind) string {
	switch kind {
	case KindToolDefinitionValidation, KindBadRequest:
		return "invalid_request_error"
	case KindBackendCall:
		return "api_error"
	default:
		return "api_error"
	}
}

// AnthropicErrorDoc renders the Anthropic-shape error document.
func AnthropicErrorDoc(kind ErrorKind, message string) map[string]any {
	return map[string]any{
		"type": "error",
		"error": map[string]any{
			"type":    anthropicErrorType(kind),
			"message": message,
		},
	}
}

// OpenAIErrorDoc renders the OpenAI-shape error document.
func OpenAIErrorDoc(kind ErrorKind, message string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"type":    string(kind),
			"message": message,
		},
	}
}
