package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmbridge/llmbridge/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func managerWithKey(t *testing.T, apiKey string) *config.Manager {
	t.Helper()

	m := config.NewManagerWithPath(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, m.Save(&config.Config{APIKey: apiKey}))

	return m
}

func TestAuthMiddleware_NoKeyConfigured(t *testing.T) {
	handler := NewAuthMiddleware(managerWithKey(t, ""), testLogger)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/messages", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_AcceptedHeaders(t *testing.T) {
	handler := NewAuthMiddleware(managerWithKey(t, "sk-gw"), testLogger)(okHandler())

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"bearer token", "Authorization", "Bearer sk-gw", http.StatusOK},
		{"x-api-key", "x-api-key", "sk-gw", http.StatusOK},
		{"wrong token", "Authorization", "Bearer nope", http.StatusUnauthorized},
		{"missing token", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestChain_AppliesInDeclarationOrder(t *testing.T) {
	var order []string

	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := New(tag("outer")).Then(tag("inner")).Handler(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestStatusWriter_CapturesStatusAndLength(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	sw.WriteHeader(http.StatusTeapot)
	n, err := sw.Write([]byte("body"))

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, http.StatusTeapot, sw.status)
	assert.Equal(t, 4, sw.length)
}
