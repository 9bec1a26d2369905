package backend

import (
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestClient_Call(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"model":"gpt-4o"}`, string(body))

		w.Write([]byte(`{"id":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", time.Second, testLogger)

	body, err := client.Call(context.Background(), "gpt-4o", []byte(`{"model":"gpt-4o"}`))

	require.NoError(t, err)
	assert.Equal(t, `{"id":"ok"}`, string(body))
}

func TestClient_GzipResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")

		gz := gzip.NewWriter(w)
		gz.Write([]byte(`{"compressed":true}`))
		gz.Close()
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second, testLogger)

	body, err := client.Call(context.Background(), "m", []byte("{}"))

	require.NoError(t, err)
	assert.Equal(t, `{"compressed":true}`, string(body))
}

func TestClient_BrotliResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")

		br := brotli.NewWriter(w)
		br.Write([]byte(`{"compressed":"br"}`))
		br.Close()
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second, testLogger)

	body, err := client.Call(context.Background(), "m", []byte("{}"))

	require.NoError(t, err)
	assert.Equal(t, `{"compressed":"br"}`, string(body))
}

func TestClient_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second, testLogger)

	_, err := client.Call(context.Background(), "m", []byte("{}"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server detects the client disconnect and
		// cancels the request context; otherwise this handler never returns
		// and server.Close deadlocks.
		io.ReadAll(r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Minute, testLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Call(ctx, "m", []byte("{}"))

	assert.Error(t, err)
}
