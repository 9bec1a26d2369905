package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/llmbridge/llmbridge/internal/config"
)

type authMiddleware struct {
	config *config.Manager
	logger *slog.Logger
}

// NewAuthMiddleware enforces the gateway's inbound API key when one is
// configured. Both Authorization bearer tokens and the x-api-key header used
// by Anthropic clients are accepted.
func NewAuthMiddleware(cfg *config.Manager, logger *slog.Logger) Middleware {
	am := &authMiddleware{config: cfg, logger: logger}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := am.authenticate(r); err != nil {
				am.logger.Warn("authentication failed", "error", err, "remote_addr", r.RemoteAddr)
				http.Error(w, "gateway API key not authorized", http.StatusUnauthorized)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (am *authMiddleware) authenticate(r *http.Request) error {
	cfg := am.config.Get()
	if cfg.APIKey == "" {
		return nil
	}

	var token string

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	} else if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
		token = apiKey
	}

	if token == "" {
		return errors.New("no authentication token provided")
	}

	if token != cfg.APIKey {
		return errors.New("invalid API key")
	}

	return nil
}
