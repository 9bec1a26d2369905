package middleware

import (
	"log/slog"
	"net/http"

	"github.com/llmbridge/llmbridge/internal/config"
	"github.com/llmbridge/llmbridge/internal/metrics"
)

// Middleware wraps an http.Handler with one concern.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware in declaration order.
type Chain struct {
	middlewares []Middleware
}

func New(middlewares ...Middleware) Chain {
	return Chain{middlewares: middlewares}
}

// Then appends more middleware to the chain.
func (c Chain) Then(middlewares ...Middleware) Chain {
	return Chain{middlewares: append(c.middlewares, middlewares...)}
}

// Handler applies all middleware in the chain to the given handler.
func (c Chain) Handler(handler http.Handler) http.Handler {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = c.middlewares[i](handler)
	}

	return handler
}

// Set bundles the configured middleware for route composition.
type Set struct {
	Logging Middleware
	Auth    Middleware
	Metrics Middleware
}

func NewSet(cfg *config.Manager, collector *metrics.Collector, logger *slog.Logger) Set {
	return Set{
		Logging: NewLoggingMiddleware(logger),
		Auth:    NewAuthMiddleware(cfg, logger),
		Metrics: NewMetricsMiddleware(collector),
	}
}

// DefaultChain is the chain for the protocol surfaces.
func (s Set) DefaultChain() Chain {
	return New(
		s.Logging,
		s.Metrics,
		s.Auth,
	)
}

// HealthChain skips auth so probes always succeed.
func (s Set) HealthChain() Chain {
	return New(s.Logging)
}
