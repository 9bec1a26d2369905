package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/llmbridge/llmbridge/internal/backend"
	"github.com/llmbridge/llmbridge/internal/config"
	"github.com/llmbridge/llmbridge/internal/gateway"
	"github.com/llmbridge/llmbridge/internal/handlers"
	"github.com/llmbridge/llmbridge/internal/metrics"
	"github.com/llmbridge/llmbridge/internal/middleware"
	"github.com/llmbridge/llmbridge/internal/registry"
)

// Server hosts the gateway's HTTP surfaces.
type Server struct {
	config    *config.Manager
	gateway   *gateway.Gateway
	collector *metrics.Collector
	logger    *slog.Logger
	server    *http.Server
}

func New(configManager *config.Manager, logger *slog.Logger) *Server {
	cfg := configManager.Get()

	reg := registry.New(capabilityOverrides(cfg))
	caller := backend.NewClient(cfg.Backend.Endpoint, cfg.Backend.APIKey, cfg.Backend.Timeout, logger)

	return &Server{
		config:    configManager,
		gateway:   gateway.New(reg, caller, logger),
		collector: metrics.NewCollector("llmbridge"),
		logger:    logger,
	}
}

// Start serves until an interrupt or SIGTERM arrives, then shuts down
// gracefully.
func (s *Server) Start() error {
	cfg := s.config.Get()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}

	s.logger.Info("starting server", "address", addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		s.logger.Info("server is shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	s.logger.Info("server exited")

	return nil
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	chatHandler := handlers.NewChatHandler(s.gateway, s.collector, s.logger)
	messagesHandler := handlers.NewMessagesHandler(s.gateway, s.collector, s.logger)
	healthHandler := handlers.NewHealthHandler(s.logger)

	set := middleware.NewSet(s.config, s.collector, s.logger)

	mux.Handle("POST /v1/chat/completions", set.DefaultChain().Handler(chatHandler))
	mux.Handle("POST /v1/messages", set.DefaultChain().Handler(messagesHandler))
	mux.Handle("GET /health", set.HealthChain().Handler(healthHandler))
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func capabilityOverrides(cfg *config.Config) map[string]registry.ModelCapability {
	overrides := make(map[string]registry.ModelCapability, len(cfg.Overrides))

	for model, override := range cfg.Overrides {
		overrides[model] = registry.ModelCapability{
			BackendType:             registry.BackendType(override.BackendType),
			SupportsNativeToolCalls: override.SupportsNativeToolCalls,
			RequiresNormalization:   override.RequiresNormalization,
			DefaultMaxTokens:        override.DefaultMaxTokens,
		}
	}

	return overrides
}
