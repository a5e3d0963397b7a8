package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cjrunixx/VeloVoice/backend/internal/clock"
	"github.com/cjrunixx/VeloVoice/backend/internal/config"
	"github.com/cjrunixx/VeloVoice/backend/internal/handler"
	"github.com/cjrunixx/VeloVoice/backend/internal/handler/copilot"
	"github.com/cjrunixx/VeloVoice/backend/internal/handler/system"
	"github.com/cjrunixx/VeloVoice/backend/internal/metrics"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/persona"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/ai"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/events"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/session"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/voice"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run wires the service and serves until shutdown. Returning instead of
// exiting lets the deferred cleanup flush before the process ends.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	initResult := cfg.Init()
	for _, warning := range initResult.Warnings {
		logger.Warn(warning)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	personaStore := persona.NewMemoryStore(persona.Seed())

	// Initialize AI service, degrading to canned apologies without credentials
	var aiService *ai.Service
	if initResult.LLMEnabled {
		aiService, err = ai.NewService(ctx, personaStore, cfg.AI, m, logger)
		if err != nil {
			logger.Warn("failed to initialize AI service, continuing in degraded mode", "error", err)
			initResult.LLMEnabled = false
		} else {
			logger.Info("AI service initialized", "provider", aiService.Provider())
		}
	}
	if aiService == nil {
		aiService = ai.NewDisabled(personaStore, m, logger)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.NATSURL != "" {
		natsPublisher, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			logger.Warn("session events disabled", "error", err)
		} else {
			publisher = natsPublisher
			logger.Info("publishing session events", "url", cfg.Events.NATSURL, "prefix", cfg.Events.SubjectPrefix)
		}
	}
	defer publisher.Close()

	registry := session.NewRegistry()
	copilotHandler := copilot.New(copilot.Options{
		Registry:  registry,
		Assistant: aiService,
		Formatter: voice.NewFormatter(personaStore, nil),
		Events:    publisher,
		Metrics:   m,
		Logger:    logger,
		Clock:     clock.Real(),
		Session:   cfg.Session,
	})
	systemHandler := system.New(system.Status{
		LLMEnabled: initResult.LLMEnabled,
		Provider:   initResult.Provider,
	}, registry)

	router := handler.NewRouter(personaStore, copilotHandler, systemHandler, m)

	return startServer(ctx, cfg.Server, router, registry, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, registry *session.Registry, logger *slog.Logger) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// Hijacked WebSocket connections are invisible to Shutdown.
	srv.RegisterOnShutdown(registry.StopAll)

	logger.Info("VeloVoice Co-Pilot Brain listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
