package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	dhttp "github.com/neurahub/dispatch/internal/adapter/http"
	"github.com/neurahub/dispatch/internal/adapter/localbus"
	makeadapter "github.com/neurahub/dispatch/internal/adapter/make"
	"github.com/neurahub/dispatch/internal/adapter/memcatalog"
	"github.com/neurahub/dispatch/internal/adapter/n8n"
	"github.com/neurahub/dispatch/internal/adapter/natsbus"
	dotel "github.com/neurahub/dispatch/internal/adapter/otel"
	"github.com/neurahub/dispatch/internal/config"
	"github.com/neurahub/dispatch/internal/eventbus"
	"github.com/neurahub/dispatch/internal/logger"
	portbus "github.com/neurahub/dispatch/internal/port/eventbus"
	"github.com/neurahub/dispatch/internal/port/webhook"
	"github.com/neurahub/dispatch/internal/service"
)

func main() {
	fallback := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(fallback)

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"bus_provider", cfg.Bus.Provider,
		"agents_file", cfg.Catalog.AgentsFile,
	)

	ctx := context.Background()

	shutdownMeter := dotel.InitMeter(cfg.Logging.Service)
	defer func() { _ = shutdownMeter(ctx) }()

	metrics, err := dotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Catalog ---
	cat, err := memcatalog.LoadFile(cfg.Catalog.AgentsFile)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	slog.Info("agent catalog loaded", "agents", cat.Size())

	// --- Event bus ---
	var transport portbus.Transport
	switch cfg.Bus.Provider {
	case config.BusProviderNATS:
		transport, err = natsbus.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
	default:
		transport = localbus.New()
	}
	bus := eventbus.New(transport, metrics)
	defer func() { _ = bus.Close() }()

	// --- Services ---
	executors := webhook.NewRegistry(
		makeadapter.NewExecutor(nil),
		n8n.NewExecutor(nil),
	)
	automationSvc := service.NewAutomationService(cat, executors, service.AutomationOptions{
		Timeout:            cfg.Webhook.Timeout,
		BreakerMaxFailures: cfg.Breaker.MaxFailures,
		BreakerTimeout:     cfg.Breaker.Timeout,
	}, metrics)

	listener := service.NewListener(bus, automationSvc, cfg.Webhook.MaxConcurrent)
	if err := listener.Start(); err != nil {
		return fmt.Errorf("listener: %w", err)
	}

	// --- HTTP ---
	handlers := &dhttp.Handlers{
		Automation: automationSvc,
		Bus:        bus,
	}

	r := chi.NewRouter()
	r.Use(dhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(dhttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", healthHandler(cfg, cat))

	dhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Let in-flight dispatches finish; they are fire-and-forget and would
	// otherwise be lost with the process.
	listener.Wait()
	return nil
}

// healthHandler returns an http.HandlerFunc that reports service health.
func healthHandler(cfg *config.Config, cat *memcatalog.Catalog) http.HandlerFunc {
	type healthStatus struct {
		Status string `json:"status"`
		Bus    string `json:"bus"`
		Agents int    `json:"agents"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{
			Status: "ok",
			Bus:    cfg.Bus.Provider,
			Agents: cat.Size(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
