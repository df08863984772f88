package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/dejobratic/cosrent/internal/auth"
	"github.com/dejobratic/cosrent/internal/config"
	"github.com/dejobratic/cosrent/internal/database"
	"github.com/dejobratic/cosrent/internal/notify"
	"github.com/dejobratic/cosrent/internal/rental/adapters"
	httpadapter "github.com/dejobratic/cosrent/internal/rental/adapters/http"
	rentalapp "github.com/dejobratic/cosrent/internal/rental/app"
	"github.com/dejobratic/cosrent/internal/rental/metrics"
	"github.com/dejobratic/cosrent/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		return err
	}
	logger := telemetry.NewLogger(os.Stdout, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := telemetry.Meter()
	rentalMetrics, err := metrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}
	notifyMetrics, err := notify.NewMetrics(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	proofs, err := openProofStore(cfg, logger)
	if err != nil {
		return err
	}

	hub := notify.NewHub(logger, notifyMetrics, originChecker(cfg.HTTP.AllowedOrigins))
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	service := rentalapp.NewService(rentalapp.Dependencies{
		Bookings:              adapters.NewObservableBookingRepository(store.bookings, dbMetrics),
		Payments:              adapters.NewObservablePaymentRepository(store.payments, dbMetrics),
		Products:              adapters.NewObservableProductRepository(store.products, dbMetrics),
		Events:                adapters.NewObservableEventBus(notify.NewBus(hub), notifyMetrics),
		Idempotency:           store.idempotency,
		Proofs:                proofs,
		Logger:                logger,
		Metrics:               rentalMetrics,
		AutoConfirmOnApproval: cfg.Rental.AutoConfirmOnApproval,
	})
	rentalHandler := httpadapter.NewHandler(service, tokens, logger,
		httpadapter.WithFeed(hub),
		httpadapter.WithMaxUploadBytes(cfg.HTTP.MaxUploadBytes),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckHealth(r.Context(), store.pinger); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"status": "ready", "storage": cfg.Storage.Driver, "subscribers": hub.Clients()})
	})
	rentalHandler.Register(mux)

	handler := httpadapter.WithMetrics(
		httpadapter.WithLogging(
			httpadapter.WithRecovery(mux, logger),
			logger,
		),
		httpMetrics,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
	defer cancel()

	// Websocket connections are hijacked and not tracked by Shutdown.
	stopHub()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
	return nil
}

// originChecker accepts websocket upgrades from allowed origins, or from
// anywhere when none are configured.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		return slices.Contains(allowed, r.Header.Get("Origin"))
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
