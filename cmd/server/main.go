package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wadjakorntonsri/certlink/pkg/adapters/events"
	"github.com/wadjakorntonsri/certlink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/certlink/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/certlink/pkg/config"
	"github.com/wadjakorntonsri/certlink/pkg/core/certlink"
	"github.com/wadjakorntonsri/certlink/pkg/core/services"
	"github.com/wadjakorntonsri/certlink/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg)
	slog.SetDefault(logger)

	// Initialize Repository
	repo, err := sqlstore.NewSQLRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	// Initialize Link Codec
	mode, err := certlink.ParseMode(cfg.LinkSigning)
	if err != nil {
		logger.Error("Invalid link signing mode", "error", err)
		os.Exit(1)
	}
	codec, err := certlink.NewCodec(mode, []byte(cfg.LinkSecret))
	if err != nil {
		logger.Error("Failed to build link codec", "error", err)
		os.Exit(1)
	}

	// Initialize Service
	service := services.NewCertificateService(repo, certlink.NewBuilder(cfg.BaseURL, codec), services.Options{
		DefaultTTLDays: cfg.DefaultTTLDays,
		Events:         publisher,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(service, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "env", cfg.AppEnv, "link_signing", mode.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
