package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adgen/internal/httpapi"
	"adgen/internal/infra"
	"adgen/internal/orchestrator"
	"adgen/internal/orchestrator/adapters"
	"adgen/internal/orchestrator/validate"
	"adgen/internal/storage"
)

func main() {
	cfg := orchestrator.LoadConfig()
	logger := infra.NewLogger(os.Getenv("APP_ENV"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fileStore, err := storage.NewFileStore(cfg.BundleDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("server: failed to configure bundle storage")
	}

	orch := orchestrator.New(
		cfg,
		adapters.NewFakeAnalyzer(adapters.FailurePlan{}),
		adapters.NewFakeImageSynthesizer(adapters.FailurePlan{}),
		adapters.NewFakeTextSynthesizer(adapters.FailurePlan{}),
		validate.Credentials{Analyzer: true, ImageSynthesizer: true, TextSynthesizer: true},
		logger,
		orchestrator.WithDiskStore(fileStore),
	)
	defer orch.Shutdown()

	app := httpapi.NewApp(orch)
	router := httpapi.NewRouter(app)

	addr := os.Getenv("ADGEN_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("server: listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server: listen failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("server: shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server: graceful shutdown failed")
	}
}
