package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"transcript-revision-service/internal/app"
	"transcript-revision-service/internal/config"
	apihttp "transcript-revision-service/internal/http"
	"transcript-revision-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to create application: %v", err)
	}
	defer application.Shutdown()

	if err := application.Start(); err != nil {
		log.Fatalf("failed to start application: %v", err)
	}

	// Metrics and health endpoints on a separate port
	obsServer := observability.NewServer(":" + cfg.Observability.MetricsPort)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      apihttp.NewRouter(application.Revision, application.Recognizer, application.RecognizeOptions()),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		application.Logger.Info().Str("addr", apiServer.Addr).Msg("REST API listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	application.Logger.Info().Msg("Shutting down HTTP servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error().Err(err).Msg("API server shutdown error")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error().Err(err).Msg("Observability server shutdown error")
	}
}
