// Package app wires configuration, storage, events, and services into a
// runnable application.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"transcript-revision-service/internal/config"
	"transcript-revision-service/internal/events"
	"transcript-revision-service/internal/observability/logging"
	"transcript-revision-service/internal/service/recognize"
	"transcript-revision-service/internal/service/recognize/google"
	recmock "transcript-revision-service/internal/service/recognize/mock"
	"transcript-revision-service/internal/service/revision"
	"transcript-revision-service/internal/versionstore"
	"transcript-revision-service/internal/versionstore/mock"
	"transcript-revision-service/internal/versionstore/sqlite"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Publisher  *events.Publisher
	Store      *versionstore.Store
	Revision   *revision.Service
	Recognizer recognize.Adapter

	sqliteBackend *sqlite.Backend
}

// New constructs a new Application from the provided configuration.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}

	backend, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	a.Publisher = events.New(&events.Config{
		Enabled:         cfg.Kafka.Enabled,
		Brokers:         cfg.Kafka.Brokers,
		TopicVersion:    cfg.Kafka.TopicVersion,
		TopicCorrection: cfg.Kafka.TopicCorrection,
		Principal:       cfg.Kafka.Principal,
	})

	a.Store = versionstore.NewStore(backend)
	a.Revision = revision.New(a.Store, a.Publisher)

	if a.Recognizer, err = a.openRecognizer(ctx); err != nil {
		return nil, err
	}

	a.Logger.Info().
		Str("storeBackend", cfg.Store.Backend).
		Str("recognizer", cfg.Recognizer.Provider).
		Msg("Transcript revision service application created")
	return a, nil
}

func (a *Application) openBackend(ctx context.Context) (versionstore.Backend, error) {
	switch a.Cfg.Store.Backend {
	case "sqlite":
		b, err := sqlite.Open(ctx, sqlite.Config{Path: a.Cfg.Store.SQLitePath}, logging.WithComponent("sqlite"))
		if err != nil {
			return nil, fmt.Errorf("open version store: %w", err)
		}
		a.sqliteBackend = b
		return b, nil
	case "memory":
		return mock.NewBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.Cfg.Store.Backend)
	}
}

func (a *Application) openRecognizer(ctx context.Context) (recognize.Adapter, error) {
	switch a.Cfg.Recognizer.Provider {
	case "google":
		adapter, err := google.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("open recognizer: %w", err)
		}
		return adapter, nil
	case "mock":
		return recmock.New(), nil
	default:
		return nil, fmt.Errorf("unknown recognizer provider %q", a.Cfg.Recognizer.Provider)
	}
}

// RecognizeOptions maps the recognizer configuration onto adapter options.
func (a *Application) RecognizeOptions() recognize.Options {
	return recognize.Options{
		LanguageCode:   a.Cfg.Recognizer.LanguageCode,
		SampleRateHz:   a.Cfg.Recognizer.SampleRateHz,
		EnableSpeakers: a.Cfg.Recognizer.Diarize,
	}
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Transcript revision service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Transcript revision service shutting down")

	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Error closing publisher")
		}
	}
	if a.Recognizer != nil {
		if err := a.Recognizer.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Error closing recognizer")
		}
	}
	if a.sqliteBackend != nil {
		if err := a.sqliteBackend.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Error closing version store")
		}
	}
}
