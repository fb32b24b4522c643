package main

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/adapters"
	"github.com/satriahrh/voxpense/adapters/mongo"
	"github.com/satriahrh/voxpense/adapters/postgres"
	"github.com/satriahrh/voxpense/adapters/sqlite"
	"github.com/satriahrh/voxpense/adapters/stt"
	"github.com/satriahrh/voxpense/domain/repositories"
	"github.com/satriahrh/voxpense/internal/config"
	"github.com/satriahrh/voxpense/usecase"
)

// app holds the collaborators shared by every command
type app struct {
	cfg         config.Config
	logger      *zap.Logger
	expenses    repositories.ExpenseRepository
	stt         repositories.SpeechToText
	coordinator *usecase.SubmissionCoordinator

	closers []func()
}

// newApp loads configuration and connects the expense store. withSpeech
// also builds the configured recognizer.
func newApp(ctx context.Context, withSpeech bool) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.coordinator = usecase.NewSubmissionCoordinator(a.expenses, logger)

	if withSpeech {
		if err := a.openSpeech(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Level() == zap.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(cfg.Level())
	return zcfg.Build()
}

func (a *app) openStore(ctx context.Context) error {
	logger := a.logger.With(zap.String("driver", a.cfg.StoreDriver))

	// remote stores may still be starting next to us
	connect := func(fn func() error) error {
		return retry.Do(fn,
			retry.Context(ctx),
			retry.Attempts(max(a.cfg.StoreRetries, 1)),
			retry.Delay(time.Second),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				logger.Warn("Expense store not reachable, retrying", zap.Uint("attempt", n+1), zap.Error(err))
			}),
		)
	}

	switch a.cfg.StoreDriver {
	case config.StoreSQLite:
		repo, err := sqlite.NewExpenseRepository(ctx, a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.expenses = repo
		a.closers = append(a.closers, func() {
			if err := repo.Close(); err != nil {
				logger.Error("Failed to close database", zap.Error(err))
			}
		})

	case config.StoreMongo:
		var client *mongo.Client
		err := connect(func() (err error) {
			client, err = mongo.NewClient(ctx, a.cfg.MongoURI, a.cfg.MongoDatabase, logger)
			return err
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(ctx)
		})

		repo, err := client.Expenses(ctx)
		if err != nil {
			return err
		}
		a.expenses = repo

	case config.StorePostgres:
		var repo *postgres.ExpenseRepository
		err := connect(func() (err error) {
			repo, err = postgres.NewExpenseRepository(ctx, a.cfg.PostgresDSN, logger)
			return err
		})
		if err != nil {
			return err
		}
		a.expenses = repo
		a.closers = append(a.closers, repo.Close)

	default:
		a.expenses = adapters.NewMemoryExpenseRepository()
	}

	logger.Info("Expense store ready")
	return nil
}

func (a *app) openSpeech(ctx context.Context) error {
	switch a.cfg.STTProvider {
	case config.STTGoogle:
		client, err := stt.NewGoogleSpeechToText(ctx, a.cfg.STTModel, a.logger)
		if err != nil {
			return err
		}
		a.stt = client
		a.closers = append(a.closers, func() { _ = client.Close() })

	case config.STTGemini:
		client, err := stt.NewGeminiSpeechToText(ctx, a.cfg.GeminiAPIKey, a.cfg.GeminiModel, a.logger)
		if err != nil {
			return err
		}
		a.stt = client

	default:
		a.stt = stt.NewMockSpeechToText(a.logger)
	}

	a.logger.Info("Speech recognizer ready", zap.String("provider", a.cfg.STTProvider))
	return nil
}

// audioConfig is the format assumed for client uploads
func (a *app) audioConfig() repositories.AudioConfig {
	return repositories.AudioConfig{
		SampleRate: a.cfg.STTSampleRate,
		Encoding:   a.cfg.STTEncoding,
		Language:   a.cfg.STTLanguage,
	}
}
