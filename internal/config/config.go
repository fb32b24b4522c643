// Package config loads runtime configuration from the environment, with an
// optional .env file for development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Speech-to-text providers
const (
	STTMock   = "mock"
	STTGoogle = "google"
	STTGemini = "gemini"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Port     string `koanf:"PORT"`
	LogLevel string `koanf:"LOG_LEVEL"`

	// StoreDriver selects the expense store: memory, sqlite, mongo or postgres
	StoreDriver   string `koanf:"STORE_DRIVER"`
	SQLitePath    string `koanf:"SQLITE_PATH"`
	MongoURI      string `koanf:"MONGODB_URI"`
	MongoDatabase string `koanf:"MONGODB_DATABASE"`
	PostgresDSN   string `koanf:"POSTGRES_DSN"`
	StoreRetries  uint   `koanf:"STORE_CONNECT_RETRIES"`

	// STTProvider selects the recognizer: mock, google or gemini
	STTProvider   string `koanf:"STT_PROVIDER"`
	STTLanguage   string `koanf:"STT_LANGUAGE"`
	STTSampleRate int    `koanf:"STT_SAMPLE_RATE"`
	// STTEncoding describes audio uploaded by clients, e.g. WEBM_OPUS from browsers
	STTEncoding  string `koanf:"STT_ENCODING"`
	STTModel     string `koanf:"STT_MODEL"`
	GeminiAPIKey string `koanf:"GEMINI_API_KEY"`
	GeminiModel  string `koanf:"GEMINI_MODEL"`

	// AutoSubmit submits results that carry an amount without confirmation
	AutoSubmit       bool `koanf:"AUTO_SUBMIT"`
	RecentWindowDays int  `koanf:"RECENT_WINDOW_DAYS"`
}

// Default returns the configuration used for unset variables
func Default() Config {
	return Config{
		Port:             "8080",
		LogLevel:         "info",
		StoreDriver:      StoreMemory,
		SQLitePath:       "data/expenses.db",
		MongoURI:         "mongodb://localhost:27017",
		MongoDatabase:    "voxpense",
		StoreRetries:     5,
		STTProvider:      STTMock,
		STTLanguage:      "en-US",
		STTSampleRate:    16000,
		STTEncoding:      "WEBM_OPUS",
		STTModel:         "latest_long",
		GeminiModel:      "gemini-2.0-flash",
		AutoSubmit:       true,
		RecentWindowDays: 7,
	}
}

// Load reads envFiles (missing files are ignored) and then the process
// environment on top of the defaults.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		// godotenv never overrides variables already set
		_ = godotenv.Load(f)
	}

	k := koanf.New(".")
	// empty variables fall back to the defaults
	skipEmpty := func(key string) string {
		if os.Getenv(key) == "" {
			return ""
		}
		return key
	}
	if err := k.Load(env.Provider("", ".", skipEmpty), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.STTProvider = strings.ToLower(strings.TrimSpace(cfg.STTProvider))
	cfg.STTEncoding = strings.ToUpper(strings.TrimSpace(cfg.STTEncoding))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected drivers have what they need
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGODB_URI and MONGODB_DATABASE are required for the mongo store"))
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.STTProvider {
	case STTMock, STTGoogle:
	case STTGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STT_PROVIDER %q", c.STTProvider))
	}

	if c.STTSampleRate <= 0 {
		errs = append(errs, errors.New("STT_SAMPLE_RATE must be positive"))
	}
	if c.RecentWindowDays <= 0 {
		errs = append(errs, errors.New("RECENT_WINDOW_DAYS must be positive"))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}

	return errors.Join(errs...)
}

// RecentWindow is the span counted as recent by expense stats
func (c Config) RecentWindow() time.Duration {
	return time.Duration(c.RecentWindowDays) * 24 * time.Hour
}

// Level returns the parsed log level
func (c Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
