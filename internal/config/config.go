// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/resonman/ai-102-prep/internal/evaluate"
	"github.com/resonman/ai-102-prep/internal/events"
	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/selector"
)

// Progress store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all runtime configuration.
type Config struct {
	// PoolPath is the question pool JSON file.
	PoolPath string `validate:"required"`

	// DBPath is the SQLite database. Empty selects the XDG default.
	DBPath string

	// LearnerID owns the progress record.
	LearnerID string `validate:"required"`

	// Store selects the progress backend: "sqlite", "redis" or "memory".
	Store    string `validate:"oneof=sqlite redis memory"`
	RedisURL string `validate:"required_if=Store redis"`

	ExamSize         int    `validate:"gte=1"`
	SimulationPolicy string `validate:"oneof=compare strict always"`
	RandomizeOptions bool

	WriteTimeout  time.Duration `validate:"gt=0"`
	WriteAttempts int           `validate:"gte=1"`

	Events EventsConfig

	Environment string
	LogLevel    string `validate:"oneof=debug info warn error"`
}

// EventsConfig selects how study events are published.
type EventsConfig struct {
	Enabled      bool
	Publisher    string `validate:"oneof=gochannel kafka"`
	KafkaBrokers string `validate:"required_if=Publisher kafka"`
	Topic        string `validate:"required"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PoolPath:         "data.json",
		LearnerID:        "default",
		Store:            StoreSQLite,
		RedisURL:         "redis://localhost:6379",
		ExamSize:         selector.DefaultExamSize,
		SimulationPolicy: string(evaluate.SimulationCompare),
		RandomizeOptions: true,
		WriteTimeout:     progress.DefaultWriteConfig().Timeout,
		WriteAttempts:    progress.DefaultWriteConfig().Attempts,
		Events: EventsConfig{
			Enabled:      true,
			Publisher:    events.BackendGoChannel,
			KafkaBrokers: "localhost:9092",
			Topic:        events.DefaultTopic,
		},
		Environment: "development",
		LogLevel:    "warn",
	}
}

// Load reads .env when present and builds a Config from the environment,
// falling back to defaults for unset values. The result is not validated.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	var err error

	cfg.PoolPath = getEnv("AI102_POOL", cfg.PoolPath)
	cfg.DBPath = getEnv("AI102_DB", cfg.DBPath)
	cfg.LearnerID = getEnv("AI102_LEARNER", cfg.LearnerID)
	cfg.Store = getEnv("AI102_STORE", cfg.Store)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.SimulationPolicy = getEnv("AI102_SIMULATION_POLICY", cfg.SimulationPolicy)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))

	if cfg.ExamSize, err = getEnvInt("AI102_EXAM_SIZE", cfg.ExamSize); err != nil {
		return Config{}, err
	}
	if cfg.RandomizeOptions, err = getEnvBool("AI102_RANDOMIZE_OPTIONS", cfg.RandomizeOptions); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvDuration("AI102_WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.WriteAttempts, err = getEnvInt("AI102_WRITE_ATTEMPTS", cfg.WriteAttempts); err != nil {
		return Config{}, err
	}

	if cfg.Events.Enabled, err = getEnvBool("EVENTS_ENABLED", cfg.Events.Enabled); err != nil {
		return Config{}, err
	}
	cfg.Events.Publisher = getEnv("EVENTS_PUBLISHER", cfg.Events.Publisher)
	cfg.Events.KafkaBrokers = getEnv("KAFKA_BROKERS", cfg.Events.KafkaBrokers)
	cfg.Events.Topic = getEnv("EVENTS_TOPIC", cfg.Events.Topic)

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its constraints and reports the
// first offending environment setting.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Production reports whether ENVIRONMENT selects production logging.
func (c Config) Production() bool {
	return c.Environment == "production"
}

// Write returns the write-behind settings for the progress store.
func (c Config) Write() progress.WriteConfig {
	w := progress.DefaultWriteConfig()
	w.Timeout = c.WriteTimeout
	w.Attempts = c.WriteAttempts
	return w
}

// Simulation returns the parsed simulation policy.
func (c Config) Simulation() (evaluate.SimulationPolicy, error) {
	return evaluate.ParseSimulationPolicy(c.SimulationPolicy)
}

// ExamOptions returns exam selection settings.
func (c Config) ExamOptions() selector.ExamOptions {
	opts := selector.DefaultExamOptions()
	opts.Size = c.ExamSize
	return opts
}

// Bus returns the event bus configuration.
func (c EventsConfig) Bus() events.Config {
	return events.Config{
		Enabled:      c.Enabled,
		Publisher:    c.Publisher,
		KafkaBrokers: c.Brokers(),
		Topic:        c.Topic,
	}
}

// Brokers returns the comma separated Kafka brokers as a slice.
func (c EventsConfig) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, value)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration", key, value)
	}
	return d, nil
}
