package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"staycal/internal/domain/calendarsync"
)

// Config aggregates application settings. Every field is read from the environment,
// optionally seeded from a .env file.
type Config struct {
	App struct {
		Env      string `envconfig:"ENV" default:"dev"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	} `envconfig:"APP"`

	HTTP struct {
		Addr            string        `envconfig:"ADDR" default:":8080"`
		ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
		AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	} `envconfig:"HTTP"`

	Store struct {
		Driver string `envconfig:"DRIVER" default:"memory"`
	} `envconfig:"STORE"`

	Postgres struct {
		DSN          string        `envconfig:"DSN"`
		MaxRetry     int           `envconfig:"MAX_RETRY" default:"5"`
		RetryWait    time.Duration `envconfig:"RETRY_WAIT" default:"2s"`
		AutoMigrate  bool          `envconfig:"AUTO_MIGRATE" default:"false"`
		MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" default:"10"`
	} `envconfig:"POSTGRES"`

	Mongo struct {
		URI string `envconfig:"URI"`
		DB  string `envconfig:"DB" default:"staycal"`
	} `envconfig:"MONGO"`

	Redis struct {
		Addr     string `envconfig:"ADDR"`
		Password string `envconfig:"PASSWORD"`
		DB       int    `envconfig:"DB" default:"0"`
	} `envconfig:"REDIS"`

	Kafka struct {
		Brokers     []string      `envconfig:"BROKERS"`
		TopicPrefix string        `envconfig:"TOPIC_PREFIX" default:"staycal"`
		Poll        time.Duration `envconfig:"POLL_INTERVAL" default:"500ms"`
	} `envconfig:"KAFKA"`

	S3 struct {
		Endpoint  string `envconfig:"ENDPOINT"`
		AccessKey string `envconfig:"ACCESS_KEY"`
		SecretKey string `envconfig:"SECRET_KEY"`
		Bucket    string `envconfig:"BUCKET" default:"staycal-feeds"`
		UseSSL    bool   `envconfig:"USE_SSL" default:"false"`
	} `envconfig:"S3"`

	Booking struct {
		WindowMonths      int      `envconfig:"WINDOW_MONTHS" default:"12"`
		OccupyingStatuses []string `envconfig:"OCCUPYING_STATUSES" default:"confirmed,pending"`
		MaxGuests         int      `envconfig:"MAX_GUESTS" default:"6"`
	} `envconfig:"BOOKING"`

	Sync struct {
		Sources      []string      `envconfig:"SOURCES" default:"airbnb,vrbo"`
		Interval     time.Duration `envconfig:"INTERVAL" default:"1h"`
		FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	} `envconfig:"SYNC"`

	Cleanup struct {
		Interval time.Duration `envconfig:"INTERVAL" default:"24h"`
	} `envconfig:"CLEANUP"`

	Pricing struct {
		BaseNightly    string `envconfig:"BASE_NIGHTLY" default:"150.00"`
		WeekendNightly string `envconfig:"WEEKEND_NIGHTLY"`
		Currency       string `envconfig:"CURRENCY" default:"EUR"`
		Seasons        string `envconfig:"SEASONS"`
	} `envconfig:"PRICING"`

	Idempotency struct {
		TTL time.Duration `envconfig:"TTL" default:"24h"`
	} `envconfig:"IDEMPOTENCY"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Load reads an optional .env file (path from ENV_FILE, default ".env") and then the
// environment, and validates the result.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: POSTGRES_DSN is required for the postgres driver")
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("config: MONGO_URI is required for the mongo driver")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Booking.WindowMonths < 1 {
		return fmt.Errorf("config: BOOKING_WINDOW_MONTHS must be positive, got %d", c.Booking.WindowMonths)
	}
	sources := make([]string, 0, len(c.Sync.Sources))
	for _, raw := range c.Sync.Sources {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		src, err := calendarsync.NormalizeSource(raw)
		if err != nil {
			return fmt.Errorf("config: SYNC_SOURCES: %w", err)
		}
		sources = append(sources, src)
	}
	c.Sync.Sources = sources
	c.Kafka.Brokers = compact(c.Kafka.Brokers)
	c.HTTP.AllowedOrigins = compact(c.HTTP.AllowedOrigins)
	return nil
}

// IsDev reports whether human-friendly output should be used.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.App.Env) {
	case "dev", "local":
		return true
	}
	return false
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
