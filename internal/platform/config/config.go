package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	LogLevel     string     `env:"LOG_LEVEL" env-default:"info" env-description:"zap level: debug, info, warn, error"`
	// TraceProject enables Cloud Trace correlation of request logs.
	TraceProject string     `env:"GOOGLE_CLOUD_PROJECT" env-description:"GCP project used to link logs to traces"`
	HTTP         HTTP       `env-prefix:"HTTP_"`
	RateLimit    RateLimit  `env-prefix:"RATE_LIMIT_"`
	Engagement   Engagement `env-prefix:"ENGAGEMENT_"`
}

// HTTP configures the listener.
type HTTP struct {
	Port              string        `env:"PORT" env-default:"8080"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" env-default:"5s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" env-default:"2s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS" env-separator:","`
}

// RateLimit configures the inbound token bucket. RPS of zero disables it.
type RateLimit struct {
	RPS   float64 `env:"RPS" env-default:"50"`
	Burst int     `env:"BURST" env-default:"100"`
}

// Engagement configures the engagement platform binding. Without an account
// ID the service runs against the in-memory recorder.
type Engagement struct {
	BaseURL          string        `env:"BASE_URL" env-default:"https://api.clevertap.com"`
	AccountID        string        `env:"ACCOUNT_ID"`
	Passcode         string        `env:"PASSCODE"`
	NotificationsURL string        `env:"NOTIFICATIONS_URL"`
	Timeout          time.Duration `env:"TIMEOUT" env-default:"5s"`
}

// Enabled reports whether a real engagement account is configured.
func (e Engagement) Enabled() bool {
	return e.AccountID != ""
}

// Load reads the given .env files (missing files are ignored) and then binds
// the environment into a Config. Variables already set in the environment
// take precedence over .env values.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Engagement.Enabled() && c.Engagement.Passcode == "" {
		return errors.New("ENGAGEMENT_PASSCODE is required when ENGAGEMENT_ACCOUNT_ID is set")
	}
	if c.RateLimit.RPS < 0 {
		return errors.New("RATE_LIMIT_RPS must not be negative")
	}
	return nil
}
