// Package config handles application configuration via environment variables
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Collector modes
const (
	ModeHTTP = "http"
	ModeMock = "mock"
)

// Config is the process configuration
type Config struct {
	Port          int           `validate:"min=1,max=65535"`
	APIURL        string        `validate:"required,url"`
	CollectorMode string        `validate:"oneof=http mock"`
	UserAgent     string        `validate:"max=200"`
	PollInterval  time.Duration `validate:"min=1s"`
	FetchTimeout  time.Duration `validate:"min=100ms"`
	RateEvery     time.Duration `validate:"min=0"`
	RateBurst     int           `validate:"min=1"`
	HistoryFile   string
	HistoryLimit  int    `validate:"min=1"`
	DiscardStale  bool
	LogLevel      string `validate:"oneof=debug info warn error"`
	LogFormat     string `validate:"oneof=json console"`
}

// Defaults returns the configuration used when no variables are set
func Defaults() Config {
	return Config{
		Port:          8080,
		APIURL:        "http://localhost:5000",
		CollectorMode: ModeHTTP,
		UserAgent:     "ticker-pulse/1.0",
		PollInterval:  60 * time.Second,
		FetchTimeout:  10 * time.Second,
		RateEvery:     250 * time.Millisecond,
		RateBurst:     4,
		HistoryFile:   "data/history.json",
		HistoryLimit:  120,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads an optional .env file, then the environment, and validates the result
func Load(files ...string) (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load(files...)
	return FromEnv()
}

// FromEnv reads the environment over Defaults and validates the result
func FromEnv() (Config, error) {
	c := Defaults()
	c.Port = mayInt("PORT", c.Port)
	c.APIURL = mayString("PULSE_API_URL", c.APIURL)
	c.CollectorMode = strings.ToLower(mayString("COLLECTOR_MODE", c.CollectorMode))
	c.UserAgent = mayString("PULSE_USER_AGENT", c.UserAgent)
	c.PollInterval = mayDuration("PULSE_POLL_INTERVAL", c.PollInterval)
	c.FetchTimeout = mayDuration("PULSE_FETCH_TIMEOUT", c.FetchTimeout)
	c.RateEvery = mayDuration("PULSE_RATE_EVERY", c.RateEvery)
	c.RateBurst = mayInt("PULSE_RATE_BURST", c.RateBurst)
	c.HistoryLimit = mayInt("PULSE_HISTORY_LIMIT", c.HistoryLimit)
	c.DiscardStale = mayBool("PULSE_DISCARD_STALE", c.DiscardStale)
	c.LogLevel = strings.ToLower(mayString("LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(mayString("LOG_FORMAT", c.LogFormat))
	// set-but-empty disables recording
	if v, ok := os.LookupEnv("PULSE_HISTORY_FILE"); ok {
		c.HistoryFile = strings.TrimSpace(v)
	}

	if err := validate.Struct(c); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// Addr is the listen address for the dashboard
func (c Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

func mayString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mayInt(key string, def int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	slog.Warn("invalid int; using default", "key", key, "value", s, "default", def)
	return def
}

func mayBool(key string, def bool) bool {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	slog.Warn("invalid bool; using default", "key", key, "value", s, "default", def)
	return def
}

func mayDuration(key string, def time.Duration) time.Duration {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	if v, err := time.ParseDuration(s); err == nil {
		return v
	}
	slog.Warn("invalid duration; using default", "key", key, "value", s, "default", def)
	return def
}
