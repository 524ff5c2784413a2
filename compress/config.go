package compress

import (
	"fmt"
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultConcurrency    = 4
	DefaultMinTokens      = 50
	DefaultTimeoutInitial = 30 * time.Second
	DefaultTimeoutScale   = 2.0
	DefaultMaxAttempts    = 3
)

// Config holds engine configuration for a single run.
type Config struct {
	// Concurrency is the maximum number of provider calls in flight at
	// once. Default: 4.
	Concurrency int

	// MinTokens is the estimated token count below which a unit is not
	// worth compressing and is skipped without a provider call.
	// Default: 50.
	MinTokens int

	// TimeoutInitial is the timeout for a task's first attempt.
	// Default: 30s.
	TimeoutInitial time.Duration

	// TimeoutScale is the multiplicative factor applied to the timeout
	// on each retry. Must be >= 1. Default: 2.
	TimeoutScale float64

	// MaxAttempts is the number of attempts per task before it is
	// marked failed. Default: 3.
	MaxAttempts int

	// Logger receives executor diagnostics. Defaults to a discard
	// logger; the engine never logs conversation content.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the default values.
func DefaultConfig() Config {
	return Config{
		Concurrency:    DefaultConcurrency,
		MinTokens:      DefaultMinTokens,
		TimeoutInitial: DefaultTimeoutInitial,
		TimeoutScale:   DefaultTimeoutScale,
		MaxAttempts:    DefaultMaxAttempts,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MinTokens == 0 {
		c.MinTokens = DefaultMinTokens
	}
	if c.TimeoutInitial == 0 {
		c.TimeoutInitial = DefaultTimeoutInitial
	}
	if c.TimeoutScale == 0 {
		c.TimeoutScale = DefaultTimeoutScale
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if c.MinTokens < 0 {
		return fmt.Errorf("%w: min_tokens must be non-negative, got %d", ErrInvalidConfig, c.MinTokens)
	}
	if c.TimeoutInitial <= 0 {
		return fmt.Errorf("%w: timeout_initial must be positive, got %s", ErrInvalidConfig, c.TimeoutInitial)
	}
	if c.TimeoutScale < 1 {
		return fmt.Errorf("%w: timeout_scale must be >= 1, got %g", ErrInvalidConfig, c.TimeoutScale)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max_attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	return nil
}

func (c *Config) log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
