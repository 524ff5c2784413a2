package squish

import (
	"log/slog"

	"github.com/benhall-io/squish/compress"
	"github.com/benhall-io/squish/provider"
	"github.com/benhall-io/squish/scanner"
	"github.com/benhall-io/squish/store"
)

// Option is a functional option for configuring a Client.
type Option func(*Config) error

// WithProvider sets the summarization provider.
func WithProvider(p provider.Provider) Option {
	return func(c *Config) error {
		c.Provider = p
		return nil
	}
}

// WithStore sets where clones are persisted.
func WithStore(s store.Store) Option {
	return func(c *Config) error {
		c.Store = s
		return nil
	}
}

// WithScanner sets the session discovery roots.
func WithScanner(s *scanner.Scanner) Option {
	return func(c *Config) error {
		c.Scanner = s
		return nil
	}
}

// WithBands sets the compression bands. Bands cover turn positions on
// a 0-100 scale; an uncovered position is left uncompressed.
func WithBands(bands ...compress.Band) Option {
	return func(c *Config) error {
		if err := compress.ValidateBands(bands); err != nil {
			return err
		}
		c.Bands = bands
		return nil
	}
}

// WithEngineConfig sets concurrency, retry, and threshold settings for
// the compression engine.
func WithEngineConfig(cfg compress.Config) Option {
	return func(c *Config) error {
		c.Engine = cfg
		return nil
	}
}

// WithDryRun makes Clone run the full pipeline without provider calls,
// producing an uncompressed clone.
func WithDryRun(enabled bool) Option {
	return func(c *Config) error {
		c.DryRun = enabled
		return nil
	}
}

// WithLogger sets the structured logger for client and engine
// diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}
