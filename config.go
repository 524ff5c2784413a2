package squish

import (
	"log/slog"

	"github.com/benhall-io/squish/compress"
	"github.com/benhall-io/squish/provider"
	"github.com/benhall-io/squish/scanner"
	"github.com/benhall-io/squish/store"
)

// Config holds a client's assembled collaborators. Most callers build
// it through New and the functional options.
type Config struct {
	// Provider produces summaries. Required unless DryRun is set.
	Provider provider.Provider

	// Store persists clones. Defaults to a filesystem store writing
	// beside each source session.
	Store store.Store

	// Scanner discovers sessions for List and for resolving session
	// IDs to paths. Defaults to the standard data directories.
	Scanner *scanner.Scanner

	// Bands define which turn positions get compressed, and how hard.
	// Empty bands make Clone a plain copy.
	Bands []compress.Band

	// Engine carries concurrency, retry, and threshold settings.
	Engine compress.Config

	// DryRun replaces the provider with a no-op that leaves every unit
	// untouched, so the pipeline can be exercised without API calls.
	DryRun bool

	// Logger receives structured progress logs. Defaults to discard.
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Store == nil {
		c.Store = store.NewFile("")
	}
	if c.Scanner == nil {
		c.Scanner = &scanner.Scanner{}
	}
	if c.Engine.Logger == nil {
		c.Engine.Logger = c.Logger
	}
	c.Engine.ApplyDefaults()
}

func (c *Config) validate() error {
	if c.Provider == nil && !c.DryRun {
		return newError("Validate", "", ErrNoProvider)
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	return compress.ValidateBands(c.Bands)
}

func (c *Config) log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
