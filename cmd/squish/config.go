package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/benhall-io/squish/compress"
	"github.com/benhall-io/squish/types"
)

// fileConfig is the optional YAML configuration. Flags override it.
type fileConfig struct {
	Concurrency int `yaml:"concurrency"`
	MinTokens   int `yaml:"min_tokens"`
	MaxAttempts int `yaml:"max_attempts"`
	// TimeoutInitial is a Go duration string, e.g. "45s".
	TimeoutInitial string       `yaml:"timeout_initial"`
	TimeoutScale   float64      `yaml:"timeout_scale"`
	Model          string       `yaml:"model"`
	CloneDir       string       `yaml:"clone_dir"`
	Bands          []bandConfig `yaml:"bands"`
}

type bandConfig struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Level string  `yaml:"level"`
}

func loadConfigFile(path string) (*fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func (c *fileConfig) engineConfig() (compress.Config, error) {
	var timeout time.Duration
	if c.TimeoutInitial != "" {
		var err error
		timeout, err = time.ParseDuration(c.TimeoutInitial)
		if err != nil {
			return compress.Config{}, fmt.Errorf("timeout_initial: %w", err)
		}
	}
	return compress.Config{
		Concurrency:    c.Concurrency,
		MinTokens:      c.MinTokens,
		MaxAttempts:    c.MaxAttempts,
		TimeoutInitial: timeout,
		TimeoutScale:   c.TimeoutScale,
	}, nil
}

func (c *fileConfig) bands() ([]compress.Band, error) {
	bands := make([]compress.Band, 0, len(c.Bands))
	for _, b := range c.Bands {
		level := types.Level(b.Level)
		if !level.Valid() {
			return nil, fmt.Errorf("unknown compression level %q", b.Level)
		}
		bands = append(bands, compress.Band{Start: b.Start, End: b.End, Level: level})
	}
	return bands, nil
}

// parseBandFlag parses a "start:end:level" band, e.g. "0:50:heavy".
func parseBandFlag(s string) (compress.Band, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return compress.Band{}, fmt.Errorf("band %q: want start:end:level", s)
	}
	start, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return compress.Band{}, fmt.Errorf("band %q: bad start: %w", s, err)
	}
	end, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return compress.Band{}, fmt.Errorf("band %q: bad end: %w", s, err)
	}
	level := types.Level(parts[2])
	if !level.Valid() {
		return compress.Band{}, fmt.Errorf("band %q: unknown level %q", s, parts[2])
	}
	return compress.Band{Start: start, End: end, Level: level}, nil
}
