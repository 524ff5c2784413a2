// Package provider defines the summarization provider contract and its
// Anthropic-backed implementation.
//
// The compression engine calls a provider once per text unit and times
// the call out independently. Providers are treated as opaque: they may
// be slow, fail, or return text longer than the input, and the engine
// must stay correct in all three cases.
package provider

import (
	"context"
	"errors"

	"github.com/benhall-io/squish/types"
)

// Sentinel errors for provider operations.
var (
	// ErrEmptyInput indicates the provider was asked to compress an
	// empty text unit.
	ErrEmptyInput = errors.New("empty input text")

	// ErrSummarizationFailed indicates the upstream summarization call
	// failed or returned an unusable response.
	ErrSummarizationFailed = errors.New("summarization failed")
)

// Provider produces a compressed rendition of a single text unit.
type Provider interface {
	// Compress summarizes text at the given intensity level. The
	// returned text replaces the original in the cloned conversation.
	Compress(ctx context.Context, text string, level types.Level) (string, error)
}

// Func adapts a plain function to the Provider interface.
type Func func(ctx context.Context, text string, level types.Level) (string, error)

// Compress implements Provider.
func (f Func) Compress(ctx context.Context, text string, level types.Level) (string, error) {
	return f(ctx, text, level)
}
