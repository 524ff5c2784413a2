package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/benhall-io/squish/types"
)

// Default model parameters for the Anthropic provider. A fast, cheap
// model is the right choice for per-unit summarization.
const (
	DefaultModel     = "claude-3-5-haiku-20241022"
	DefaultMaxTokens = 1024
)

// Anthropic compresses text units using Claude's streaming API.
type Anthropic struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// AnthropicOption configures an Anthropic provider.
type AnthropicOption func(*Anthropic)

// WithModel overrides the summarizer model.
func WithModel(model string) AnthropicOption {
	return func(a *Anthropic) {
		a.model = model
	}
}

// WithMaxTokens overrides the maximum tokens for the summarization
// response.
func WithMaxTokens(n int) AnthropicOption {
	return func(a *Anthropic) {
		a.maxTokens = n
	}
}

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(logger *slog.Logger) AnthropicOption {
	return func(a *Anthropic) {
		a.logger = logger
	}
}

// NewAnthropic creates a Claude-backed provider.
func NewAnthropic(client *anthropic.Client, opts ...AnthropicOption) *Anthropic {
	a := &Anthropic{
		client:    client,
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compress summarizes one text unit at the given level using the
// streaming API and accumulates the response into a single string.
func (a *Anthropic) Compress(ctx context.Context, text string, level types.Level) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}

	stream := a.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPromptFor(level)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(text))),
		},
	})

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return "", fmt.Errorf("%w: failed to accumulate stream: %v", ErrSummarizationFailed, err)
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(tb.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%w: empty response from summarizer", ErrSummarizationFailed)
	}

	a.logger.Debug("compressed unit",
		"level", string(level),
		"input_chars", len(text),
		"output_chars", out.Len(),
	)

	return strings.TrimSpace(out.String()), nil
}
