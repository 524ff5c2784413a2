package compress

import (
	"context"

	"github.com/benhall-io/squish/provider"
	"github.com/benhall-io/squish/types"
)

// Result is what a compression run hands back to the caller.
type Result struct {
	// Conversation is the compressed clone. It never shares memory
	// with the input.
	Conversation types.Conversation

	// Stats summarizes the run.
	Stats Stats

	// Tasks is the frozen task list, for auditing. Nil when the run
	// short-circuited on an empty band list.
	Tasks []*Task
}

// Run executes a full compression pass over the conversation.
//
// Configuration and band errors reject synchronously, before any
// provider call. An empty band list short-circuits: the result is a
// deep copy of the input with zeroed stats, and the provider is never
// invoked. A cancelled context stops dispatching new tasks and returns
// the context's error.
func Run(ctx context.Context, conv types.Conversation, bands []Band, cfg Config, prov provider.Provider) (*Result, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateBands(bands); err != nil {
		return nil, err
	}

	if len(bands) == 0 {
		return &Result{Conversation: conv.Clone()}, nil
	}

	mapping := MapBands(len(conv), bands)
	tasks := BuildTasks(conv, mapping, cfg.MinTokens)

	if err := Execute(ctx, tasks, prov, cfg); err != nil {
		return nil, err
	}

	out, err := Reconcile(conv, tasks)
	if err != nil {
		return nil, err
	}

	stats := Summarize(tasks)
	cfg.log().Info("compression run complete",
		"turns", len(conv),
		"compressed", stats.MessagesCompressed,
		"skipped", stats.MessagesSkipped,
		"failed", stats.MessagesFailed,
		"reduction_percent", stats.ReductionPercent,
	)

	return &Result{Conversation: out, Stats: stats, Tasks: tasks}, nil
}
