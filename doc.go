// Package squish clones recorded AI-assistant sessions with their
// conversational text compressed.
//
// A recorded session (Claude Code or Codex JSONL) is mapped onto
// position bands that decide how aggressively each turn is summarized.
// An external provider produces the summaries; tool invocations, tool
// results, and thinking blocks are carried through byte-for-byte. The
// output is a new session file that the recording tool can resume,
// holding the same work at a fraction of the context cost.
//
// # Quick Start
//
//	client, err := squish.New(
//	    squish.WithProvider(provider.NewAnthropic(&anthropicClient)),
//	    squish.WithBands(
//	        compress.Band{Start: 0, End: 50, Level: types.LevelHeavy},
//	        compress.Band{Start: 50, End: 80, Level: types.LevelRegular},
//	    ),
//	)
//	res, err := client.Clone(ctx, "/home/me/.claude/projects/p/abc.jsonl")
//
// The clone is written beside the source with a fresh session ID, and
// res.Stats reports the token reduction.
//
// Failures are contained per message: a unit whose summarization keeps
// failing retains its original text, and the clone is still written.
package squish
