// Package compress implements the context compression engine.
//
// The engine turns a conversation plus a list of position bands into a
// compressed clone of the conversation:
//
//  1. MapBands assigns each turn a compression band (or none) by its
//     relative position in the conversation.
//  2. BuildTasks extracts the compressible text units from banded turns
//     and decides skip-vs-compress per unit using a cheap token
//     estimate.
//  3. Execute runs the pending tasks against a summarization provider
//     under a bounded worker pool with retry and escalating timeouts.
//  4. Reconcile writes successful results back into a copy of the
//     conversation, leaving skipped and failed units untouched and
//     never touching tool invocations, tool results, or reasoning.
//  5. Summarize reduces the task outcomes into aggregate statistics.
//
// Run ties the five steps together. The engine holds no state between
// invocations and reads no ambient configuration; everything it needs
// arrives through its arguments.
//
// # Failure model
//
// Individual task failures are recovered locally: the clone keeps the
// original text for that unit and the failure is visible only through
// Stats and the task's Err field. Configuration errors reject the whole
// run synchronously, before any provider call. A completed clone always
// succeeds structurally, with the same turn count and identical
// non-text content, even under total provider failure.
package compress
