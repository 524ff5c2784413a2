package squish

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/benhall-io/squish/audit"
	"github.com/benhall-io/squish/compress"
	"github.com/benhall-io/squish/document"
	"github.com/benhall-io/squish/provider"
	"github.com/benhall-io/squish/scanner"
	"github.com/benhall-io/squish/store"
	"github.com/benhall-io/squish/types"
)

// Version is the current squish version
const Version = "0.1.0"

// Client wires session discovery, the compression engine, and clone
// persistence into one pipeline.
type Client struct {
	config Config
}

// New creates a client.
//
// Example:
//
//	client, err := squish.New(
//	    squish.WithProvider(provider.NewAnthropic(&anthropicClient)),
//	    squish.WithBands(compress.Band{Start: 0, End: 50, Level: types.LevelHeavy}),
//	)
func New(opts ...Option) (*Client, error) {
	var cfg Config
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{config: cfg}, nil
}

// CloneResult is everything one clone run produced.
type CloneResult struct {
	// Clone is the persisted clone record, including where it was
	// written.
	Clone *store.Clone

	// Stats summarizes the compression run.
	Stats compress.Stats

	// Report is the per-unit audit report, renderable as markdown or
	// HTML via the audit package.
	Report audit.Report
}

// List discovers recorded sessions, newest first.
func (c *Client) List(ctx context.Context) ([]scanner.Session, error) {
	return c.config.Scanner.ScanAll()
}

// Resolve maps a session identifier (or identifier prefix) to its
// discovered session.
func (c *Client) Resolve(ctx context.Context, sessionID string) (*scanner.Session, error) {
	sessions, err := c.config.Scanner.ScanAll()
	if err != nil {
		return nil, newError("Resolve", sessionID, err)
	}
	for i := range sessions {
		if sessions[i].ID == sessionID {
			return &sessions[i], nil
		}
	}
	// Fall back to prefix matching so short IDs from `squish list` work.
	var match *scanner.Session
	for i := range sessions {
		if len(sessionID) >= 4 && len(sessions[i].ID) > len(sessionID) && sessions[i].ID[:len(sessionID)] == sessionID {
			if match != nil {
				return nil, newError("Resolve", sessionID, ErrSessionNotFound).
					WithContext("reason", "ambiguous prefix")
			}
			match = &sessions[i]
		}
	}
	if match == nil {
		return nil, newError("Resolve", sessionID, ErrSessionNotFound)
	}
	return match, nil
}

// Clone compresses the session at path and persists the result as a
// new session. The argument may also be a session ID discoverable by
// the scanner.
//
// The clone always succeeds structurally: units whose summarization
// failed keep their original text, and the failure is visible in
// Stats and the Report.
func (c *Client) Clone(ctx context.Context, pathOrID string) (*CloneResult, error) {
	path := pathOrID
	if _, err := os.Stat(path); err != nil {
		sess, rerr := c.Resolve(ctx, pathOrID)
		if rerr != nil {
			return nil, rerr
		}
		path = sess.Path
	}

	doc, err := document.ReadFile(path)
	if err != nil {
		return nil, newError("Clone", "", err)
	}
	adapter, err := document.Detect(doc)
	if err != nil {
		return nil, newError("Clone", "", err).WithContext("path", path)
	}
	sourceID := document.SessionID(doc)

	conv, err := adapter.ExtractTurns(doc)
	if err != nil {
		return nil, newError("Clone", sourceID, err)
	}

	prov := c.config.Provider
	if c.config.DryRun {
		// Exercise the whole pipeline without spending provider calls.
		prov = provider.Func(func(ctx context.Context, text string, level types.Level) (string, error) {
			return text, nil
		})
	}

	started := time.Now()
	result, err := compress.Run(ctx, conv, c.config.Bands, c.config.Engine, prov)
	if err != nil {
		return nil, newError("Clone", sourceID, err)
	}

	rebuilt, err := adapter.Reconstruct(doc, result.Conversation)
	if err != nil {
		return nil, newError("Clone", sourceID, err)
	}

	cloneID := uuid.New().String()
	branded := adapter.Rebrand(rebuilt, cloneID)

	clone := &store.Clone{
		ID:         cloneID,
		SourceID:   sourceID,
		Source:     adapter.Source(),
		SourcePath: path,
		Stats:      result.Stats,
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.config.Store.SaveClone(ctx, clone, branded); err != nil {
		return nil, newError("Clone", sourceID, err).WithContext("clone_id", cloneID)
	}

	c.config.log().Info("clone complete",
		"source_id", sourceID,
		"clone_id", cloneID,
		"path", clone.Path,
		"compressed", result.Stats.MessagesCompressed,
		"failed", result.Stats.MessagesFailed,
		"reduction_percent", result.Stats.ReductionPercent,
		"duration", time.Since(started))

	return &CloneResult{
		Clone: clone,
		Stats: result.Stats,
		Report: audit.Report{
			SourceID: sourceID,
			CloneID:  cloneID,
			Stats:    result.Stats,
			Tasks:    result.Tasks,
		},
	}, nil
}
