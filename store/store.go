// Package store persists compressed clones and their compression
// records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/benhall-io/squish/compress"
	"github.com/benhall-io/squish/document"
)

// ErrCloneNotFound indicates no clone exists with the requested ID.
var ErrCloneNotFound = errors.New("clone not found")

// Clone is the persisted record of one compression run's output.
type Clone struct {
	// ID is the clone's fresh session identifier.
	ID string `json:"id"`
	// SourceID is the session the clone was compressed from.
	SourceID string `json:"source_id"`
	// Source names the schema of the cloned session.
	Source document.Source `json:"source"`
	// SourcePath is where the original session lives.
	SourcePath string `json:"source_path"`
	// Path is where the clone document was written, when the store
	// writes files.
	Path string `json:"path,omitempty"`
	// Stats summarizes the compression run that produced the clone.
	Stats compress.Stats `json:"stats"`
	// CreatedAt is when the clone was persisted.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists clones.
type Store interface {
	// SaveClone persists the clone record and its document.
	SaveClone(ctx context.Context, clone *Clone, doc *document.Document) error

	// GetClone retrieves a clone record by ID. The document itself is
	// read from Clone.Path or the backing table by the caller's choice
	// of store.
	GetClone(ctx context.Context, id string) (*Clone, error)

	// ListClones returns the clones made from one source session,
	// newest first. An empty sourceID lists all clones.
	ListClones(ctx context.Context, sourceID string) ([]*Clone, error)
}
