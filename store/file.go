package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/benhall-io/squish/document"
)

// File writes clones as JSONL files beside a metadata sidecar, so a
// clone written into a session directory is picked up by the recording
// tool like any other session.
type File struct {
	// Dir is where clones are written. Empty means beside the source
	// file, which is how a Claude Code clone becomes resumable.
	Dir string
}

// NewFile creates a filesystem store rooted at dir.
func NewFile(dir string) *File {
	return &File{Dir: dir}
}

const sidecarSuffix = ".squish.json"

func (f *File) dirFor(clone *Clone) string {
	if f.Dir != "" {
		return f.Dir
	}
	return filepath.Dir(clone.SourcePath)
}

// SaveClone implements Store. The document is written atomically via a
// temp file rename so a crash never leaves a half-written session.
func (f *File) SaveClone(ctx context.Context, clone *Clone, doc *document.Document) error {
	dir := f.dirFor(clone)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save clone: %w", err)
	}

	path := filepath.Join(dir, clone.ID+".jsonl")
	tmp := path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("save clone: %w", err)
	}
	if _, err := doc.WriteTo(out); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("save clone: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save clone: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save clone: %w", err)
	}
	clone.Path = path

	meta, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Errorf("save clone metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, clone.ID+sidecarSuffix), meta, 0o644); err != nil {
		return fmt.Errorf("save clone metadata: %w", err)
	}
	return nil
}

// GetClone implements Store.
func (f *File) GetClone(ctx context.Context, id string) (*Clone, error) {
	if f.Dir == "" {
		return nil, fmt.Errorf("get clone: %w: file store has no root directory", ErrCloneNotFound)
	}
	data, err := os.ReadFile(filepath.Join(f.Dir, id+sidecarSuffix))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("get clone %s: %w", id, ErrCloneNotFound)
		}
		return nil, fmt.Errorf("get clone: %w", err)
	}
	var clone Clone
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, fmt.Errorf("get clone: %w", err)
	}
	return &clone, nil
}

// ListClones implements Store.
func (f *File) ListClones(ctx context.Context, sourceID string) ([]*Clone, error) {
	if f.Dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list clones: %w", err)
	}

	var clones []*Clone
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), sidecarSuffix) {
			continue
		}
		clone, err := f.GetClone(ctx, strings.TrimSuffix(e.Name(), sidecarSuffix))
		if err != nil {
			continue
		}
		if sourceID != "" && clone.SourceID != sourceID {
			continue
		}
		clones = append(clones, clone)
	}
	sort.Slice(clones, func(i, j int) bool {
		return clones[i].CreatedAt.After(clones[j].CreatedAt)
	})
	return clones, nil
}
