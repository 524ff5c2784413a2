// Package document converts between on-disk conversation formats and
// the engine's abstract Turn/Segment model.
//
// One Adapter exists per supported schema (Claude Code JSONL, Codex
// JSONL). The adapter seam is what keeps the compression engine
// format-agnostic: the engine only ever sees types.Conversation, and
// the adapter owns the round-trip guarantee that every field not
// touched by compression survives byte-for-byte.
//
// Adapters rewrite lines with targeted JSON surgery (tidwall/sjson)
// instead of re-marshaling, so a line is only re-serialized where a
// compressed unit actually changed.
package document

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/benhall-io/squish/types"
)

// Sentinel errors for document operations.
var (
	// ErrUnknownFormat indicates the document matches no supported
	// conversation schema.
	ErrUnknownFormat = errors.New("unknown conversation format")

	// ErrMalformedDocument indicates the document could not be walked
	// as its schema requires.
	ErrMalformedDocument = errors.New("malformed conversation document")
)

// Source identifies a conversation schema.
type Source string

const (
	// SourceClaude is the Claude Code session format:
	// ~/.claude/projects/<project>/<session>.jsonl.
	SourceClaude Source = "claude"

	// SourceCodex is the Codex session format:
	// ~/.codex/sessions/.../rollout-*.jsonl.
	SourceCodex Source = "codex"
)

// Document is a parsed JSONL conversation file: one raw line per
// record, byte-preserved.
type Document struct {
	Lines [][]byte
}

// maxLineSize accommodates large tool outputs embedded in one line.
const maxLineSize = 10 * 1024 * 1024

// Read parses a JSONL stream into a Document.
func Read(r io.Reader) (*Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256*1024), maxLineSize)

	doc := &Document{}
	for sc.Scan() {
		line := make([]byte, len(sc.Bytes()))
		copy(line, sc.Bytes())
		doc.Lines = append(doc.Lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return doc, nil
}

// ReadFile reads a JSONL conversation file.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// WriteTo writes the document back out as JSONL.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, line := range d.Lines {
		written, err := w.Write(line)
		n += int64(written)
		if err != nil {
			return n, err
		}
		written, err = w.Write([]byte{'\n'})
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Bytes renders the document as JSONL.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	d.WriteTo(&buf) //nolint:errcheck // bytes.Buffer does not fail
	return buf.Bytes()
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{Lines: make([][]byte, len(d.Lines))}
	for i, line := range d.Lines {
		out.Lines[i] = make([]byte, len(line))
		copy(out.Lines[i], line)
	}
	return out
}

// Adapter converts between one concrete conversation schema and the
// engine's abstract model. Reconstruct must round-trip every field the
// engine did not touch unchanged.
type Adapter interface {
	// Source names the schema this adapter handles.
	Source() Source

	// ExtractTurns maps the document to the abstract turn model.
	ExtractTurns(doc *Document) (types.Conversation, error)

	// Reconstruct writes a (possibly compressed) conversation back
	// into a copy of the document. Lines whose text did not change are
	// carried over byte-identical.
	Reconstruct(doc *Document, conv types.Conversation) (*Document, error)

	// Rebrand returns a copy of the document stamped with a new
	// session identifier, so the clone can live beside its source.
	Rebrand(doc *Document, sessionID string) *Document
}

// ForSource returns the adapter for a known schema.
func ForSource(src Source) (Adapter, error) {
	switch src {
	case SourceClaude:
		return NewClaudeAdapter(), nil
	case SourceCodex:
		return NewCodexAdapter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, src)
	}
}

// SessionID extracts the recorded session identifier from the
// document's leading lines, or "" when none is present.
func SessionID(doc *Document) string {
	for i, line := range doc.Lines {
		if i >= 20 {
			break
		}
		if id := gjson.GetBytes(line, "sessionId").String(); id != "" {
			return id
		}
		if gjson.GetBytes(line, "type").String() == "session_meta" {
			if id := gjson.GetBytes(line, "payload.id").String(); id != "" {
				return id
			}
		}
	}
	return ""
}

// Detect inspects the document's leading lines and picks an adapter.
func Detect(doc *Document) (Adapter, error) {
	for i, line := range doc.Lines {
		if i >= 20 {
			break
		}
		if gjson.GetBytes(line, "sessionId").Exists() {
			return NewClaudeAdapter(), nil
		}
		typ := gjson.GetBytes(line, "type").String()
		if typ == "session_meta" || typ == "response_item" {
			return NewCodexAdapter(), nil
		}
	}
	return nil, ErrUnknownFormat
}
