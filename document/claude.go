package document

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/benhall-io/squish/types"
)

// ClaudeAdapter handles Claude Code session files: one JSON record per
// line, with user/assistant records carrying Anthropic-style content
// blocks. Non-conversation records (summaries, file history snapshots,
// system events) are carried through untouched.
type ClaudeAdapter struct{}

// NewClaudeAdapter creates an adapter for the Claude Code schema.
func NewClaudeAdapter() *ClaudeAdapter {
	return &ClaudeAdapter{}
}

// Source implements Adapter.
func (a *ClaudeAdapter) Source() Source { return SourceClaude }

// textRef locates one extracted text value inside a document so a
// compressed result can be written back surgically.
type textRef struct {
	line int
	// path is the sjson path to the text value itself.
	path string
	// blockPath is the sjson path to the containing content block, or
	// "" when the record's content is a bare string.
	blockPath string
}

// turnRefs collects the text locations of one turn's two units.
type turnRefs struct {
	initiator []textRef
	responder []textRef
}

// walk classifies every line once, producing both the abstract
// conversation and the write-back locations. ExtractTurns and
// Reconstruct share it so the two directions can never disagree.
func (a *ClaudeAdapter) walk(doc *Document) (types.Conversation, []turnRefs, error) {
	var conv types.Conversation
	var refs []turnRefs

	current := -1
	ensureTurn := func() {
		if current < 0 {
			conv = append(conv, types.Turn{
				Initiator: types.Segment{Kind: types.SegmentText},
				Responder: types.Segment{Kind: types.SegmentText},
			})
			refs = append(refs, turnRefs{})
			current = len(conv) - 1
		}
	}

	for i, line := range doc.Lines {
		switch gjson.GetBytes(line, "type").String() {
		case "user":
			content := gjson.GetBytes(line, "message.content")
			switch {
			case content.Type == gjson.String:
				conv = append(conv, types.Turn{
					Initiator: types.Segment{Kind: types.SegmentText, Fragments: []string{content.String()}},
					Responder: types.Segment{Kind: types.SegmentText},
				})
				refs = append(refs, turnRefs{
					initiator: []textRef{{line: i, path: "message.content"}},
				})
				current = len(conv) - 1

			case content.IsArray():
				var fragments []string
				var fragRefs []textRef
				var aux []types.Segment
				for idx, block := range content.Array() {
					switch block.Get("type").String() {
					case "text":
						fragments = append(fragments, block.Get("text").String())
						fragRefs = append(fragRefs, textRef{
							line:      i,
							path:      fmt.Sprintf("message.content.%d.text", idx),
							blockPath: fmt.Sprintf("message.content.%d", idx),
						})
					case "tool_result":
						aux = append(aux, types.Segment{Kind: types.SegmentToolResult, Raw: []byte(block.Raw)})
					}
				}
				if len(fragments) > 0 {
					// A user text record opens a new turn.
					conv = append(conv, types.Turn{
						Initiator: types.Segment{Kind: types.SegmentText, Fragments: fragments},
						Responder: types.Segment{Kind: types.SegmentText},
					})
					refs = append(refs, turnRefs{initiator: fragRefs})
					current = len(conv) - 1
					conv[current].Auxiliary = append(conv[current].Auxiliary, aux...)
				} else if len(aux) > 0 {
					// Tool results continue the exchange in progress.
					ensureTurn()
					conv[current].Auxiliary = append(conv[current].Auxiliary, aux...)
				}
			}

		case "assistant":
			content := gjson.GetBytes(line, "message.content")
			if !content.IsArray() {
				continue
			}
			ensureTurn()
			for idx, block := range content.Array() {
				switch block.Get("type").String() {
				case "text":
					conv[current].Responder.Fragments = append(conv[current].Responder.Fragments, block.Get("text").String())
					refs[current].responder = append(refs[current].responder, textRef{
						line:      i,
						path:      fmt.Sprintf("message.content.%d.text", idx),
						blockPath: fmt.Sprintf("message.content.%d", idx),
					})
				case "tool_use":
					conv[current].Auxiliary = append(conv[current].Auxiliary, types.Segment{
						Kind: types.SegmentToolUse, Raw: []byte(block.Raw),
					})
				case "thinking":
					conv[current].Auxiliary = append(conv[current].Auxiliary, types.Segment{
						Kind: types.SegmentThinking, Raw: []byte(block.Raw),
					})
				}
			}
		}
	}

	return conv, refs, nil
}

// ExtractTurns implements Adapter.
func (a *ClaudeAdapter) ExtractTurns(doc *Document) (types.Conversation, error) {
	conv, _, err := a.walk(doc)
	return conv, err
}

// Reconstruct implements Adapter. Only lines whose unit text actually
// changed are re-serialized; everything else is carried over
// byte-identical, including tool invocations and results that share a
// line with compressed text.
func (a *ClaudeAdapter) Reconstruct(doc *Document, conv types.Conversation) (*Document, error) {
	original, refs, err := a.walk(doc)
	if err != nil {
		return nil, err
	}
	if len(conv) != len(original) {
		return nil, fmt.Errorf("%w: conversation has %d turns, document has %d",
			ErrMalformedDocument, len(conv), len(original))
	}

	out := doc.Clone()
	touched := make(map[int]bool)

	for i := range conv {
		if err := applyUnit(out, refs[i].initiator, original[i].Initiator.Text(), conv[i].Initiator.Text(), touched); err != nil {
			return nil, err
		}
		if err := applyUnit(out, refs[i].responder, original[i].Responder.Text(), conv[i].Responder.Text(), touched); err != nil {
			return nil, err
		}
	}

	return pruneEmptiedLines(out, touched), nil
}

// applyUnit writes one unit's text into the document when it changed:
// the first fragment location receives the full text and the remaining
// fragment blocks are removed, collapsing the unit to a single
// fragment.
func applyUnit(doc *Document, refs []textRef, originalText, newText string, touched map[int]bool) error {
	if newText == originalText || len(refs) == 0 {
		return nil
	}

	// Remove trailing fragment blocks first, highest index first, so
	// earlier paths stay valid.
	for i := len(refs) - 1; i >= 1; i-- {
		ref := refs[i]
		if ref.blockPath == "" {
			continue
		}
		line, err := sjson.DeleteBytes(doc.Lines[ref.line], ref.blockPath)
		if err != nil {
			return fmt.Errorf("%w: delete fragment: %v", ErrMalformedDocument, err)
		}
		doc.Lines[ref.line] = line
		touched[ref.line] = true
	}

	first := refs[0]
	line, err := sjson.SetBytes(doc.Lines[first.line], first.path, newText)
	if err != nil {
		return fmt.Errorf("%w: set text: %v", ErrMalformedDocument, err)
	}
	doc.Lines[first.line] = line
	touched[first.line] = true
	return nil
}

// pruneEmptiedLines drops records whose content array was emptied by
// fragment removal. Only lines modified in this pass are candidates;
// tool and result records are never touched and therefore never
// pruned.
func pruneEmptiedLines(doc *Document, touched map[int]bool) *Document {
	out := &Document{Lines: make([][]byte, 0, len(doc.Lines))}
	for i, line := range doc.Lines {
		if touched[i] {
			content := gjson.GetBytes(line, "message.content")
			if content.IsArray() && len(content.Array()) == 0 {
				continue
			}
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

// Rebrand stamps every record that carries a session identifier with
// the clone's new one.
func (a *ClaudeAdapter) Rebrand(doc *Document, sessionID string) *Document {
	out := doc.Clone()
	for i, line := range out.Lines {
		if !gjson.GetBytes(line, "sessionId").Exists() {
			continue
		}
		if updated, err := sjson.SetBytes(line, "sessionId", sessionID); err == nil {
			out.Lines[i] = updated
		}
	}
	return out
}
