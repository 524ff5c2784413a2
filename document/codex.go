package document

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/benhall-io/squish/types"
)

// CodexAdapter handles Codex rollout files: a session_meta record
// followed by response_item records whose payloads carry messages,
// function calls, and reasoning items.
type CodexAdapter struct{}

// NewCodexAdapter creates an adapter for the Codex rollout schema.
func NewCodexAdapter() *CodexAdapter {
	return &CodexAdapter{}
}

// Source implements Adapter.
func (a *CodexAdapter) Source() Source { return SourceCodex }

func (a *CodexAdapter) walk(doc *Document) (types.Conversation, []turnRefs, error) {
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
		if gjson.GetBytes(line, "type").String() != "response_item" {
			continue
		}
		payload := gjson.GetBytes(line, "payload")
		switch payload.Get("type").String() {
		case "message":
			role := payload.Get("role").String()
			var fragments []string
			var fragRefs []textRef
			for idx, block := range payload.Get("content").Array() {
				switch block.Get("type").String() {
				case "input_text", "output_text":
					fragments = append(fragments, block.Get("text").String())
					fragRefs = append(fragRefs, textRef{
						line:      i,
						path:      fmt.Sprintf("payload.content.%d.text", idx),
						blockPath: fmt.Sprintf("payload.content.%d", idx),
					})
				}
			}
			switch role {
			case "user":
				conv = append(conv, types.Turn{
					Initiator: types.Segment{Kind: types.SegmentText, Fragments: fragments},
					Responder: types.Segment{Kind: types.SegmentText},
				})
				refs = append(refs, turnRefs{initiator: fragRefs})
				current = len(conv) - 1
			case "assistant":
				ensureTurn()
				conv[current].Responder.Fragments = append(conv[current].Responder.Fragments, fragments...)
				refs[current].responder = append(refs[current].responder, fragRefs...)
			}

		case "function_call":
			ensureTurn()
			conv[current].Auxiliary = append(conv[current].Auxiliary, types.Segment{
				Kind: types.SegmentToolUse, Raw: []byte(payload.Raw),
			})

		case "function_call_output":
			ensureTurn()
			conv[current].Auxiliary = append(conv[current].Auxiliary, types.Segment{
				Kind: types.SegmentToolResult, Raw: []byte(payload.Raw),
			})

		case "reasoning":
			ensureTurn()
			conv[current].Auxiliary = append(conv[current].Auxiliary, types.Segment{
				Kind: types.SegmentThinking, Raw: []byte(payload.Raw),
			})
		}
	}

	return conv, refs, nil
}

// ExtractTurns implements Adapter.
func (a *CodexAdapter) ExtractTurns(doc *Document) (types.Conversation, error) {
	conv, _, err := a.walk(doc)
	return conv, err
}

// Reconstruct implements Adapter.
func (a *CodexAdapter) Reconstruct(doc *Document, conv types.Conversation) (*Document, error) {
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

	return pruneEmptiedCodexLines(out, touched), nil
}

// pruneEmptiedCodexLines drops message records whose content array was
// emptied by fragment removal.
func pruneEmptiedCodexLines(doc *Document, touched map[int]bool) *Document {
	out := &Document{Lines: make([][]byte, 0, len(doc.Lines))}
	for i, line := range doc.Lines {
		if touched[i] {
			content := gjson.GetBytes(line, "payload.content")
			if content.IsArray() && len(content.Array()) == 0 {
				continue
			}
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

// Rebrand stamps the session_meta record with the clone's identifier.
func (a *CodexAdapter) Rebrand(doc *Document, sessionID string) *Document {
	out := doc.Clone()
	for i, line := range out.Lines {
		if gjson.GetBytes(line, "type").String() != "session_meta" {
			continue
		}
		if updated, err := sjson.SetBytes(line, "payload.id", sessionID); err == nil {
			out.Lines[i] = updated
		}
	}
	return out
}
