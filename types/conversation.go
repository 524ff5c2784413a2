package types

import "strings"

// Level is the compression intensity applied to a text unit.
type Level string

const (
	// LevelRegular asks the provider for a moderate summary that keeps
	// most of the original detail.
	LevelRegular Level = "regular"

	// LevelHeavy asks the provider for an aggressive summary that keeps
	// only the essentials.
	LevelHeavy Level = "heavy"
)

// Valid reports whether l is a known compression level.
func (l Level) Valid() bool {
	return l == LevelRegular || l == LevelHeavy
}

// SegmentKind identifies the type of content a segment carries.
type SegmentKind string

const (
	// SegmentText is user- or assistant-authored prose, the only kind
	// the engine ever compresses.
	SegmentText SegmentKind = "text"

	// SegmentToolUse is a tool invocation emitted by the assistant.
	SegmentToolUse SegmentKind = "tool_use"

	// SegmentToolResult is the output returned by a tool.
	SegmentToolResult SegmentKind = "tool_result"

	// SegmentThinking is internal reasoning attached to a turn.
	SegmentThinking SegmentKind = "thinking"
)

// Segment is a typed portion of a turn's content.
//
// Text segments carry one or more Fragments that are logically a single
// unit (an assistant reply split across stream events, for example).
// Auxiliary segments (tool_use, tool_result, thinking) carry their
// original serialized form in Raw and are opaque to the engine: they
// must survive a compression run byte-for-byte.
type Segment struct {
	Kind      SegmentKind
	Fragments []string
	Raw       []byte
}

// Text returns the segment's fragments joined into the single logical
// unit the engine operates on.
func (s Segment) Text() string {
	switch len(s.Fragments) {
	case 0:
		return ""
	case 1:
		return s.Fragments[0]
	}
	return strings.Join(s.Fragments, "\n")
}

// TextSegment builds a text segment from one fragment.
func TextSegment(text string) Segment {
	return Segment{Kind: SegmentText, Fragments: []string{text}}
}

// Turn is one user/assistant exchange.
type Turn struct {
	// Initiator is the user-authored text that opened the exchange.
	Initiator Segment

	// Responder is the assistant-authored text, possibly assembled from
	// multiple fragments. It may be empty for a trailing user turn that
	// never received a reply.
	Responder Segment

	// Auxiliary holds tool invocations, tool results, and reasoning in
	// their original order. The engine carries them through unchanged.
	Auxiliary []Segment
}

// Conversation is an ordered sequence of turns. Turn order is stable
// and is the only input to position-based band mapping.
type Conversation []Turn

// Clone returns a deep copy of the conversation. Mutating the copy
// never affects the original.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	for i, turn := range c {
		out[i] = Turn{
			Initiator: turn.Initiator.clone(),
			Responder: turn.Responder.clone(),
		}
		if turn.Auxiliary != nil {
			out[i].Auxiliary = make([]Segment, len(turn.Auxiliary))
			for j, aux := range turn.Auxiliary {
				out[i].Auxiliary[j] = aux.clone()
			}
		}
	}
	return out
}

func (s Segment) clone() Segment {
	out := Segment{Kind: s.Kind}
	if s.Fragments != nil {
		out.Fragments = make([]string, len(s.Fragments))
		copy(out.Fragments, s.Fragments)
	}
	if s.Raw != nil {
		out.Raw = make([]byte, len(s.Raw))
		copy(out.Raw, s.Raw)
	}
	return out
}
