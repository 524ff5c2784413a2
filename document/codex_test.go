package document

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/benhall-io/squish/types"
)

const codexSession = `{"timestamp":"2026-08-29T10:00:00.000Z","type":"session_meta","payload":{"id":"orig-id","cwd":"/work","cli_version":"0.21.0"}}
{"timestamp":"2026-08-29T10:00:01.000Z","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"fix the flaky test"}]}}
{"timestamp":"2026-08-29T10:00:02.000Z","type":"response_item","payload":{"type":"reasoning","summary":[{"type":"summary_text","text":"checking the test"}]}}
{"timestamp":"2026-08-29T10:00:03.000Z","type":"response_item","payload":{"type":"function_call","name":"shell","arguments":"{\"command\":[\"go\",\"test\"]}","call_id":"c1"}}
{"timestamp":"2026-08-29T10:00:04.000Z","type":"response_item","payload":{"type":"function_call_output","call_id":"c1","output":"ok"}}
{"timestamp":"2026-08-29T10:00:05.000Z","type":"response_item","payload":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"the race was in setup, fixed"}]}}
`

func codexDoc(t *testing.T) *Document {
	t.Helper()
	doc, err := Read(strings.NewReader(codexSession))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return doc
}

func TestCodexExtractTurns(t *testing.T) {
	adapter := NewCodexAdapter()
	conv, err := adapter.ExtractTurns(codexDoc(t))
	if err != nil {
		t.Fatalf("ExtractTurns() error = %v", err)
	}
	if len(conv) != 1 {
		t.Fatalf("got %d turns, want 1", len(conv))
	}

	if got := conv[0].Initiator.Text(); got != "fix the flaky test" {
		t.Errorf("initiator = %q", got)
	}
	if got := conv[0].Responder.Text(); got != "the race was in setup, fixed" {
		t.Errorf("responder = %q", got)
	}
	wantKinds := []types.SegmentKind{types.SegmentThinking, types.SegmentToolUse, types.SegmentToolResult}
	if len(conv[0].Auxiliary) != len(wantKinds) {
		t.Fatalf("auxiliary = %d segments, want %d", len(conv[0].Auxiliary), len(wantKinds))
	}
	for i, kind := range wantKinds {
		if conv[0].Auxiliary[i].Kind != kind {
			t.Errorf("auxiliary %d kind = %v, want %v", i, conv[0].Auxiliary[i].Kind, kind)
		}
	}
}

func TestCodexReconstruct(t *testing.T) {
	adapter := NewCodexAdapter()
	doc := codexDoc(t)
	conv, err := adapter.ExtractTurns(doc)
	if err != nil {
		t.Fatalf("ExtractTurns() error = %v", err)
	}

	conv[0].Responder.Fragments = []string{"fixed a setup race"}
	out, err := adapter.Reconstruct(doc, conv)
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if len(out.Lines) != len(doc.Lines) {
		t.Fatalf("line count changed: %d -> %d", len(doc.Lines), len(out.Lines))
	}

	// Meta, user, reasoning, and function records stay byte-identical.
	for _, i := range []int{0, 1, 2, 3, 4} {
		if !bytes.Equal(doc.Lines[i], out.Lines[i]) {
			t.Errorf("line %d changed:\n got %s\nwant %s", i, out.Lines[i], doc.Lines[i])
		}
	}
	if got := gjson.GetBytes(out.Lines[5], "payload.content.0.text").String(); got != "fixed a setup race" {
		t.Errorf("compressed text = %q", got)
	}
	if got := gjson.GetBytes(out.Lines[5], "timestamp").String(); got == "" {
		t.Error("record metadata lost on rewrite")
	}
}

func TestCodexReconstruct_NoChangeRoundTrips(t *testing.T) {
	adapter := NewCodexAdapter()
	doc := codexDoc(t)
	conv, err := adapter.ExtractTurns(doc)
	if err != nil {
		t.Fatalf("ExtractTurns() error = %v", err)
	}

	out, err := adapter.Reconstruct(doc, conv)
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if !bytes.Equal(doc.Bytes(), out.Bytes()) {
		t.Error("identity reconstruct altered the document")
	}
}

func TestCodexRebrand(t *testing.T) {
	adapter := NewCodexAdapter()
	doc := codexDoc(t)

	out := adapter.Rebrand(doc, "clone-id")
	if got := gjson.GetBytes(out.Lines[0], "payload.id").String(); got != "clone-id" {
		t.Errorf("session_meta id = %q", got)
	}
	for i := 1; i < len(out.Lines); i++ {
		if !bytes.Equal(out.Lines[i], doc.Lines[i]) {
			t.Errorf("non-meta line %d changed", i)
		}
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Source
		wantErr bool
	}{
		{"claude session", claudeSession, SourceClaude, false},
		{"codex session", codexSession, SourceCodex, false},
		{"unknown", `{"hello":"world"}` + "\n", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Read(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			adapter, err := Detect(doc)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Detect() found an adapter for unknown input")
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if adapter.Source() != tt.want {
				t.Errorf("Detect() = %v, want %v", adapter.Source(), tt.want)
			}
		})
	}
}
