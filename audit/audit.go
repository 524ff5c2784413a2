// Package audit renders human-readable reports of a compression run:
// what was compressed, to what, and at what cost.
package audit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/benhall-io/squish/compress"
)

// Report collects everything one compression run produced.
type Report struct {
	SourceID string
	CloneID  string
	Stats    compress.Stats
	Tasks    []*compress.Task
}

// originalPreviewLen bounds how much source text a report quotes;
// compressed results are short by construction and quoted whole.
const originalPreviewLen = 400

// Render produces the report as markdown.
func Render(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Compression report\n\n")
	fmt.Fprintf(&b, "- Source session: `%s`\n", r.SourceID)
	fmt.Fprintf(&b, "- Clone session: `%s`\n\n", r.CloneID)

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Messages compressed | %d |\n", r.Stats.MessagesCompressed)
	fmt.Fprintf(&b, "| Messages skipped | %d |\n", r.Stats.MessagesSkipped)
	fmt.Fprintf(&b, "| Messages failed | %d |\n", r.Stats.MessagesFailed)
	fmt.Fprintf(&b, "| Original tokens (est.) | %d |\n", r.Stats.OriginalTokens)
	fmt.Fprintf(&b, "| Compressed tokens (est.) | %d |\n", r.Stats.CompressedTokens)
	fmt.Fprintf(&b, "| Reduction | %d%% |\n\n", r.Stats.ReductionPercent)

	if len(r.Tasks) == 0 {
		fmt.Fprintf(&b, "No units were eligible for compression.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "## Units\n\n")
	for _, t := range r.Tasks {
		fmt.Fprintf(&b, "### Turn %d, %s\n\n", t.TurnIndex(), t.Role)
		fmt.Fprintf(&b, "- Level: %s\n", t.Level)
		fmt.Fprintf(&b, "- Status: %s\n", t.Status)
		fmt.Fprintf(&b, "- Original tokens (est.): %d\n", t.EstimatedTokens)

		switch t.Status {
		case compress.StatusSuccess:
			fmt.Fprintf(&b, "- Compressed tokens (est.): %d\n\n", compress.EstimateTokens(t.Result))
			fmt.Fprintf(&b, "Original:\n\n%s\n\n", quote(preview(t.OriginalText)))
			fmt.Fprintf(&b, "Compressed:\n\n%s\n\n", quote(t.Result))
		case compress.StatusFailed:
			fmt.Fprintf(&b, "- Error: %v\n\n", t.Err)
		default:
			fmt.Fprintf(&b, "\n")
		}
	}

	return b.String()
}

// RenderHTML produces the report as sanitized HTML.
func RenderHTML(r Report) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var buf bytes.Buffer
	if err := md.Convert([]byte(Render(r)), &buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	// Session text is untrusted input; strip anything executable.
	return bluemonday.UGCPolicy().SanitizeBytes(buf.Bytes()), nil
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= originalPreviewLen {
		return s
	}
	return string(runes[:originalPreviewLen]) + " […]"
}

func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
