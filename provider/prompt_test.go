package provider

import (
	"strings"
	"testing"

	"github.com/benhall-io/squish/types"
)

func TestSystemPromptFor(t *testing.T) {
	regular := systemPromptFor(types.LevelRegular)
	heavy := systemPromptFor(types.LevelHeavy)
	if regular == heavy {
		t.Error("regular and heavy levels share a system prompt")
	}
	// Unknown levels fall back to the conservative prompt.
	if got := systemPromptFor(types.Level("bogus")); got != regular {
		t.Errorf("unknown level prompt = %q, want regular", got)
	}
}

func TestBuildUserPrompt(t *testing.T) {
	got := buildUserPrompt("some conversation text")
	if !strings.Contains(got, "some conversation text") {
		t.Errorf("prompt does not carry the text: %q", got)
	}
	if !strings.Contains(got, "<message>") || !strings.Contains(got, "</message>") {
		t.Errorf("prompt does not delimit the text: %q", got)
	}
}
