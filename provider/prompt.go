package provider

import "github.com/benhall-io/squish/types"

// regularSystemPrompt instructs the model to condense a single message
// while keeping most of its substance. Used for LevelRegular units.
const regularSystemPrompt = `You are a conversation compressor for recorded AI-assistant sessions. You are given one message from a longer conversation. Rewrite it so it is shorter but keeps everything a reader would need to follow the rest of the session.

Rules:
- Preserve file paths, function names, identifiers, error messages, and commands exactly.
- Preserve the author's intent and any decisions or constraints they stated.
- Drop greetings, hedging, repetition, and filler.
- Keep code blocks only if they are short or essential; otherwise describe what the code does in one line.
- Write in the same voice as the original (a user request stays a request, an assistant answer stays an answer).
- Output only the rewritten message, with no preamble or commentary.`

// heavySystemPrompt instructs the model to reduce a message to its bare
// essentials. Used for LevelHeavy units, typically the oldest part of a
// session.
const heavySystemPrompt = `You are a conversation compressor for recorded AI-assistant sessions. You are given one message from an old part of a longer conversation. Reduce it to the minimum a reader needs: what was asked or done, and the outcome.

Rules:
- At most a few sentences. Bullet points are fine.
- Preserve file paths, identifiers, and error messages exactly when they appear.
- Drop all code blocks; name the file or function they concerned instead.
- Drop everything conversational.
- Output only the reduced message, with no preamble or commentary.`

// systemPromptFor returns the system prompt for a compression level.
func systemPromptFor(level types.Level) string {
	if level == types.LevelHeavy {
		return heavySystemPrompt
	}
	return regularSystemPrompt
}

// buildUserPrompt wraps the unit text for the summarization request.
func buildUserPrompt(text string) string {
	return `Compress the following message according to your instructions.

<message>
` + text + `
</message>`
}
