package summary

import "strings"

const promptHeader = `You are summarizing a group chat conversation. Write a concise summary with the following sections:

1. Overview: two or three sentences describing what the conversation is about.
2. Main topics: a bulleted list of the subjects discussed.
3. Key participants: who contributed and what role each played.
4. Important points and decisions: anything agreed, decided or left open.
5. Tone: the overall mood of the conversation.

Only use information present in the transcript.

Transcript:
`

// BuildPrompt wraps a transcript in the summarization instructions.
func BuildPrompt(transcript string) string {
	var b strings.Builder
	b.Grow(len(promptHeader) + len(transcript))
	b.WriteString(promptHeader)
	b.WriteString(transcript)
	return b.String()
}
