// Package summary turns a room's message list into a transcript and asks a
// text generation service for a prose summary of it.
package summary

import (
	"context"
	"log/slog"
	"time"

	"github.com/nfrund/roomchat/internal/domain"
)

// Generator is a single-shot text completion service.
type Generator interface {
	// IsConfigured reports whether a credential is available.
	IsConfigured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer validates the message list, builds the prompt and calls the Generator.
type Summarizer struct {
	gen Generator
	loc *time.Location
}

// NewSummarizer creates a Summarizer. loc is the display zone used for
// transcript timestamps.
func NewSummarizer(gen Generator, loc *time.Location) *Summarizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Summarizer{gen: gen, loc: loc}
}

// Summarize returns the generated summary text verbatim. Precondition
// failures are reported without calling the Generator. All errors are
// *domain.Error values carrying a user-facing message.
func (s *Summarizer) Summarize(ctx context.Context, messages []domain.Message) (string, error) {
	const op = "summary.Summarize"

	if len(messages) == 0 {
		return "", domain.E(domain.KindValidation, op, ErrEmptyConversation, "There are no messages to summarize yet.")
	}
	if s.gen == nil || !s.gen.IsConfigured() {
		return "", domain.E(domain.KindConfiguration, op, ErrNotConfigured, "Summaries are not available: no API key is configured.")
	}

	transcript := BuildTranscript(messages, s.loc)
	if transcript == "" {
		return "", domain.E(domain.KindValidation, op, ErrNoValidContent, "There is no valid content to summarize.")
	}

	started := time.Now()
	text, err := s.gen.Generate(ctx, BuildPrompt(transcript))
	if err != nil {
		kind := KindOf(err)
		slog.WarnContext(ctx, "Summary generation failed", "event", "summary_failed", "kind", kind.String(), "error", err)

		domainKind := domain.KindProvider
		if kind == KindNetwork {
			domainKind = domain.KindTransient
		}
		return "", domain.E(domainKind, op, err, kind.UserMessage())
	}

	slog.InfoContext(ctx, "Summary generated", "event", "summary_generated",
		"messages", len(messages), "duration_ms", time.Since(started).Milliseconds())
	return text, nil
}
