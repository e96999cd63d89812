package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/nfrund/roomchat/internal/domain"
)

// TimestampLayout is the layout used for transcript timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// UnknownTime replaces the timestamp of messages the store has not stamped yet.
const UnknownTime = "Unknown time"

// BuildTranscript renders messages as one line each in the order given:
//
//	[2024-01-01 00:00:00] alice: hi
//
// Messages without text or nickname are skipped. loc selects the display
// time zone; nil means UTC.
func BuildTranscript(messages []domain.Message, loc *time.Location) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		if line, ok := transcriptLine(m, loc); ok {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func transcriptLine(m domain.Message, loc *time.Location) (string, bool) {
	nickname := strings.TrimSpace(m.AuthorNickname)
	if strings.TrimSpace(m.Text) == "" || nickname == "" {
		return "", false
	}
	return fmt.Sprintf("[%s] %s: %s", FormatTimestamp(m.CreatedAt, loc), nickname, m.Text), true
}

// FormatTimestamp renders t in loc, or UnknownTime for the zero time.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return UnknownTime
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimestampLayout)
}
