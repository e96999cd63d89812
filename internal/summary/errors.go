package summary

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyConversation is returned when there are no messages to summarize.
	ErrEmptyConversation = errors.New("no messages to summarize")

	// ErrNotConfigured indicates the summarization API key is not set.
	ErrNotConfigured = errors.New("summarization API key not configured")

	// ErrNoValidContent is returned when every message was filtered out of the transcript.
	ErrNoValidContent = errors.New("no valid content to summarize")
)

// ErrorKind is the closed set of provider failure classes.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindCredentialInvalid
	KindQuotaExceeded
	KindContentBlocked
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindCredentialInvalid:
		return "credential_invalid"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindContentBlocked:
		return "content_blocked"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// UserMessage is the banner text shown for a provider failure of this kind.
func (k ErrorKind) UserMessage() string {
	switch k {
	case KindCredentialInvalid:
		return "The summarization service rejected the API key. Check the configuration."
	case KindQuotaExceeded:
		return "The summarization quota is exhausted. Please try again later."
	case KindContentBlocked:
		return "The summarization service declined to summarize this conversation."
	case KindNetwork:
		return "Could not reach the summarization service. Please try again."
	default:
		return "Failed to generate a summary. Please try again."
	}
}

// ProviderError is a classified failure from the generation endpoint.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Status     string // structured status, e.g. RESOURCE_EXHAUSTED
	Reason     string // ErrorInfo reason or block reason
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("summary provider [%s]: %v", e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("summary provider [%s] (HTTP %d %s): %s", e.Kind, e.StatusCode, e.Status, e.Message)
	default:
		return fmt.Sprintf("summary provider [%s]: %s", e.Kind, e.Message)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf returns the provider error kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
