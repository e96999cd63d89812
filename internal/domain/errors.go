package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for common failures.
var (
	ErrUserAlreadyExists      = errors.New("user with this email already exists")
	ErrInvalidCredentials     = errors.New("invalid credentials provided")
	ErrInvalidRegistrationKey = errors.New("invalid registration key")
	ErrWrongPasscode          = errors.New("wrong room passcode")
	ErrUnknownRoom            = errors.New("unknown room")
	ErrNotFound               = errors.New("requested resource not found")
)

// Kind classifies a failure for the purpose of recovery and user messaging.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuthentication: bad credentials.
	KindAuthentication
	// KindAuthorization: the caller is not allowed to perform the action
	// (e.g. wrong registration key).
	KindAuthorization
	// KindConfiguration: a required setting such as an API credential is missing.
	KindConfiguration
	// KindValidation: user input was rejected (wrong passcode, empty transcript).
	KindValidation
	// KindTransient: I/O against an external collaborator failed; retry may succeed.
	KindTransient
	// KindProvider: the summarization provider rejected the request.
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Op names the transition that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// E builds a classified error.
func E(kind Kind, op string, err error, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// UserMessage returns the short text shown to the user for a classified error.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Msg != "" {
		return de.Msg
	}
	return "Something went wrong. Please try again."
}
