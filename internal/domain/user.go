package domain

import (
	"context"
	"strings"
)

// Identity is the opaque result of a successful sign-in: the account id and
// the email it was registered with.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// User is the signed-in user as seen by a session.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// Profile is the per-user document holding display preferences.
type Profile struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// NicknameFromEmail derives a display name from the local part of an email address.
func NicknameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}

// Accounts is the contract for the external identity backend.
type Accounts interface {
	// VerifyCredentials returns the identity for a matching email/password pair
	// or ErrInvalidCredentials.
	VerifyCredentials(ctx context.Context, email, password string) (*Identity, error)
	// CreateAccount registers a new account. Returns ErrUserAlreadyExists for a taken email.
	CreateAccount(ctx context.Context, email, password string) (*Identity, error)
	// FindIdentity looks an account up by id. Returns ErrNotFound when absent.
	FindIdentity(ctx context.Context, id string) (*Identity, error)
}

// ProfileRepository reads and writes profile documents keyed by user id.
type ProfileRepository interface {
	// Get returns the profile for userID, or (nil, nil) when none is stored.
	Get(ctx context.Context, userID string) (*Profile, error)
	Put(ctx context.Context, profile Profile) error
}
