package database

import (
	"context"
	"fmt"

	"github.com/nfrund/roomchat/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

var _ domain.ProfileRepository = (*ProfileStore)(nil)

// ProfileStore keeps one profile document per user, keyed by the user id.
type ProfileStore struct {
	conn DBConnection
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(conn DBConnection) *ProfileStore {
	return &ProfileStore{conn: conn}
}

// Get returns the stored profile or (nil, nil) when the user has none.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	if userID == "" {
		return nil, NewDBError(ErrInvalidInput, "user id is required")
	}

	ctx, cancel := getTimeoutFromContext(ctx, s.conn.GetDBQueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	var rec *profileRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = QueryOne[profileRecord](ctx, db, "SELECT * FROM type::thing($table, $user)", map[string]any{
			"table": profileTable,
			"user":  userID,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	return &domain.Profile{UserID: userID, Nickname: rec.Nickname}, nil
}

// Put writes the profile document, replacing any previous one.
func (s *ProfileStore) Put(ctx context.Context, profile domain.Profile) error {
	if profile.UserID == "" {
		return NewDBError(ErrInvalidInput, "user id is required")
	}

	ctx, cancel := getTimeoutFromContext(ctx, s.conn.GetDBExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	query := "UPSERT type::thing($table, $user) CONTENT { user: $user, nickname: $nickname }"
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		return Execute(ctx, db, query, map[string]any{
			"table":    profileTable,
			"user":     profile.UserID,
			"nickname": profile.Nickname,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
