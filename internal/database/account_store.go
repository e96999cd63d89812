package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nfrund/roomchat/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

var _ domain.Accounts = (*AccountStore)(nil)

// AccountStore is the identity backend. Passwords are hashed and compared
// by SurrealDB's argon2 functions and never leave the database.
type AccountStore struct {
	conn DBConnection
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(conn DBConnection) *AccountStore {
	return &AccountStore{conn: conn}
}

// VerifyCredentials returns the identity matching email and password.
func (s *AccountStore) VerifyCredentials(ctx context.Context, email, password string) (*domain.Identity, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.GetDBQueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	query := "SELECT id, email FROM user WHERE email = $email AND crypto::argon2::compare(password, $password)"
	params := map[string]any{"email": normalizeEmail(email), "password": password}

	var rec *identityRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = QueryOne[identityRecord](ctx, db, query, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify credentials: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrInvalidCredentials
	}
	return rec.toDomain(), nil
}

// CreateAccount registers a new account with an argon2-hashed password.
func (s *AccountStore) CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, NewDBError(ErrInvalidInput, "email and password are required")
	}

	ctx, cancel := getTimeoutFromContext(ctx, s.conn.GetDBExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	var rec *identityRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		existing, err := QueryOne[identityRecord](ctx, db, "SELECT id, email FROM user WHERE email = $email", map[string]any{"email": email})
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrUserAlreadyExists
		}

		query := "CREATE user SET email = $email, password = crypto::argon2::generate($password) RETURN id, email"
		rec, err = QueryOne[identityRecord](ctx, db, query, map[string]any{"email": email, "password": password})
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) || isUniqueViolation(err) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	if rec == nil {
		return nil, NewDBError(ErrQueryFailed, "account was not created")
	}
	return rec.toDomain(), nil
}

// FindIdentity looks an account up by its record id (e.g. "user:abc").
func (s *AccountStore) FindIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	if !strings.HasPrefix(id, userTable+":") {
		return nil, domain.ErrNotFound
	}

	ctx, cancel := getTimeoutFromContext(ctx, s.conn.GetDBQueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	var rec *identityRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = QueryOne[identityRecord](ctx, db, "SELECT id, email FROM type::thing($id)", map[string]any{"id": id})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec.toDomain(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isUniqueViolation detects the index error raised when two registrations race
// past the existence check. SurrealDB reports statement failures as a
// QueryError carrying only text, so the unique index is recognised by its
// message. Transport and other driver errors never match.
func isUniqueViolation(err error) bool {
	var qe *surrealdb.QueryError
	if !errors.As(err, &qe) || qe == nil {
		return false
	}
	msg := strings.ToLower(qe.Message)
	return strings.Contains(msg, "index") && strings.Contains(msg, "already contains")
}
