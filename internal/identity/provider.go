// Package identity adapts the account backend into a per-session auth
// provider that reports sign-in state transitions to registered listeners.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/nfrund/roomchat/internal/domain"
)

// Listener is notified on every sign-in state transition. It receives the
// new identity, or nil after sign-out.
type Listener = func(ctx context.Context, id *domain.Identity)

// Provider tracks the signed-in identity of one browser session.
//
// The registration key is a shared secret handed out of band. Anyone who
// knows it can create accounts; it limits casual sign-ups and nothing more.
type Provider struct {
	accounts        domain.Accounts
	registrationKey string

	mu        sync.Mutex
	current   *domain.Identity
	listeners map[int]Listener
	nextID    int
}

// NewProvider creates a Provider backed by accounts.
func NewProvider(accounts domain.Accounts, registrationKey string) *Provider {
	return &Provider{
		accounts:        accounts,
		registrationKey: registrationKey,
		listeners:       make(map[int]Listener),
	}
}

// Current returns the signed-in identity or nil.
func (p *Provider) Current() *domain.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	id := *p.current
	return &id
}

// OnAuthStateChanged registers fn and returns a function that removes it.
func (p *Provider) OnAuthStateChanged(fn Listener) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// SignIn verifies email and password and makes the account the current identity.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	const op = "identity.SignIn"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.E(domain.KindValidation, op, nil, "Email and password are required.")
	}

	id, err := p.accounts.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.E(domain.KindAuthentication, op, err, "Invalid email or password.")
		}
		slog.ErrorContext(ctx, "Credential check failed", "event", "signin_backend_error", "error", err)
		return nil, domain.E(domain.KindTransient, op, err, "Could not sign in right now. Please try again.")
	}

	p.setCurrent(ctx, id)
	slog.InfoContext(ctx, "User signed in", "event", "signin_success", "user_id", id.ID)
	return id, nil
}

// Register creates an account after checking secretKey against the
// configured registration key, then signs the new account in.
func (p *Provider) Register(ctx context.Context, email, password, secretKey string) (*domain.Identity, error) {
	const op = "identity.Register"

	if !p.registrationKeyMatches(secretKey) {
		slog.WarnContext(ctx, "Registration rejected", "event", "register_bad_key")
		return nil, domain.E(domain.KindAuthorization, op, domain.ErrInvalidRegistrationKey, "Invalid registration key.")
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.E(domain.KindValidation, op, nil, "Email and password are required.")
	}

	id, err := p.accounts.CreateAccount(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, domain.E(domain.KindValidation, op, err, "An account with this email already exists.")
		}
		slog.ErrorContext(ctx, "Account creation failed", "event", "register_backend_error", "error", err)
		return nil, domain.E(domain.KindTransient, op, err, "Could not create the account right now. Please try again.")
	}

	p.setCurrent(ctx, id)
	slog.InfoContext(ctx, "User registered", "event", "register_success", "user_id", id.ID)
	return id, nil
}

// Restore re-establishes a previously signed-in identity by id, as after a
// process restart with a valid session cookie.
func (p *Provider) Restore(ctx context.Context, userID string) (*domain.Identity, error) {
	id, err := p.accounts.FindIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.setCurrent(ctx, id)
	return id, nil
}

// SignOut clears the current identity. Listeners are notified even when no
// identity was set.
func (p *Provider) SignOut(ctx context.Context) {
	p.setCurrent(ctx, nil)
}

func (p *Provider) setCurrent(ctx context.Context, id *domain.Identity) {
	p.mu.Lock()
	p.current = id
	listeners := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()

	for _, l := range listeners {
		l(ctx, id)
	}
}

func (p *Provider) registrationKeyMatches(key string) bool {
	if p.registrationKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(p.registrationKey)) == 1
}
