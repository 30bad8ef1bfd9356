package auth

import (
	"context"
	"sync"

	"github.com/fathima-sithara/snip/internal/backend"
	"go.uber.org/zap"
)

// TokenRevoker is satisfied by *Revoker.
type TokenRevoker interface {
	Revoke(ctx context.Context, c *Claims) error
}

// Provider is the client-side identity provider: it signs in through an
// Authenticator and remembers the principal as a token in a TokenStore.
type Provider struct {
	authn   backend.Authenticator
	tokens  *TokenManager
	store   TokenStore
	revoker TokenRevoker
	log     *zap.Logger

	mu     sync.RWMutex
	claims *Claims
}

// NewProvider restores a saved session when its token is still valid.
// revoker may be nil.
func NewProvider(authn backend.Authenticator, tokens *TokenManager, store TokenStore, revoker TokenRevoker, log *zap.Logger) *Provider {
	p := &Provider{authn: authn, tokens: tokens, store: store, revoker: revoker, log: log}
	raw, err := store.Load()
	if err != nil {
		log.Warn("could not read saved session", zap.Error(err))
		return p
	}
	if raw == "" {
		return p
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		log.Info("discarding saved session", zap.Error(err))
		_ = store.Clear()
		return p
	}
	p.claims = claims
	return p
}

func (p *Provider) CurrentUserID() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.claims == nil {
		return "", false
	}
	if p.claims.ExpiresAt != nil && !p.claims.ExpiresAt.After(p.tokens.now()) {
		return "", false
	}
	return p.claims.UserID, true
}

// Email is the address the current principal signed in with.
func (p *Provider) Email() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.claims == nil {
		return ""
	}
	return p.claims.Email
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (string, error) {
	id, err := p.authn.SignIn(ctx, email, password)
	if err != nil {
		return "", err
	}
	if err := p.remember(id, normalizeEmail(email)); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (string, error) {
	id, err := p.authn.SignUp(ctx, email, password)
	if err != nil {
		return "", err
	}
	if err := p.remember(id, normalizeEmail(email)); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Provider) remember(id, email string) error {
	raw, claims, err := p.tokens.Issue(id, email)
	if err != nil {
		return err
	}
	if err := p.store.Save(raw); err != nil {
		p.log.Warn("could not persist session", zap.Error(err))
	}
	p.mu.Lock()
	p.claims = claims
	p.mu.Unlock()
	return nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	claims := p.claims
	p.claims = nil
	p.mu.Unlock()

	var err error
	if claims != nil && p.revoker != nil {
		err = p.revoker.Revoke(ctx, claims)
	}
	if cerr := p.store.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
