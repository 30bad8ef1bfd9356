package auth

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/fathima-sithara/snip/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memCreds struct {
	mu      sync.Mutex
	byEmail map[string]domain.Credential
}

func newMemCreds() *memCreds { return &memCreds{byEmail: map[string]domain.Credential{}} }

func (m *memCreds) Create(_ context.Context, c domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[c.Email]; ok {
		return repository.ErrDuplicate
	}
	m.byEmail[c.Email] = c
	return nil
}

func (m *memCreds) FindByEmail(_ context.Context, email string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func newService() *Service {
	return NewService(newMemCreds(), ServiceConfig{BcryptCost: bcrypt.MinCost, PasswordMinEntropyBits: 28}, zap.NewNop())
}

func authCode(t *testing.T, err error) errs.AuthCode {
	t.Helper()
	var ae *errs.AuthError
	require.True(t, errors.As(err, &ae), "want AuthError, got %v", err)
	return ae.Code
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	id, err := svc.SignUp(ctx, "  Alice@Example.com ", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotContains(t, id, "_")

	got, err := svc.SignIn(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = svc.SignIn(ctx, "alice@example.com", "wrong password")
	assert.Equal(t, errs.AuthInvalidCredentials, authCode(t, err))

	_, err = svc.SignIn(ctx, "nobody@example.com", "whatever")
	assert.Equal(t, errs.AuthInvalidCredentials, authCode(t, err))
}

func TestSignUpErrors(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "taken@example.com", "correct horse battery")
	require.NoError(t, err)

	cases := []struct {
		name, email, password string
		want                  errs.AuthCode
		message               string
	}{
		{"bad email", "not-an-email", "correct horse battery", errs.AuthInvalidEmail, "Invalid email format"},
		{"short", "a@example.com", "abc", errs.AuthWeakPassword, "Password is too weak"},
		{"low entropy", "b@example.com", "aaaaaaaa", errs.AuthWeakPassword, "Password is too weak"},
		{"in use", "TAKEN@example.com", "correct horse battery", errs.AuthEmailInUse, "Email already in use"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tc.email, tc.password)
			assert.Equal(t, tc.want, authCode(t, err))
			assert.Equal(t, tc.message, errs.UserMessage(err))
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "snip", time.Hour)
	raw, issued, err := tm.Issue("u1", "a@b.c")
	require.NoError(t, err)

	claims, err := tm.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.Equal(t, issued.ID, claims.ID)

	_, err = NewTokenManager("other", "snip", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenManager("secret", "someone-else", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("secret", "snip", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }
	raw, _, err := tm.Issue("u1", "")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Parse(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	r := NewRevoker(rdb, "snip")
	_, claims, err := NewTokenManager("s", "snip", time.Hour).Issue("u1", "")
	require.NoError(t, err)

	revoked, err := r.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, claims))
	revoked, err = r.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = r.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
}

type recordingRevoker struct{ ids []string }

func (r *recordingRevoker) Revoke(_ context.Context, c *Claims) error {
	r.ids = append(r.ids, c.ID)
	return nil
}

func TestProviderSessionLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	tm := NewTokenManager("secret", "snip", time.Hour)
	svc := newService()
	rev := &recordingRevoker{}
	ctx := context.Background()

	p := NewProvider(svc, tm, NewFileTokenStore(path), rev, zap.NewNop())
	_, ok := p.CurrentUserID()
	assert.False(t, ok)

	id, err := p.SignUp(ctx, "bob@example.com", "correct horse battery")
	require.NoError(t, err)
	cur, ok := p.CurrentUserID()
	assert.True(t, ok)
	assert.Equal(t, id, cur)
	assert.Equal(t, "bob@example.com", p.Email())

	restored := NewProvider(svc, tm, NewFileTokenStore(path), rev, zap.NewNop())
	cur, ok = restored.CurrentUserID()
	assert.True(t, ok, "session survives a restart")
	assert.Equal(t, id, cur)

	require.NoError(t, restored.SignOut(ctx))
	_, ok = restored.CurrentUserID()
	assert.False(t, ok)
	assert.Len(t, rev.ids, 1)

	again := NewProvider(svc, tm, NewFileTokenStore(path), nil, zap.NewNop())
	_, ok = again.CurrentUserID()
	assert.False(t, ok, "sign out clears the saved token")
	require.NoError(t, again.SignOut(ctx))
}

func TestProviderFailedSignIn(t *testing.T) {
	p := NewProvider(newService(), NewTokenManager("s", "snip", time.Hour), NewFileTokenStore(filepath.Join(t.TempDir(), "s.json")), nil, zap.NewNop())

	_, err := p.SignIn(context.Background(), "ghost@example.com", "nope nope")
	assert.Equal(t, errs.AuthInvalidCredentials, authCode(t, err))
	_, ok := p.CurrentUserID()
	assert.False(t, ok)
}
