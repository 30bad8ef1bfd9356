// Package app is the glue between the screens and the backend: it validates
// form input, calls the collaborators and shapes what comes back.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fathima-sithara/snip/internal/backend"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/fathima-sithara/snip/internal/events"
	"github.com/fathima-sithara/snip/internal/metrics"
	"github.com/fathima-sithara/snip/internal/projection"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	DefaultProfileName   = "User"
	DefaultRecipientName = "Chat"
)

var ErrEmptyMessage = errors.New("message text is empty")

type Deps struct {
	Auth     backend.Authenticator
	Profiles backend.ProfileStore
	Groups   backend.GroupStore
	Chats    backend.DirectMessageChannel
	// Events is optional.
	Events   events.Publisher
	Location *time.Location
	Log      *zap.Logger
	Now      func() time.Time
}

type App struct {
	auth     backend.Authenticator
	profiles backend.ProfileStore
	groups   backend.GroupStore
	chats    backend.DirectMessageChannel
	events   events.Publisher
	loc      *time.Location
	log      *zap.Logger
	now      func() time.Time
	validate *validator.Validate
}

func New(d Deps) *App {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	return &App{
		auth:     d.Auth,
		profiles: d.Profiles,
		groups:   d.Groups,
		chats:    d.Chats,
		events:   d.Events,
		loc:      d.Location,
		log:      d.Log,
		now:      d.Now,
		validate: validator.New(),
	}
}

func (a *App) nowMillis() int64 { return a.now().UnixMilli() }

// Location is the zone time labels are rendered in.
func (a *App) Location() *time.Location { return a.loc }

// SignUp registers the account and writes its profile. A failed profile
// write is returned but leaves the account signed in.
func (a *App) SignUp(ctx context.Context, f SignupForm) (*domain.UserProfile, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	if err := a.validateSignup(f); err != nil {
		return nil, err
	}

	id, err := a.auth.SignUp(ctx, f.Email, f.Password)
	if err != nil {
		countAuthFailure(err)
		return nil, err
	}
	p := domain.UserProfile{
		UserID:   id,
		Name:     f.Name,
		Email:    strings.ToLower(f.Email),
		JoinedAt: a.nowMillis(),
	}
	if err := a.profiles.Put(ctx, p); err != nil {
		a.log.Error("profile write after sign up failed", zap.String("user_id", id), zap.Error(err))
		return &p, err
	}
	return &p, nil
}

func (a *App) SignIn(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return "", errs.FieldErrors{{Field: "credentials", Message: "Please fill in all fields"}}
	}
	id, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		countAuthFailure(err)
		return "", err
	}
	return id, nil
}

func countAuthFailure(err error) {
	var ae *errs.AuthError
	if errors.As(err, &ae) {
		metrics.AuthFailures.WithLabelValues(string(ae.Code)).Inc()
	}
}

// EnsureProfile returns the caller's profile, creating one named after the
// email's local part when none exists yet.
func (a *App) EnsureProfile(ctx context.Context, me, email string) (*domain.UserProfile, error) {
	p, err := a.profiles.Get(ctx, me)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	name := DefaultProfileName
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		name = local
	}
	created := domain.UserProfile{UserID: me, Name: name, Email: email, JoinedAt: a.nowMillis()}
	if err := a.profiles.Put(ctx, created); err != nil {
		return nil, err
	}
	a.log.Info("created missing profile", zap.String("user_id", me))
	return &created, nil
}

func (a *App) Profile(ctx context.Context, id string) (*domain.UserProfile, error) {
	return a.profiles.Get(ctx, id)
}

// Users lists everyone but the caller, newest first.
func (a *App) Users(ctx context.Context, me string) ([]projection.UserRow, error) {
	all, err := a.profiles.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return projection.Users(me, all), nil
}

// RecipientName never fails; lookups that miss fall back to "Chat".
func (a *App) RecipientName(ctx context.Context, peer string) string {
	p, err := a.profiles.Get(ctx, peer)
	if err != nil {
		a.log.Warn("recipient lookup failed", zap.String("peer", peer), zap.Error(err))
		return DefaultRecipientName
	}
	if p == nil || p.Name == "" {
		return DefaultRecipientName
	}
	return p.Name
}
