// Package session tracks whether someone is signed in.
package session

import (
	"context"
	"sync"

	"github.com/fathima-sithara/snip/internal/backend"
)

type State int

const (
	Unknown State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Gate decides which screens are reachable. It implements
// backend.Authenticator so sign-in and sign-up flows move the state as a
// side effect of a successful call.
type Gate struct {
	provider backend.AuthProvider

	mu       sync.RWMutex
	state    State
	onChange func(State)
}

func NewGate(p backend.AuthProvider) *Gate {
	return &Gate{provider: p, state: Unknown}
}

// OnChange registers fn to be called after every transition.
func (g *Gate) OnChange(fn func(State)) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

// Start resolves the Unknown state from the provider's remembered principal.
func (g *Gate) Start() State {
	if _, ok := g.provider.CurrentUserID(); ok {
		g.set(Authenticated)
	} else {
		g.set(Unauthenticated)
	}
	return g.State()
}

// State moves an Authenticated gate to Unauthenticated once the provider
// no longer has a principal, e.g. after the token expired.
func (g *Gate) State() State {
	_, s := g.current()
	return s
}

// UserID is the signed-in principal, if any.
func (g *Gate) UserID() (string, bool) {
	id, s := g.current()
	return id, s == Authenticated
}

func (g *Gate) current() (string, State) {
	g.mu.RLock()
	s := g.state
	g.mu.RUnlock()
	if s != Authenticated {
		return "", s
	}
	id, ok := g.provider.CurrentUserID()
	if !ok {
		g.set(Unauthenticated)
		return "", Unauthenticated
	}
	return id, Authenticated
}

func (g *Gate) SignIn(ctx context.Context, email, password string) (string, error) {
	id, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		return "", err
	}
	g.set(Authenticated)
	return id, nil
}

func (g *Gate) SignUp(ctx context.Context, email, password string) (string, error) {
	id, err := g.provider.SignUp(ctx, email, password)
	if err != nil {
		return "", err
	}
	g.set(Authenticated)
	return id, nil
}

// SignOut always leaves the gate Unauthenticated. The provider error, if
// any, is returned for logging.
func (g *Gate) SignOut(ctx context.Context) error {
	err := g.provider.SignOut(ctx)
	g.set(Unauthenticated)
	return err
}

func (g *Gate) set(s State) {
	g.mu.Lock()
	changed := g.state != s
	g.state = s
	fn := g.onChange
	g.mu.Unlock()
	if changed && fn != nil {
		fn(s)
	}
}
