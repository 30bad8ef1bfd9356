// Package backend holds the contracts of the external services snip runs
// on: the identity provider, the document store, and the realtime channel.
package backend

import (
	"context"

	"github.com/fathima-sithara/snip/internal/domain"
)

// Authenticator checks credentials and registers new accounts. Both calls
// return the user id of the principal.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, error)
	SignUp(ctx context.Context, email, password string) (string, error)
}

// AuthProvider is an Authenticator that also remembers who is signed in.
type AuthProvider interface {
	Authenticator
	CurrentUserID() (string, bool)
	SignOut(ctx context.Context) error
}

// ProfileStore keeps the public profile of every registered user.
type ProfileStore interface {
	// Get returns nil, nil when no profile exists for userID.
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Put(ctx context.Context, p domain.UserProfile) error
	// ListAll returns every profile, newest joinedAt first.
	ListAll(ctx context.Context) ([]domain.UserProfile, error)
}

// GroupStore creates groups and follows the groups a user belongs to.
type GroupStore interface {
	Create(ctx context.Context, g domain.Group) (string, error)
	// SubscribeByMember calls onChange with the full list of groups that
	// contain userID every time that list changes. Failures are delivered
	// through onChange as well.
	SubscribeByMember(ctx context.Context, userID string, onChange func([]domain.Group, error)) Subscription
}

// DirectMessageChannel is the append-only log behind each two-party room.
type DirectMessageChannel interface {
	// Subscribe replays the room from the start and then follows new
	// appends, in commit order, calling onAppend with a nil error for each.
	// A read failure the channel cannot recover from is delivered once
	// with a zero message, and the subscription then ends.
	Subscribe(ctx context.Context, roomKey string, onAppend func(domain.DirectMessage, error)) Subscription
	Append(ctx context.Context, roomKey string, m domain.DirectMessage) error
}
