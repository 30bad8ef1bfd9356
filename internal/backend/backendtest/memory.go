// Package backendtest provides in-memory collaborators for tests.
package backendtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fathima-sithara/snip/internal/backend"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/fathima-sithara/snip/internal/events"
)

// Auth accepts any password and hands out sequential ids.
type Auth struct {
	mu    sync.Mutex
	users map[string]string
	Err   error
}

func NewAuth() *Auth { return &Auth{users: map[string]string{}} }

func (f *Auth) SignUp(_ context.Context, email, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	email = strings.ToLower(email)
	if _, ok := f.users[email]; ok {
		return "", errs.NewAuthError(errs.AuthEmailInUse, nil)
	}
	id := fmt.Sprintf("u%d", len(f.users)+1)
	f.users[email] = id
	return id, nil
}

func (f *Auth) SignIn(_ context.Context, email, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.users[strings.ToLower(email)]
	if !ok {
		return "", errs.NewAuthError(errs.AuthInvalidCredentials, nil)
	}
	return id, nil
}

func (f *Auth) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type Profiles struct {
	mu     sync.Mutex
	byID   map[string]domain.UserProfile
	PutErr error
	GetErr error
}

func NewProfiles(ps ...domain.UserProfile) *Profiles {
	m := &Profiles{byID: map[string]domain.UserProfile{}}
	for _, p := range ps {
		m.byID[p.UserID] = p
	}
	return m
}

func (m *Profiles) Get(_ context.Context, id string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Profiles) Put(_ context.Context, p domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.byID[p.UserID] = p
	return nil
}

func (m *Profiles) ListAll(context.Context) ([]domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.UserProfile, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt != out[j].JoinedAt {
			return out[i].JoinedAt > out[j].JoinedAt
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// notifier wakes every waiter on each change.
type notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

func (n *notifier) wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch == nil {
		n.ch = make(chan struct{})
	}
	return n.ch
}

func (n *notifier) broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch != nil {
		close(n.ch)
	}
	n.ch = make(chan struct{})
}

type Channel struct {
	mu        sync.Mutex
	rooms     map[string][]domain.DirectMessage
	AppendErr error
	readErr   error
	changed   notifier
}

func NewChannel() *Channel { return &Channel{rooms: map[string][]domain.DirectMessage{}} }

func (c *Channel) Append(_ context.Context, key string, m domain.DirectMessage) error {
	c.mu.Lock()
	if c.AppendErr != nil {
		c.mu.Unlock()
		return c.AppendErr
	}
	m.ID = fmt.Sprintf("%d", len(c.rooms[key])+1)
	c.rooms[key] = append(c.rooms[key], m)
	c.mu.Unlock()
	c.changed.broadcast()
	return nil
}

// FailReads ends every live subscription with err, and every later one
// once it has replayed the room.
func (c *Channel) FailReads(err error) {
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
	c.changed.broadcast()
}

func (c *Channel) Room(key string) []domain.DirectMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.DirectMessage(nil), c.rooms[key]...)
}

func (c *Channel) Subscribe(ctx context.Context, key string, onAppend func(domain.DirectMessage, error)) backend.Subscription {
	return backend.Go(ctx, func(ctx context.Context) {
		next := 0
		for {
			wake := c.changed.wait()
			c.mu.Lock()
			pending := append([]domain.DirectMessage(nil), c.rooms[key][next:]...)
			readErr := c.readErr
			c.mu.Unlock()
			for _, m := range pending {
				if ctx.Err() != nil {
					return
				}
				onAppend(m, nil)
				next++
			}
			if readErr != nil {
				if ctx.Err() == nil {
					onAppend(domain.DirectMessage{}, readErr)
				}
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-wake:
			}
		}
	})
}

type Groups struct {
	mu        sync.Mutex
	groups    []domain.Group
	CreateErr error
	WatchErr  error
	changed   notifier
}

func NewGroups(gs ...domain.Group) *Groups {
	return &Groups{groups: append([]domain.Group(nil), gs...)}
}

func (g *Groups) Create(_ context.Context, grp domain.Group) (string, error) {
	g.mu.Lock()
	if g.CreateErr != nil {
		g.mu.Unlock()
		return "", g.CreateErr
	}
	grp.GroupID = fmt.Sprintf("g%d", len(g.groups)+1)
	g.groups = append(g.groups, grp)
	g.mu.Unlock()
	g.changed.broadcast()
	return grp.GroupID, nil
}

func (g *Groups) All() []domain.Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Group(nil), g.groups...)
}

func (g *Groups) byMember(id string) []domain.Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.Group
	for _, grp := range g.groups {
		if grp.HasMember(id) {
			out = append(out, grp)
		}
	}
	return out
}

func (g *Groups) SubscribeByMember(ctx context.Context, id string, onChange func([]domain.Group, error)) backend.Subscription {
	g.mu.Lock()
	watchErr := g.WatchErr
	g.mu.Unlock()
	return backend.Go(ctx, func(ctx context.Context) {
		if watchErr != nil {
			onChange(nil, watchErr)
			return
		}
		for {
			wake := g.changed.wait()
			onChange(g.byMember(id), nil)
			select {
			case <-ctx.Done():
				return
			case <-wake:
			}
		}
	})
}

// Events records everything published.
type Events struct {
	mu       sync.Mutex
	messages []events.MessageSent
	groups   []events.GroupCreated
}

func (r *Events) MessageSent(_ context.Context, e events.MessageSent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, e)
	return nil
}

func (r *Events) GroupCreated(_ context.Context, e events.GroupCreated) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = append(r.groups, e)
	return nil
}

func (r *Events) Messages() []events.MessageSent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.MessageSent(nil), r.messages...)
}

func (r *Events) Groups() []events.GroupCreated {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.GroupCreated(nil), r.groups...)
}
