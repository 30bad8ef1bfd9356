package app

import (
	"context"
	"strings"
	"sync"

	"github.com/fathima-sithara/snip/internal/backend"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/fathima-sithara/snip/internal/events"
	"github.com/fathima-sithara/snip/internal/metrics"
	"github.com/fathima-sithara/snip/internal/projection"
	"go.uber.org/zap"
)

// CreateGroup stores a new group of the selected users plus the creator.
func (a *App) CreateGroup(ctx context.Context, me, name string, selected []string) (string, error) {
	name = strings.TrimSpace(name)
	var fe errs.FieldErrors
	if name == "" {
		fe = append(fe, errs.FieldError{Field: "name", Message: "Group name is required"})
	}
	if len(selected) == 0 {
		fe = append(fe, errs.FieldError{Field: "members", Message: "Please select at least one member"})
	}
	if len(fe) > 0 {
		return "", fe
	}

	g := domain.Group{
		Name:      name,
		CreatedBy: me,
		CreatedAt: a.nowMillis(),
		Members:   memberSet(selected, me),
	}
	id, err := a.groups.Create(ctx, g)
	if err != nil {
		a.log.Error("group create failed", zap.String("created_by", me), zap.Error(err))
		return "", err
	}
	metrics.GroupsCreated.Inc()

	if a.events != nil {
		ev := events.GroupCreated{GroupID: id, Name: name, CreatedBy: me, Members: g.Members, CreatedAt: g.CreatedAt}
		if err := a.events.GroupCreated(ctx, ev); err != nil {
			a.log.Warn("group.created publish failed", zap.String("group_id", id), zap.Error(err))
		}
	}
	return id, nil
}

// memberSet keeps first-seen order, drops blanks and duplicates, and
// appends the creator when missing.
func memberSet(selected []string, creator string) []string {
	seen := make(map[string]struct{}, len(selected)+1)
	out := make([]string, 0, len(selected)+1)
	for _, id := range append(append([]string(nil), selected...), creator) {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type GroupUpdate struct {
	Rows []projection.GroupRow
	Err  error
}

// GroupFeed follows the caller's groups until Close.
type GroupFeed struct {
	updates chan GroupUpdate
	done    chan struct{}
	sub     backend.Subscription
	once    sync.Once
}

func (a *App) WatchGroups(ctx context.Context, me string) *GroupFeed {
	f := &GroupFeed{
		updates: make(chan GroupUpdate, 8),
		done:    make(chan struct{}),
	}
	f.sub = a.groups.SubscribeByMember(ctx, me, func(gs []domain.Group, err error) {
		u := GroupUpdate{Err: err}
		if err == nil {
			u.Rows = projection.Groups(gs, a.loc)
		}
		select {
		case f.updates <- u:
		case <-f.done:
		}
	})
	metrics.Subscriptions.WithLabelValues("groups").Inc()
	return f
}

func (f *GroupFeed) Updates() <-chan GroupUpdate { return f.updates }

func (f *GroupFeed) Close() {
	f.once.Do(func() {
		close(f.done)
		f.sub.Cancel()
		close(f.updates)
		metrics.Subscriptions.WithLabelValues("groups").Dec()
	})
}

// Groups returns the first snapshot of the caller's groups.
func (a *App) Groups(ctx context.Context, me string) ([]projection.GroupRow, error) {
	f := a.WatchGroups(ctx, me)
	defer f.Close()
	select {
	case u := <-f.Updates():
		return u.Rows, u.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
