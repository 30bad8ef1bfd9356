package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fathima-sithara/snip/internal/backend"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

type groupEvent struct {
	groups []domain.Group
	err    error
}

type groupRecorder struct {
	mu     sync.Mutex
	events []groupEvent
}

func (r *groupRecorder) add(g []domain.Group, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, groupEvent{groups: g, err: err})
}

func (r *groupRecorder) snapshot() []groupEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]groupEvent(nil), r.events...)
}

func groupDoc(id, name string, ts int64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "created_by", Value: "u1"},
		{Key: "members", Value: bson.A{"u1", "u2"}},
		{Key: "last_message_time", Value: ts},
	}
}

func groupNames(gs []domain.Group) []string {
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, g.Name)
	}
	return out
}

func waitDone(t *testing.T, sub backend.Subscription) {
	t.Helper()
	select {
	case <-sub.(*backend.Feed).Done():
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop")
	}
}

func TestSubscribeByMember(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	ns := func(mt *mtest.T) string {
		return mt.Coll.Database().Name() + "." + mt.Coll.Name()
	}
	unauthorized := mtest.CommandError{Code: codeUnauthorized, Name: "Unauthorized", Message: "not authorized"}

	mt.Run("delivers initial groups", func(mt *mtest.T) {
		repo := NewGroupRepo(mt.DB, mt.Coll.Name(), 10*time.Millisecond, zap.NewNop())
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
				groupDoc("g2", "newer", 200),
				groupDoc("g1", "older", 100),
			),
			mtest.CreateCommandErrorResponse(unauthorized),
		)

		rec := &groupRecorder{}
		sub := repo.SubscribeByMember(context.Background(), "u1", rec.add)
		defer sub.Cancel()
		waitDone(mt.T, sub)

		events := rec.snapshot()
		require.Len(mt, events, 2)
		require.NoError(mt, events[0].err)
		assert.Equal(mt, []string{"newer", "older"}, groupNames(events[0].groups))
		assert.Equal(mt, "g2", events[0].groups[0].GroupID)
		assert.Equal(mt, []string{"u1", "u2"}, events[0].groups[0].Members)
		assert.True(mt, errs.IsStoreKind(events[1].err, errs.StorePermission), "got %v", events[1].err)
	})

	mt.Run("polls when change streams are unavailable", func(mt *mtest.T) {
		repo := NewGroupRepo(mt.DB, mt.Coll.Name(), 10*time.Millisecond, zap.NewNop())
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, groupDoc("g1", "first", 100)),
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code: codeChangeStreamsOff, Name: "Location40573",
				Message: "The $changeStream stage is only supported on replica sets",
			}),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, groupDoc("g1", "first", 100)),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
				groupDoc("g2", "second", 300),
				groupDoc("g1", "first", 100),
			),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
				groupDoc("g2", "second", 300),
				groupDoc("g1", "first", 100),
			),
			mtest.CreateCommandErrorResponse(unauthorized),
		)

		rec := &groupRecorder{}
		sub := repo.SubscribeByMember(context.Background(), "u1", rec.add)
		defer sub.Cancel()
		waitDone(mt.T, sub)

		events := rec.snapshot()
		require.Len(mt, events, 3)
		require.NoError(mt, events[0].err)
		assert.Equal(mt, []string{"first"}, groupNames(events[0].groups))
		require.NoError(mt, events[1].err)
		assert.Equal(mt, []string{"second", "first"}, groupNames(events[1].groups))
		assert.Nil(mt, events[2].groups)
		assert.True(mt, errs.IsStoreKind(events[2].err, errs.StorePermission), "got %v", events[2].err)
	})

	mt.Run("stops after a failed find", func(mt *mtest.T) {
		repo := NewGroupRepo(mt.DB, mt.Coll.Name(), 10*time.Millisecond, zap.NewNop())
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code: codeNoQueryExecutionPlans, Name: "NoQueryExecutionPlans",
				Message: "error processing query",
			}),
		)

		rec := &groupRecorder{}
		sub := repo.SubscribeByMember(context.Background(), "u1", rec.add)
		defer sub.Cancel()
		waitDone(mt.T, sub)

		events := rec.snapshot()
		require.Len(mt, events, 1)
		assert.Nil(mt, events[0].groups)
		assert.True(mt, errs.IsStoreKind(events[0].err, errs.StoreIndexNotReady), "got %v", events[0].err)
	})
}
