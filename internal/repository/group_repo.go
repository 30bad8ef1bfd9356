package repository

import (
	"context"
	"reflect"
	"time"

	"github.com/fathima-sithara/snip/internal/backend"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type GroupRepo struct {
	col          *mongo.Collection
	log          *zap.Logger
	pollInterval time.Duration
}

// NewGroupRepo falls back to polling every pollInterval when the server
// does not support change streams (a standalone mongod).
func NewGroupRepo(db *mongo.Database, collection string, pollInterval time.Duration, log *zap.Logger) *GroupRepo {
	col := db.Collection(collection)
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "members", Value: 1}, {Key: "last_message_time", Value: -1}},
		Options: options.Index().SetName("members_last_message_idx"),
	})
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &GroupRepo{col: col, log: log, pollInterval: pollInterval}
}

func (r *GroupRepo) Create(ctx context.Context, g domain.Group) (string, error) {
	if len(g.Members) == 0 {
		return "", errs.InvalidArgument("group needs at least one member")
	}
	g.GroupID = ""
	res, err := r.col.InsertOne(ctx, g)
	if err != nil {
		return "", classify("groups.create", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return "", errs.NewStoreError(errs.StoreUnknown, "groups.create", errUnexpectedID)
}

func (r *GroupRepo) byMember(ctx context.Context, userID string) ([]domain.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_message_time", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"members": userID}, opts)
	if err != nil {
		return nil, classify("groups.find", err)
	}
	defer cur.Close(ctx)

	out := []domain.Group{}
	for cur.Next(ctx) {
		var g domain.Group
		if err := cur.Decode(&g); err != nil {
			r.log.Warn("skipping malformed group", zap.Any("id", cur.Current.Lookup("_id")), zap.Error(err))
			continue
		}
		out = append(out, g)
	}
	if err := cur.Err(); err != nil {
		return nil, classify("groups.find", err)
	}
	return out, nil
}

// SubscribeByMember emits the member's groups once, then again after every
// change to a group that lists the member.
func (r *GroupRepo) SubscribeByMember(ctx context.Context, userID string, onChange func([]domain.Group, error)) backend.Subscription {
	return backend.Go(ctx, func(ctx context.Context) {
		groups, err := r.byMember(ctx, userID)
		if ctx.Err() != nil {
			return
		}
		onChange(groups, err)
		if err != nil {
			return
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"$or": bson.A{
				bson.M{"fullDocument.members": userID},
				bson.M{"operationType": bson.M{"$in": bson.A{"delete", "drop", "invalidate"}}},
			}}}},
		}
		stream, err := r.col.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			err = classify("groups.watch", err)
			if errs.IsStoreKind(err, errs.StoreNotSupported) {
				r.log.Info("change streams unavailable, polling groups", zap.String("user_id", userID), zap.Duration("interval", r.pollInterval))
				r.poll(ctx, userID, groups, onChange)
				return
			}
			onChange(nil, err)
			return
		}
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			groups, err := r.byMember(ctx, userID)
			if ctx.Err() != nil {
				return
			}
			onChange(groups, err)
			if err != nil {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			onChange(nil, classify("groups.watch", err))
		}
	})
}

func (r *GroupRepo) poll(ctx context.Context, userID string, last []domain.Group, onChange func([]domain.Group, error)) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		groups, err := r.byMember(ctx, userID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			onChange(nil, err)
			return
		}
		if !reflect.DeepEqual(groups, last) {
			last = groups
			onChange(groups, nil)
		}
	}
}
