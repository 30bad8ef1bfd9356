package repository

import (
	"context"
	"errors"

	"github.com/fathima-sithara/snip/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type ProfileRepo struct {
	col *mongo.Collection
	log *zap.Logger
}

func NewProfileRepo(db *mongo.Database, collection string, log *zap.Logger) *ProfileRepo {
	col := db.Collection(collection)
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "joined_at", Value: -1}},
		Options: options.Index().SetName("joined_at_idx"),
	})
	return &ProfileRepo{col: col, log: log}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("profiles.get", err)
	}
	return &p, nil
}

// Put writes the whole record, creating it when missing.
func (r *ProfileRepo) Put(ctx context.Context, p domain.UserProfile) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.UserID}, p, options.Replace().SetUpsert(true))
	return classify("profiles.put", err)
}

// ListAll skips documents that fail to decode.
func (r *ProfileRepo) ListAll(ctx context.Context) ([]domain.UserProfile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, classify("profiles.list", err)
	}
	defer cur.Close(ctx)

	out := []domain.UserProfile{}
	for cur.Next(ctx) {
		var p domain.UserProfile
		if err := cur.Decode(&p); err != nil {
			r.log.Warn("skipping malformed profile", zap.Any("id", cur.Current.Lookup("_id")), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	if err := cur.Err(); err != nil {
		return nil, classify("profiles.list", err)
	}
	return out, nil
}
