package repository

import (
	"context"
	"errors"

	"github.com/fathima-sithara/snip/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("not found")

type CredentialRepo struct {
	col *mongo.Collection
}

func NewCredentialRepo(db *mongo.Database, collection string) *CredentialRepo {
	col := db.Collection(collection)
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return &CredentialRepo{col: col}
}

// Create returns ErrDuplicate when the email is taken.
func (r *CredentialRepo) Create(ctx context.Context, c domain.Credential) error {
	_, err := r.col.InsertOne(ctx, c)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return classify("credentials.create", err)
}

func (r *CredentialRepo) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	var c domain.Credential
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("credentials.find", err)
	}
	return &c, nil
}
