package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func ConnectMongo(ctx context.Context, uri, dbName string, log *zap.Logger) (*mongo.Database, *mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Error("mongo connect failed", zap.Error(err))
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Error("mongo ping failed", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	log.Info("mongo connected", zap.String("database", dbName))
	return client.Database(dbName), client, nil
}
