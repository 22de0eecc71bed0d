package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB holds the Mongo client and the collections the gateway uses.
type DB struct {
	Client *mongo.Client

	// CartCacheCollection stores one document per local cart slot.
	CartCacheCollection *mongo.Collection
}

// Connect opens the client, pings it and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	d := &DB{
		Client:              client,
		CartCacheCollection: client.Database(database).Collection("cartcache"),
	}
	if err := d.CreateIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return d, nil
}

// CreateIndexes expires cart cache documents once their expiresAt passes.
func (d *DB) CreateIndexes(ctx context.Context) error {
	_, err := d.CartCacheCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create cartcache ttl index: %w", err)
	}
	return nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
