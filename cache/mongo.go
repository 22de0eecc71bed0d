package cache

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoEntry struct {
	Key       string     `bson:"_id"`
	Value     string     `bson:"value"`
	UpdatedAt time.Time  `bson:"updatedAt"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty"`
}

// Mongo keeps one document per key. Expiry is enforced on read as well as
// by the collection's TTL index, which only sweeps once a minute.
type Mongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll, now: time.Now}
}

func (m *Mongo) Get(ctx context.Context, key string) (string, error) {
	var e mongoEntry
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	if e.ExpiresAt != nil && !m.now().Before(*e.ExpiresAt) {
		return "", ErrMiss
	}
	return e.Value, nil
}

func (m *Mongo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	now := m.now()
	set := bson.M{"value": value, "updatedAt": now}
	update := bson.M{"$set": set}
	if ttl > 0 {
		set["expiresAt"] = now.Add(ttl)
	} else {
		update["$unset"] = bson.M{"expiresAt": ""}
	}
	_, err := m.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	return err
}

func (m *Mongo) Del(ctx context.Context, key string) error {
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
