package cache

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const EntriesCollection = "cache_entries"

// MongoService stores entries in the same database as the posts. Tags live on
// the entry itself so invalidation is a single DeleteMany.
type MongoService struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoService(db *mongo.Database) *MongoService {
	return &MongoService{
		collection: db.Collection(EntriesCollection),
		now:        time.Now,
	}
}

func (s *MongoService) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry := newEntry(key, data, tags, duration, s.now())
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, entry, options.Replace().SetUpsert(true))
	return pkgerrors.Wrap(err, "cache set")
}

func (s *MongoService) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var entry Entry
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "cache get")
	}

	if entry.expired(s.now()) {
		_, _ = s.collection.DeleteOne(ctx, bson.M{"_id": key})
		return nil, nil
	}
	return entry.Data, nil
}

func (s *MongoService) Invalidate(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.collection.DeleteMany(ctx, bson.M{"tags": bson.M{"$in": tags}})
	return pkgerrors.Wrap(err, "cache invalidate")
}
