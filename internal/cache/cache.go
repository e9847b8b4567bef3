package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/klass-lk/reviewpress/internal/config"
)

// FeedTag groups every cached feed response so a publish can drop them together.
const FeedTag = "posts"

// Service stores rendered responses under a key and forgets them by tag.
// A miss is reported as (nil, nil).
type Service interface {
	Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Invalidate(ctx context.Context, tags ...string) error
}

// Entry is the stored shape shared by the Mongo and DynamoDB backends.
type Entry struct {
	Key       string   `bson:"_id" dynamodbav:"pk"`
	Data      []byte   `bson:"data" dynamodbav:"data"`
	Tags      []string `bson:"tags,omitempty" dynamodbav:"tags,stringset,omitempty"`
	TTL       int64    `bson:"ttl" dynamodbav:"ttl"`
	CreatedAt int64    `bson:"createdAt" dynamodbav:"createdAt"`
}

func newEntry(key string, data []byte, tags []string, duration time.Duration, now time.Time) Entry {
	return Entry{
		Key:       key,
		Data:      data,
		Tags:      tags,
		TTL:       now.Add(duration).Unix(),
		CreatedAt: now.Unix(),
	}
}

func (e Entry) expired(now time.Time) bool {
	return now.Unix() > e.TTL
}

// New builds the backend named by cfg.Backend. It returns a nil Service for
// "none", in which case callers skip the middleware entirely.
func New(ctx context.Context, cfg config.Cache, db *mongo.Database, logger logrus.FieldLogger) (Service, error) {
	var (
		svc Service
		err error
	)

	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		svc = NewMemoryService(cfg.TTL)
	case "mongo":
		if db == nil {
			return nil, fmt.Errorf("mongo cache backend needs a database")
		}
		svc = NewMongoService(db)
	case "redis":
		svc, err = NewRedisService(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "dynamodb":
		svc, err = NewDynamoDBService(ctx, cfg.DynamoRegion, cfg.DynamoTable, cfg.DynamoEndpoint)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{"backend": cfg.Backend, "ttl": cfg.TTL.String()}).Info("feed cache enabled")
	return svc, nil
}
