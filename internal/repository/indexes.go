package repository

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes backing each feed query shape.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: fieldStatus, Value: 1}, {Key: fieldCreatedAt, Value: -1}},
			Options: options.Index().SetName("status_createdAt"),
		},
		{
			Keys:    bson.D{{Key: fieldStatus, Value: 1}, {Key: fieldLikes, Value: -1}},
			Options: options.Index().SetName("status_likes"),
		},
		{
			Keys:    bson.D{{Key: fieldAuthorID, Value: 1}, {Key: fieldStatus, Value: 1}, {Key: fieldCreatedAt, Value: -1}},
			Options: options.Index().SetName("author_status_createdAt"),
		},
		{
			Keys:    bson.D{{Key: fieldGenre, Value: 1}, {Key: fieldStatus, Value: 1}},
			Options: options.Index().SetName("genre_status"),
		},
	}

	if _, err := db.Collection(PostsCollection).Indexes().CreateMany(ctx, models); err != nil {
		return errors.Wrap(err, "create post indexes")
	}
	return nil
}
