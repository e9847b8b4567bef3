package repository

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/klass-lk/reviewpress/internal/model"
)

const (
	fieldAuthorID  = "authorId"
	fieldGenre     = "genre"
	fieldStatus    = "status"
	fieldLikes     = "likes"
	fieldCreatedAt = "createdAt"
	fieldID        = "_id"
)

// BuildFeedQuery turns feed filters into a Mongo filter and find options.
// An author filter wins over a genre filter and always sorts by creation time.
// Every branch is restricted to published posts and capped at the limit.
func BuildFeedQuery(q model.FeedQuery) (bson.D, *options.FindOptions) {
	published := bson.E{Key: fieldStatus, Value: model.StatusPublished}

	var filter bson.D
	sortField := fieldCreatedAt
	switch {
	case q.UserID != "":
		filter = bson.D{{Key: fieldAuthorID, Value: q.UserID}, published}
	case q.Genre != "":
		filter = bson.D{{Key: fieldGenre, Value: q.Genre}, published}
		sortField = sortFieldFor(q.SortBy)
	default:
		filter = bson.D{published}
		sortField = sortFieldFor(q.SortBy)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = model.DefaultFeedLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: -1}, {Key: fieldID, Value: -1}}).
		SetLimit(int64(limit))

	return filter, opts
}

func sortFieldFor(mode model.SortMode) string {
	if mode == model.SortPopular {
		return fieldLikes
	}
	return fieldCreatedAt
}
