package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/klass-lk/reviewpress/internal/model"
)

const (
	PostsCollection = "posts"

	writeTimeout = 5 * time.Second
	readTimeout  = 10 * time.Second
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("document not found")

type PostRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{
		collection: db.Collection(PostsCollection),
		now:        time.Now,
	}
}

// Create inserts post as a new document. The id and both timestamps are assigned
// here and the stored document is returned.
func (r *PostRepository) Create(ctx context.Context, post model.Post) (model.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := primitive.NewDateTimeFromTime(r.now())
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return model.Post{}, errors.Wrap(err, "insert post")
	}
	return post, nil
}

func (r *PostRepository) FindPublished(ctx context.Context, q model.FeedQuery) ([]model.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	filter, opts := BuildFeedQuery(q)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find posts")
	}
	defer cursor.Close(ctx)

	posts := []model.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, errors.Wrap(err, "decode posts")
	}
	return posts, nil
}

func (r *PostRepository) FindPublishedByID(ctx context.Context, id string) (model.Post, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Post{}, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var post model.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID, fieldStatus: model.StatusPublished}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Post{}, ErrNotFound
	}
	if err != nil {
		return model.Post{}, errors.Wrapf(err, "find post %s", id)
	}
	return post, nil
}
