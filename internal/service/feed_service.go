package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/klass-lk/reviewpress/internal/apperr"
	"github.com/klass-lk/reviewpress/internal/model"
	"github.com/klass-lk/reviewpress/internal/repository"
)

type FeedService struct {
	posts  PostReader
	logger logrus.FieldLogger
}

func NewFeedService(posts PostReader, logger logrus.FieldLogger) *FeedService {
	return &FeedService{
		posts:  posts,
		logger: logger,
	}
}

// List returns published posts matching q. No match is an empty slice.
func (s *FeedService) List(ctx context.Context, q model.FeedQuery) ([]model.PostView, error) {
	ctx, span := tracer.Start(ctx, "Post.Service.List")
	defer span.End()

	q = normalizeFeedQuery(q)
	span.SetAttributes(
		attribute.String("UserId", q.UserID),
		attribute.String("Genre", q.Genre),
		attribute.String("SortBy", string(q.SortBy)),
		attribute.Int("Limit", q.Limit),
	)

	posts, err := s.posts.FindPublished(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		s.logger.WithError(err).Error("error fetching posts")
		return nil, apperr.Unavailable(err, "Failed to fetch posts")
	}
	return model.Views(posts), nil
}

// Get returns one published post. Drafts, posts under review and unknown ids are all NotFound.
func (s *FeedService) Get(ctx context.Context, id string) (model.PostView, error) {
	ctx, span := tracer.Start(ctx, "Post.Service.Get")
	defer span.End()

	post, err := s.posts.FindPublishedByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PostView{}, apperr.Missing("Post not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		s.logger.WithError(err).WithField("post_id", id).Error("error fetching post")
		return model.PostView{}, apperr.Unavailable(err, "Failed to fetch post")
	}
	return post.View(), nil
}

func normalizeFeedQuery(q model.FeedQuery) model.FeedQuery {
	if q.SortBy != model.SortPopular {
		q.SortBy = model.SortLatest
	}
	if q.Limit <= 0 {
		q.Limit = model.DefaultFeedLimit
	}
	if q.Limit > model.MaxFeedLimit {
		q.Limit = model.MaxFeedLimit
	}
	return q
}
