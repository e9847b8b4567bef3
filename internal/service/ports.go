package service

import (
	"context"

	"github.com/klass-lk/reviewpress/internal/model"
)

type PostWriter interface {
	Create(ctx context.Context, post model.Post) (model.Post, error)
}

type PostReader interface {
	FindPublished(ctx context.Context, q model.FeedQuery) ([]model.Post, error)
	FindPublishedByID(ctx context.Context, id string) (model.Post, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}
