package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/klass-lk/reviewpress/internal/model"
)

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

type MockPostReader struct {
	mock.Mock
}

func (m *MockPostReader) FindPublished(ctx context.Context, q model.FeedQuery) ([]model.Post, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostReader) FindPublishedByID(ctx context.Context, id string) (model.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Post), args.Error(1)
}

// fakePostWriter records inserts and assigns ids the way the store does.
type fakePostWriter struct {
	mu      sync.Mutex
	created []model.Post
	err     error
	now     primitive.DateTime
}

func (f *fakePostWriter) Create(ctx context.Context, post model.Post) (model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Post{}, f.err
	}
	post.ID = primitive.NewObjectID()
	post.CreatedAt = f.now
	post.UpdatedAt = f.now
	f.created = append(f.created, post)
	return post, nil
}

func (f *fakePostWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}
