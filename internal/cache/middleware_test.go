package cache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	args := m.Called(ctx, key, data, tags, duration)
	return args.Error(0)
}

func (m *MockService) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockService) Invalidate(ctx context.Context, tags ...string) error {
	args := m.Called(ctx, tags)
	return args.Error(0)
}

func newRouter(service Service, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	r := gin.New()
	r.Use(Middleware(service, time.Minute, StaticTags(FeedTag), nil, logger))
	r.GET("/feed", handler)
	r.POST("/feed", handler)
	return r
}

func TestMiddleware_Miss(t *testing.T) {
	mockService := new(MockService)
	r := newRouter(mockService, func(c *gin.Context) {
		c.String(http.StatusOK, `{"posts":[]}`)
	})

	mockService.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
	mockService.On("Set", mock.Anything, mock.Anything, []byte(`{"posts":[]}`), []string{FeedTag}, time.Minute).Return(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed?limit=2", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(HeaderName))
	assert.Equal(t, `{"posts":[]}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestMiddleware_Hit(t *testing.T) {
	mockService := new(MockService)
	r := newRouter(mockService, func(c *gin.Context) {
		c.String(http.StatusOK, "should not run")
	})

	mockService.On("Get", mock.Anything, mock.Anything).Return([]byte(`{"posts":["cached"]}`), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(HeaderName))
	assert.Equal(t, `{"posts":["cached"]}`, w.Body.String())
	mockService.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMiddleware_SkipsErrorsAndNonGet(t *testing.T) {
	t.Run("non-200 is not stored", func(t *testing.T) {
		mockService := new(MockService)
		r := newRouter(mockService, func(c *gin.Context) {
			c.String(http.StatusBadRequest, "bad")
		})
		mockService.On("Get", mock.Anything, mock.Anything).Return(nil, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed?limit=x", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("post bypasses cache", func(t *testing.T) {
		mockService := new(MockService)
		r := newRouter(mockService, func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/feed", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get(HeaderName))
		mockService.AssertExpectations(t)
	})

	t.Run("backend failure is a miss", func(t *testing.T) {
		mockService := new(MockService)
		r := newRouter(mockService, func(c *gin.Context) {
			c.String(http.StatusOK, "fresh")
		})
		mockService.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("down"))
		mockService.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("down"))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "fresh", w.Body.String())
		assert.Equal(t, "MISS", w.Header().Get(HeaderName))
	})
}

func TestDefaultKeyGenerator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	key := func(target string) string {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		return DefaultKeyGenerator(c)
	}

	assert.Equal(t, key("/api/posts/get?limit=2"), key("/api/posts/get?limit=2"))
	assert.NotEqual(t, key("/api/posts/get?limit=2"), key("/api/posts/get?limit=3"))
	assert.Len(t, key("/"), 64)
}

func TestQueryKeyGenerator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyGen := QueryKeyGenerator("genre", "limit")
	key := func(target string) string {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		return keyGen(c)
	}

	base := key("/api/posts/get?genre=Fiction&limit=2")
	assert.Equal(t, base, key("/api/posts/get?limit=2&genre=Fiction"))
	assert.Equal(t, base, key("/api/posts/get?genre=Fiction&limit=2&x=123"))
	assert.NotEqual(t, base, key("/api/posts/get?genre=Fiction&limit=3"))
	assert.NotEqual(t, base, key("/api/posts/other?genre=Fiction&limit=2"))
}
