package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/reviewpress/internal/apperr"
	"github.com/klass-lk/reviewpress/internal/cache"
	"github.com/klass-lk/reviewpress/internal/model"
	"github.com/klass-lk/reviewpress/internal/server"
)

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, req model.SubmitRequest) (model.PostView, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.PostView), args.Error(1)
}

type MockFeedReader struct {
	mock.Mock
}

func (m *MockFeedReader) List(ctx context.Context, q model.FeedQuery) ([]model.PostView, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PostView), args.Error(1)
}

func (m *MockFeedReader) Get(ctx context.Context, id string) (model.PostView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.PostView), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	return m.Called(ctx, key, data, tags, duration).Error(0)
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) Invalidate(ctx context.Context, tags ...string) error {
	return m.Called(ctx, tags).Error(0)
}

func newPostServer(controller *PostController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	s := server.New(logger)
	s.RegisterGroups(server.RouterGroup{Path: "/api/posts", Controllers: []server.Controller{controller}})
	return s.Engine()
}

func doRequest(r http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostController_Create(t *testing.T) {
	created := model.PostView{ID: "p1", Title: "A Tale", Status: model.StatusDraft, Genre: []string{"General"}}

	t.Run("returns the stored post", func(t *testing.T) {
		submitter := new(MockSubmitter)
		submitter.On("Submit", mock.Anything, mock.MatchedBy(func(req model.SubmitRequest) bool {
			return req.UserID == "u1" && req.Title == "A Tale" && req.Rating != nil && *req.Rating == 4
		})).Return(created, nil)

		r := newPostServer(NewPostController(submitter, new(MockFeedReader)))
		w := doRequest(r, http.MethodPost, "/api/posts/create",
			`{"title":"A Tale","bookTitle":"B","content":"C","rating":"4","userId":"u1"}`, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var body model.PostView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "p1", body.ID)
		assert.Equal(t, model.StatusDraft, body.Status)
		submitter.AssertExpectations(t)
	})

	t.Run("maps service errors", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			code int
		}{
			{"invalid", apperr.Invalid("Missing required fields"), http.StatusBadRequest},
			{"unknown user", apperr.Missing("User not found"), http.StatusNotFound},
			{"reader", apperr.Denied("Only admins and editors can create posts"), http.StatusForbidden},
			{"store", apperr.Unavailable(errors.New("timeout"), "Failed to create post: timeout"), http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				submitter := new(MockSubmitter)
				submitter.On("Submit", mock.Anything, mock.Anything).Return(model.PostView{}, tt.err)

				r := newPostServer(NewPostController(submitter, new(MockFeedReader)))
				w := doRequest(r, http.MethodPost, "/api/posts/create", `{"title":"x"}`, nil)

				assert.Equal(t, tt.code, w.Code)
				var body server.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, apperr.KindOf(tt.err), body.ErrorCode)
			})
		}
	})

	t.Run("malformed body never reaches the service", func(t *testing.T) {
		submitter := new(MockSubmitter)
		r := newPostServer(NewPostController(submitter, new(MockFeedReader)))
		w := doRequest(r, http.MethodPost, "/api/posts/create", `{"title":`, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("authenticated user overrides body userId", func(t *testing.T) {
		submitter := new(MockSubmitter)
		submitter.On("Submit", mock.Anything, mock.MatchedBy(func(req model.SubmitRequest) bool {
			return req.UserID == "token-user"
		})).Return(created, nil)

		controller := NewPostController(submitter, new(MockFeedReader)).WithAuth(func(c *gin.Context) {
			c.Set(server.UserIDKey, "token-user")
			c.Next()
		})
		r := newPostServer(controller)
		w := doRequest(r, http.MethodPost, "/api/posts/create",
			`{"title":"A Tale","bookTitle":"B","content":"C","rating":4,"userId":"spoofed"}`, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		submitter.AssertExpectations(t)
	})

	t.Run("publishing invalidates the feed cache", func(t *testing.T) {
		submitter := new(MockSubmitter)
		submitter.On("Submit", mock.Anything, mock.Anything).Return(model.PostView{ID: "p2", Status: model.StatusPublished}, nil)
		feedCache := new(MockCache)
		feedCache.On("Invalidate", mock.Anything, []string{cache.FeedTag}).Return(errors.New("down"))

		logger, _ := test.NewNullLogger()
		r := newPostServer(NewPostController(submitter, new(MockFeedReader)).WithCache(feedCache, time.Minute, logger))
		w := doRequest(r, http.MethodPost, "/api/posts/create", `{"title":"x"}`, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		feedCache.AssertExpectations(t)
	})

	t.Run("drafts leave the feed cache alone", func(t *testing.T) {
		submitter := new(MockSubmitter)
		submitter.On("Submit", mock.Anything, mock.Anything).Return(created, nil)
		feedCache := new(MockCache)

		logger, _ := test.NewNullLogger()
		r := newPostServer(NewPostController(submitter, new(MockFeedReader)).WithCache(feedCache, time.Minute, logger))
		w := doRequest(r, http.MethodPost, "/api/posts/create", `{"title":"x"}`, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		feedCache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})
}

func TestPostController_List(t *testing.T) {
	posts := []model.PostView{{ID: "p1", Likes: 9}, {ID: "p2", Likes: 5}}

	t.Run("passes parsed query through", func(t *testing.T) {
		feed := new(MockFeedReader)
		feed.On("List", mock.Anything, model.FeedQuery{Genre: "Fiction", SortBy: model.SortPopular, Limit: 2}).Return(posts, nil)

		r := newPostServer(NewPostController(new(MockSubmitter), feed))
		w := doRequest(r, http.MethodGet, "/api/posts/get?genre=Fiction&sortBy=popular&limit=2", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var body FeedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Posts, 2)
		assert.Equal(t, "p1", body.Posts[0].ID)
	})

	t.Run("empty feed is an empty list", func(t *testing.T) {
		feed := new(MockFeedReader)
		feed.On("List", mock.Anything, model.FeedQuery{}).Return([]model.PostView{}, nil)

		r := newPostServer(NewPostController(new(MockSubmitter), feed))
		w := doRequest(r, http.MethodGet, "/api/posts/get", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"posts":[]}`, w.Body.String())
	})

	t.Run("bad limit", func(t *testing.T) {
		feed := new(MockFeedReader)
		r := newPostServer(NewPostController(new(MockSubmitter), feed))
		w := doRequest(r, http.MethodGet, "/api/posts/get?limit=abc", "", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		feed.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		feed := new(MockFeedReader)
		feed.On("List", mock.Anything, mock.Anything).Return(nil, apperr.Unavailable(errors.New("down"), "Failed to fetch posts"))

		r := newPostServer(NewPostController(new(MockSubmitter), feed))
		w := doRequest(r, http.MethodGet, "/api/posts/get", "", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to fetch posts","error_code":"STORE_UNAVAILABLE"}`, w.Body.String())
	})

	t.Run("second read is served from cache", func(t *testing.T) {
		feed := new(MockFeedReader)
		feed.On("List", mock.Anything, mock.Anything).Return(posts, nil).Once()

		logger, _ := test.NewNullLogger()
		r := newPostServer(NewPostController(new(MockSubmitter), feed).WithCache(cache.NewMemoryService(time.Minute), time.Minute, logger))

		first := doRequest(r, http.MethodGet, "/api/posts/get?limit=2", "", nil)
		second := doRequest(r, http.MethodGet, "/api/posts/get?limit=2&x=unrelated", "", nil)

		assert.Equal(t, "MISS", first.Header().Get(cache.HeaderName))
		assert.Equal(t, "HIT", second.Header().Get(cache.HeaderName))
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		feed.AssertNumberOfCalls(t, "List", 1)
	})
}

func TestPostController_Get(t *testing.T) {
	feed := new(MockFeedReader)
	feed.On("Get", mock.Anything, "p1").Return(model.PostView{ID: "p1", Status: model.StatusPublished}, nil)
	feed.On("Get", mock.Anything, "missing").Return(model.PostView{}, apperr.Missing("Post not found"))

	r := newPostServer(NewPostController(new(MockSubmitter), feed))

	w := doRequest(r, http.MethodGet, "/api/posts/p1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/posts/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthController(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	healthy := true
	s := server.New(logger)
	s.RegisterControllers(NewHealthController(PingFunc(func(ctx context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("no primary")
	})))

	w := doRequest(s.Engine(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doRequest(s.Engine(), http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	healthy = false
	w = doRequest(s.Engine(), http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doRequest(s.Engine(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
