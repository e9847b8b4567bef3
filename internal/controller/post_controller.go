package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/klass-lk/reviewpress/internal/cache"
	"github.com/klass-lk/reviewpress/internal/model"
	"github.com/klass-lk/reviewpress/internal/server"
)

type Submitter interface {
	Submit(ctx context.Context, req model.SubmitRequest) (model.PostView, error)
}

type FeedReader interface {
	List(ctx context.Context, q model.FeedQuery) ([]model.PostView, error)
	Get(ctx context.Context, id string) (model.PostView, error)
}

type FeedResponse struct {
	Posts []model.PostView `json:"posts"`
}

// PostController serves the submission and feed endpoints. Routes are relative
// to the group it is mounted under, normally /api/posts.
type PostController struct {
	submissions Submitter
	feed        FeedReader

	auth      []gin.HandlerFunc
	cache     cache.Service
	feedCache []gin.HandlerFunc
}

func NewPostController(submissions Submitter, feed FeedReader) *PostController {
	return &PostController{
		submissions: submissions,
		feed:        feed,
	}
}

// WithAuth guards submission with the given middleware, typically a bearer
// token check that sets the caller's user id.
func (c *PostController) WithAuth(middleware gin.HandlerFunc) *PostController {
	c.auth = append(c.auth, middleware)
	return c
}

// WithCache serves feed reads through service and drops them whenever a
// submission lands as published. A nil service leaves caching off.
func (c *PostController) WithCache(service cache.Service, ttl time.Duration, logger logrus.FieldLogger) *PostController {
	if service == nil {
		return c
	}
	c.cache = service
	c.feedCache = []gin.HandlerFunc{
		cache.Middleware(service, ttl, cache.StaticTags(cache.FeedTag), cache.QueryKeyGenerator("userId", "genre", "sortBy", "limit"), logger),
	}
	return c
}

func (c *PostController) Routes() []server.Route {
	return []server.Route{
		{Method: http.MethodPost, Path: "/create", Handler: c.Create, Middleware: c.auth},
		{Method: http.MethodGet, Path: "/get", Handler: c.List, Middleware: c.feedCache},
		{Method: http.MethodGet, Path: "/:id", Handler: c.Get, Middleware: c.feedCache},
	}
}

func (c *PostController) Create(ctx *server.Context) {
	var req model.SubmitRequest
	if err := ctx.GetRequest(&req); err != nil {
		ctx.SendError(err)
		return
	}
	if userID, ok := ctx.AuthUserID(); ok {
		req.UserID = userID
	}

	post, err := c.submissions.Submit(ctx.Request.Context(), req)
	if err != nil {
		ctx.SendError(err)
		return
	}

	if post.Status == model.StatusPublished && c.cache != nil {
		if err := c.cache.Invalidate(ctx.Request.Context(), cache.FeedTag); err != nil {
			ctx.Logger().WithError(err).Warn("feed cache invalidation failed")
		}
	}
	ctx.JSON(http.StatusOK, post)
}

func (c *PostController) List(ctx *server.Context) {
	q, err := ctx.GetFeedQuery()
	if err != nil {
		ctx.SendError(err)
		return
	}

	posts, err := c.feed.List(ctx.Request.Context(), q)
	if err != nil {
		ctx.SendError(err)
		return
	}
	ctx.JSON(http.StatusOK, FeedResponse{Posts: posts})
}

func (c *PostController) Get(ctx *server.Context) {
	post, err := c.feed.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.SendError(err)
		return
	}
	ctx.JSON(http.StatusOK, post)
}
