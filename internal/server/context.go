package server

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/klass-lk/reviewpress/internal/apperr"
	"github.com/klass-lk/reviewpress/internal/model"
)

// Keys shared between middleware and handlers.
const (
	UserIDKey    = "user_id"
	RequestIDKey = "request_id"
	LoggerKey    = "logger"
)

type ErrorResponse struct {
	ErrorCode apperr.Kind `json:"error_code"`
	Message   string      `json:"error"`
}

type Context struct {
	*gin.Context
}

func NewContext(c *gin.Context) *Context {
	return &Context{Context: c}
}

// AuthUserID returns the submitter id proven by the bearer token, if any.
func (c *Context) AuthUserID() (string, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}

// Logger returns the request-scoped logger installed by the logging middleware.
func (c *Context) Logger() logrus.FieldLogger {
	if value, exists := c.Get(LoggerKey); exists {
		if logger, ok := value.(logrus.FieldLogger); ok {
			return logger
		}
	}
	return logrus.StandardLogger()
}

func (c *Context) GetRequest(request interface{}) error {
	if err := c.ShouldBindJSON(request); err != nil {
		return apperr.Wrap(apperr.InvalidInput, err, "Invalid request body")
	}
	return nil
}

// GetFeedQuery reads userId, genre, sortBy and limit from the query string.
// An absent limit is left at zero for the service to default.
func (c *Context) GetFeedQuery() (model.FeedQuery, error) {
	q := model.FeedQuery{
		UserID: c.Query("userId"),
		Genre:  c.Query("genre"),
		SortBy: model.SortMode(c.Query("sortBy")),
	}
	if limitString, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(limitString)
		if err != nil || limit <= 0 {
			return model.FeedQuery{}, apperr.Invalid("limit must be a positive integer")
		}
		q.Limit = limit
	}
	return q, nil
}

func (c *Context) SendError(err error) {
	kind := apperr.KindOf(err)
	message := "An unknown error occurred"
	var appErr apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	status := apperr.StatusCode(kind)
	if status >= 500 {
		c.Logger().WithError(err).Error("request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{ErrorCode: kind, Message: message})
}
