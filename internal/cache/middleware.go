package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const HeaderName = "X-Cache"

// KeyGenerator derives the cache key for a request.
type KeyGenerator func(c *gin.Context) string

// TagGenerator lists the tags a cached response is filed under.
type TagGenerator func(c *gin.Context) []string

type cacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *cacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// DefaultKeyGenerator hashes the full request URL, query string included.
func DefaultKeyGenerator(c *gin.Context) string {
	hash := sha256.Sum256([]byte(c.Request.URL.String()))
	return hex.EncodeToString(hash[:])
}

// QueryKeyGenerator keys on the path and the named query parameters only, so
// unrelated parameters cannot mint new entries.
func QueryKeyGenerator(params ...string) KeyGenerator {
	return func(c *gin.Context) string {
		query := c.Request.URL.Query()
		kept := url.Values{}
		for _, name := range params {
			if values, ok := query[name]; ok {
				kept[name] = values
			}
		}
		hash := sha256.Sum256([]byte(c.Request.URL.Path + "?" + kept.Encode()))
		return hex.EncodeToString(hash[:])
	}
}

// StaticTags files every response under the same tags.
func StaticTags(tags ...string) TagGenerator {
	return func(*gin.Context) []string {
		return tags
	}
}

// Middleware serves GET responses from service when present and stores
// successful ones otherwise. Backend failures degrade to a plain miss.
func Middleware(service Service, duration time.Duration, tagGen TagGenerator, keyGen KeyGenerator, logger logrus.FieldLogger) gin.HandlerFunc {
	if keyGen == nil {
		keyGen = DefaultKeyGenerator
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := keyGen(c)

		cached, err := service.Get(c.Request.Context(), key)
		if err != nil {
			logger.WithError(err).WithField("key", key).Warn("cache read failed")
		}
		if err == nil && cached != nil {
			c.Header(HeaderName, "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		}

		c.Header(HeaderName, "MISS")
		writer := &cacheWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() != http.StatusOK {
			return
		}
		tags := []string{}
		if tagGen != nil {
			tags = tagGen(c)
		}
		// The request context is done once the handler returns under some runtimes.
		if err := service.Set(context.WithoutCancel(c.Request.Context()), key, writer.body.Bytes(), tags, duration); err != nil {
			logger.WithError(err).WithField("key", key).Warn("cache write failed")
		}
	}
}
