package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/klass-lk/reviewpress/internal/server"
)

const readyTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

type HealthController struct {
	store Pinger
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{store: store}
}

func (c *HealthController) Routes() []server.Route {
	return []server.Route{
		{Method: http.MethodGet, Path: "/healthz", Handler: c.Live},
		{Method: http.MethodGet, Path: "/readyz", Handler: c.Ready},
	}
}

func (c *HealthController) Live(ctx *server.Context) {
	ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (c *HealthController) Ready(ctx *server.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), readyTimeout)
	defer cancel()

	if err := c.store.Ping(pingCtx); err != nil {
		ctx.Logger().WithError(err).Warn("readiness check failed")
		ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
