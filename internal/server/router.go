package server

import "github.com/gin-gonic/gin"

type HandlerFunc func(c *Context)

type Route struct {
	Method     string
	Path       string
	Handler    HandlerFunc
	Middleware []gin.HandlerFunc
}

type Controller interface {
	Routes() []Route
}

type RouterGroup struct {
	Path        string
	Middleware  []gin.HandlerFunc
	Controllers []Controller
}

func (s *Server) RegisterControllers(controllers ...Controller) {
	s.register(&s.engine.RouterGroup, controllers)
}

func (s *Server) RegisterGroups(groups ...RouterGroup) {
	for _, group := range groups {
		routerGroup := s.engine.Group(group.Path)

		if len(group.Middleware) > 0 {
			routerGroup.Use(group.Middleware...)
		}

		s.register(routerGroup, group.Controllers)
	}
}

func (s *Server) register(group *gin.RouterGroup, controllers []Controller) {
	for _, controller := range controllers {
		for _, route := range controller.Routes() {
			handlers := append([]gin.HandlerFunc{}, route.Middleware...)
			handlers = append(handlers, wrap(route.Handler))
			group.Handle(route.Method, route.Path, handlers...)
		}
	}
}

func wrap(handler HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler(NewContext(c))
	}
}
