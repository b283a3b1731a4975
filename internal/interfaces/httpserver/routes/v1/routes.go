package v1

import (
	"github.com/gin-gonic/gin"

	"clip-server/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under the /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	group.POST("/videos", r.handlers.Video.Upload)
	group.GET("/videos/:id", r.handlers.Video.GetMetadata)
	group.GET("/videos/:id/stream", r.handlers.Video.Stream)
	group.GET("/videos/:id/preview", r.handlers.Video.Preview)
	group.POST("/videos/:id/like", r.handlers.Video.Like)
	group.DELETE("/videos/:id", r.handlers.Video.Delete)
}
