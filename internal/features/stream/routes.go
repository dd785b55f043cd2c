package stream

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches the video file endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	router.GET("/education-videos/:filename", handler.Serve)
	router.HEAD("/education-videos/:filename", handler.Serve)
}
