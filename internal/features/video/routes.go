package video

import (
	"github.com/gin-gonic/gin"

	"github.com/peakform/education-server-go/internal/middleware"
	"github.com/peakform/education-server-go/pkg/types"
)

// RegisterRoutes attaches education catalog endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, auth *middleware.AuthMiddleware) {
	videos := router.Group("/education")
	videos.Use(auth.Authenticate())

	videos.GET("", handler.List)
	videos.POST("/upload", auth.RequirePermission(types.PermissionUploadVideo), handler.Upload)
	videos.DELETE("/:videoId", auth.RequirePermission(types.PermissionDeleteVideo), handler.Delete)
	videos.POST("/:videoId/viewed", handler.MarkViewed)
}
