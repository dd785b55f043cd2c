package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/peakform/education-server-go/internal/features/stream"
	"github.com/peakform/education-server-go/internal/features/video"
	"github.com/peakform/education-server-go/internal/middleware"
	"github.com/peakform/education-server-go/pkg/cache"
	"github.com/peakform/education-server-go/pkg/config"
	"github.com/peakform/education-server-go/pkg/health"
	"github.com/peakform/education-server-go/pkg/mediaprobe"
)

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, db *gorm.DB, logger *slog.Logger, prober mediaprobe.Prober, cacheClient cache.Client) {
	// Health check endpoints (no /api prefix for Kubernetes probes)
	healthHandler := health.NewHandler(db, logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.Version)

	// Metrics endpoint for Prometheus
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !cfg.IsProduction() {
		engine.GET("/debug/db-stats", healthHandler.DBStats)
	}

	api := engine.Group("/api")

	auth := middleware.NewAuthMiddleware(db, cfg.JWTSecret, logger)

	videoHandler := video.NewHandler(db, logger, video.Options{
		VideoDir:     cfg.VideoDir,
		AssetBaseURL: cfg.AssetBaseURL,
		Location:     cfg.ProgramLocation(),
		Prober:       prober,
		Cache:        cacheClient,
	})
	video.RegisterRoutes(api, videoHandler, auth)

	// File streaming stays outside /api; stored URLs point straight at it.
	streamHandler := stream.NewHandler(logger, cfg.VideoDir)
	stream.RegisterRoutes(&engine.RouterGroup, streamHandler)
}
