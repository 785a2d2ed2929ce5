package routes

import (
	"github.com/gin-gonic/gin"

	"terrainhub/internal/limiter"
	"terrainhub/middlewares"
)

// SetupTerrainRoutes mounts courts, ratings and comments. Reads are public.
func SetupTerrainRoutes(router *gin.RouterGroup, h Handlers) {
	terrains := router.Group("/terrains")
	{
		terrains.GET("", h.Courts.List)
		terrains.GET("/:id", h.Courts.Get)
		terrains.GET("/:id/comments", h.Courts.ListComments)
	}
	router.GET("/geocode/reverse", h.Geocode.Reverse)

	auth := terrains.Group("")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.POST("", middlewares.RateLimit(h.Limiter, limiter.BucketAddTerrain), h.Courts.Create)
		auth.POST("/:id/rate", middlewares.RateLimit(h.Limiter, limiter.BucketRating), h.Courts.Rate)
		auth.DELETE("/:id", middlewares.RateLimit(h.Limiter, limiter.BucketGeneral), h.Courts.Delete)
		auth.POST("/:id/comments", middlewares.RateLimit(h.Limiter, limiter.BucketSensitive), h.Courts.PostComment)
		auth.DELETE("/:id/comments/:commentId", middlewares.RateLimit(h.Limiter, limiter.BucketGeneral), h.Courts.DeleteComment)
	}
}

func SetupReportRoutes(router *gin.RouterGroup, h Handlers) {
	router.POST("/reports",
		middlewares.AuthMiddleware(),
		middlewares.RateLimit(h.Limiter, limiter.BucketSensitive),
		h.Reports.File,
	)
}
