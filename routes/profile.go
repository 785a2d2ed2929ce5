package routes

import (
	"github.com/gin-gonic/gin"

	"terrainhub/internal/limiter"
	"terrainhub/middlewares"
)

// SetupUserRoutes mounts the signed-in user's progression and profile.
func SetupUserRoutes(router *gin.RouterGroup, h Handlers) {
	user := router.Group("/user")
	user.Use(middlewares.AuthMiddleware())
	{
		user.GET("/points", h.Profiles.Points)
		user.GET("/badges", h.Profiles.Badges)
		user.GET("/customization", h.Profiles.Customization)
		user.GET("/stats", h.Courts.Stats)
		user.GET("/terrains", h.Courts.Mine)
	}

	sensitive := user.Group("")
	sensitive.Use(middlewares.RateLimit(h.Limiter, limiter.BucketSensitive))
	{
		sensitive.POST("/points", h.Profiles.AwardPoints)
		sensitive.POST("/badges", h.Profiles.UnlockBadge)
		sensitive.POST("/customization", h.Profiles.Customize)
		sensitive.PUT("/username", h.Profiles.UpdateName)
		sensitive.PUT("/profile", h.Profiles.UpdateProfile)
	}
}
