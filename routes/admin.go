package routes

import (
	"github.com/gin-gonic/gin"

	"terrainhub/internal/limiter"
	"terrainhub/middlewares"
	"terrainhub/services"
)

// SetupAdminRoutes mounts the moderation queue for moderators and admins.
func SetupAdminRoutes(router *gin.RouterGroup, h Handlers) {
	admin := router.Group("/admin")
	admin.Use(middlewares.AuthMiddleware())
	if h.Authz != nil {
		admin.Use(middlewares.RBACMiddleware(h.Authz, services.ResourceReport, services.ActionReview))
	}
	{
		admin.GET("/reports", h.Reports.List)
		admin.PATCH("/reports/:id", middlewares.RateLimit(h.Limiter, limiter.BucketGeneral), h.Reports.Review)
	}
}

// SetupMaintenanceRoutes mounts the limiter keep-alive used by the cron job.
func SetupMaintenanceRoutes(router *gin.RouterGroup, h Handlers) {
	m := router.Group("/maintenance")
	m.Use(middlewares.RateLimit(h.Limiter, limiter.BucketSensitive))
	{
		m.GET("/redis", h.Maintenance.Status)
		m.POST("/redis", h.Maintenance.Maintain)
	}
}

// SetupGamificationRoutes mounts the live event stream. The handler checks
// the token itself since browsers cannot set headers on upgrade requests.
func SetupGamificationRoutes(router *gin.RouterGroup, h Handlers) {
	router.GET("/ws/gamification", h.Hub.ServeGamification)
}
