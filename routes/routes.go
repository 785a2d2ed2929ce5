package routes

import (
	"github.com/gin-gonic/gin"

	"terrainhub/controllers"
	"terrainhub/internal/limiter"
	"terrainhub/services"
	"terrainhub/websocket"
)

// Handlers bundles everything the HTTP surface needs.
type Handlers struct {
	Auth        *controllers.AuthHandler
	Courts      *controllers.CourtHandler
	Reports     *controllers.ReportHandler
	Profiles    *controllers.ProfileHandler
	Maintenance *controllers.MaintenanceHandler
	Geocode     *controllers.GeocodeHandler
	Hub         *websocket.Hub
	Authz       *services.Authorizer
	Limiter     limiter.Limiter
}

// Register mounts every route on router.
func Register(router *gin.Engine, h Handlers) {
	if h.Limiter == nil {
		h.Limiter = limiter.NewNoop()
	}
	router.GET("/health", controllers.Health)

	api := router.Group("/")
	SetupAuthRoutes(api, h)
	SetupTerrainRoutes(api, h)
	SetupReportRoutes(api, h)
	SetupUserRoutes(api, h)
	SetupAdminRoutes(api, h)
	SetupMaintenanceRoutes(api, h)
	SetupGamificationRoutes(api, h)
}
