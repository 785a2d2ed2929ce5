package routes

import (
	"github.com/gin-gonic/gin"

	"terrainhub/internal/limiter"
	"terrainhub/middlewares"
)

// SetupAuthRoutes mounts the public sign-in endpoints under /auth.
func SetupAuthRoutes(router *gin.RouterGroup, h Handlers) {
	auth := router.Group("/auth")
	auth.Use(middlewares.RateLimit(h.Limiter, limiter.BucketAuth))
	{
		auth.POST("/signup", h.Auth.SignUp)
		auth.POST("/verify", h.Auth.VerifyEmail)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/google", h.Auth.GoogleLogin)
		auth.POST("/forgot", h.Auth.ForgotPassword)
		auth.POST("/reset", h.Auth.VerifyForgotPassword)
		auth.POST("/guest", h.Auth.Guest)
	}
}
