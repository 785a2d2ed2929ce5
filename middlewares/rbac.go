package middlewares

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"terrainhub/rules"
	"terrainhub/services"
)

// RBACMiddleware checks that the authenticated role may perform action on resource
func RBACMiddleware(authz *services.Authorizer, resource services.Resource, action services.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if err := authz.Check(p, resource, action); err != nil {
			if errors.Is(err, rules.ErrPermission) {
				slog.Info("permission denied", "user", p.Email, "role", p.Role, "resource", resource, "action", action)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
				return
			}
			slog.Error("permission check failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
			return
		}
		c.Next()
	}
}
