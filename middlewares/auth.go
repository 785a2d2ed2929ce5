package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"terrainhub/models"
	"terrainhub/utils"
)

const principalKey = "principal"

// AuthMiddleware verifies the bearer token and stores the principal in the context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := principalFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, errBadFormat) {
				status = http.StatusBadRequest
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		setPrincipal(c, p)
		c.Next()
	}
}

// OptionalAuth stores the principal when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			if p, err := principalFromHeader(header); err == nil {
				setPrincipal(c, p)
			}
		}
		c.Next()
	}
}

var (
	errMissingToken = errors.New("missing authorization token")
	errBadFormat    = errors.New("invalid authorization token format")
)

func principalFromHeader(header string) (models.Principal, error) {
	if header == "" {
		return models.Principal{}, errMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.Principal{}, errBadFormat
	}
	claims, err := utils.ParseJWTToken(parts[1])
	if err != nil {
		return models.Principal{}, err
	}
	p := claims.Principal()
	if p.Email == "" {
		return models.Principal{}, utils.ErrInvalidToken
	}
	return p, nil
}

func setPrincipal(c *gin.Context, p models.Principal) {
	c.Set(principalKey, p)
	c.Set("userEmail", p.Email)
}

// PrincipalFrom returns the authenticated caller, or the zero principal.
func PrincipalFrom(c *gin.Context) models.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(models.Principal); ok {
			return p
		}
	}
	return models.Principal{}
}
