package middlewares

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"terrainhub/internal/limiter"
	"terrainhub/rules"
)

// RateLimit consults the limiter before the handler runs. Callers are keyed
// by principal when authenticated, by client IP otherwise. A limiter failure
// lets the request through.
func RateLimit(l limiter.Limiter, bucket limiter.Bucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := limiter.Identifier(PrincipalFrom(c).Email, c.ClientIP())
		d, err := l.Allow(c.Request.Context(), bucket, id)
		if err != nil {
			slog.Warn("rate limiter unavailable", "bucket", bucket, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.UnixMilli(), 10))

		if !d.Allowed {
			wait := int(math.Ceil(d.RetryAfter(time.Now()).Seconds()))
			c.Header("Retry-After", strconv.Itoa(wait))
			err := fmt.Errorf("%w: %d requests allowed, retry in %d seconds", rules.ErrRateLimited, d.Limit, wait)
			slog.Info("request throttled", "bucket", bucket, "caller", id, "error", err)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}
