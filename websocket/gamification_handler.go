package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"terrainhub/utils"
)

var upgrader = websocket.Upgrader{
	// Origins are enforced by the CORS configuration of the HTTP routes.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeGamification upgrades an authenticated request and streams the
// caller's gamification events until the client disconnects.
func (h *Hub) ServeGamification(c *gin.Context) {
	// Browsers cannot set headers on a WebSocket handshake, so ?token= is accepted too.
	var tokenString string
	if parts := strings.Split(c.GetHeader("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
		tokenString = parts[1]
	}
	if tokenString == "" {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
		return
	}
	claims, err := utils.ParseJWTToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	p := claims.Principal()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &GamificationClient{Conn: conn, UserID: p.Email}
	h.Register(client)
	defer h.Unregister(client)

	_ = client.SafeWriteJSON(gin.H{
		"type":    "connected",
		"message": "Connected to gamification updates",
		"userId":  p.Email,
	})

	// Reading keeps control frames flowing and detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("gamification websocket closed", "user", p.Email, "error", err)
			}
			return
		}
	}
}
