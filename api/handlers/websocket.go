package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pscomixx/studio-collab/internal/ws"
)

// WebSocketHandler exposes the realtime collab connection endpoint.
type WebSocketHandler struct {
	wsHandler *ws.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(wsHandler *ws.Handler) *WebSocketHandler {
	return &WebSocketHandler{
		wsHandler: wsHandler,
	}
}

// Connect handles GET /api/collab/ws - upgrades to WebSocket. Identity and
// session membership are established by the join handshake on the socket,
// not by this request.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	// Upgrade errors are already written to the response by the upgrader.
	_ = h.wsHandler.HandleConnection(c.Writer, c.Request)
}

// RegisterRoutes registers the WebSocket route on a Gin router group.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/collab/ws", h.Connect)
}
