package routes

import (
	"github.com/gin-gonic/gin"

	"groundstation/internal/controllers"
)

// RegisterWebSocketRoutes registers the real-time dashboard endpoint
func RegisterWebSocketRoutes(r *gin.Engine, wc *controllers.WebSocketController) {
	r.GET("/ws", wc.Handle)
}
