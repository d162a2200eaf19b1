package routes

import (
	"github.com/gin-gonic/gin"

	"groundstation/internal/controllers"
)

// RegisterSessionRoutes registers session lifecycle control and reconnect
func RegisterSessionRoutes(r *gin.Engine, sc *controllers.SessionController) {
	api := r.Group("/api")
	{
		api.POST("/session/start", sc.PostStart)
		api.POST("/session/stop", sc.PostStop)
		api.GET("/session/status", sc.GetStatus)
		api.GET("/session/token", sc.GetTokenStatus)
		api.POST("/reconnect", sc.PostReconnect)
	}
}
