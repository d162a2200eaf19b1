package routes

import (
	"github.com/gin-gonic/gin"

	"groundstation/internal/controllers"
)

// RegisterTelemetryRoutes registers the telemetry and dashboard endpoints
func RegisterTelemetryRoutes(r *gin.Engine, tc *controllers.TelemetryController) {
	api := r.Group("/api")
	{
		api.GET("/telemetry", tc.GetTelemetry)
		api.GET("/health", tc.GetHealth)
		api.GET("/dashboard", tc.GetDashboard)
		api.GET("/history", tc.GetHistory)
	}
}
