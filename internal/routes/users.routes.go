package routes

import (
	"github.com/gin-gonic/gin"

	"groundstation/internal/controllers"
	"groundstation/internal/middleware"
)

// RegisterUserRoutes registers authentication and user management, with
// the stricter rate limit on credential-bearing endpoints
func RegisterUserRoutes(r *gin.Engine, uc *controllers.UsersController, authLimiter *middleware.RateLimiter) {
	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(authLimiter))
	{
		api.POST("/auth", uc.PostAuth)
		api.GET("/users", uc.GetUsers)
		api.POST("/users", uc.PostUsers)
		api.POST("/users/delete", uc.PostUsersDelete)
	}
}
