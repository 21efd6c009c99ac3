package routes

import (
	"github.com/gin-gonic/gin"

	"bantay_tracker/internal/controllers"
	"bantay_tracker/internal/middleware"
)

func BoundaryRoutes(r *gin.Engine) {
	boundaries := r.Group("/boundaries")
	boundaries.Use(middleware.RequireAuth())
	{
		boundaries.GET("", controllers.ListBoundaries)
		boundaries.GET("/:id", controllers.GetBoundary)
		boundaries.POST("", middleware.RequireAuthWithRole("admin", "provincial_agriculturist"), controllers.UpsertBoundary)
	}
}
