package routes

import (
	"github.com/gin-gonic/gin"

	"bantay_tracker/internal/controllers"
	"bantay_tracker/internal/middleware"
)

func RegistryRoutes(r *gin.Engine) {
	fisherfolk := r.Group("/fisherfolk")
	fisherfolk.Use(middleware.RequireAuth())
	{
		fisherfolk.GET("", controllers.ListFisherfolk)
		fisherfolk.POST("", middleware.RequireAuthWithRole("admin", "municipal_agriculturist"), controllers.CreateFisherfolk)
	}

	boats := r.Group("/boats")
	boats.Use(middleware.RequireAuth())
	{
		boats.GET("", controllers.ListBoats)
		boats.POST("", middleware.RequireAuthWithRole("admin", "municipal_agriculturist"), controllers.CreateBoat)
	}
}
