package routes

import (
	"github.com/gin-gonic/gin"

	"bantay_tracker/internal/controllers"
	"bantay_tracker/internal/middleware"
)

func DeviceRoutes(r *gin.Engine) {
	devices := r.Group("/devices")
	devices.Use(middleware.RequireAuthWithRole("admin"))
	{
		devices.GET("", controllers.ListDeviceTokens)
		devices.POST("", controllers.CreateDeviceToken)
		devices.DELETE("/:id", controllers.RevokeDeviceToken)
	}
}
