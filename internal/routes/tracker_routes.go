package routes

import (
	"github.com/gin-gonic/gin"

	"bantay_tracker/internal/controllers"
	"bantay_tracker/internal/middleware"
)

func TrackerRoutes(r *gin.Engine) {
	trackers := r.Group("/trackers")
	trackers.Use(middleware.RequireAuth())
	{
		trackers.GET("", controllers.ListTrackers)
		trackers.POST("", middleware.RequireAuthWithRole("admin"), controllers.CreateTracker)
		trackers.GET("/:serial/status", controllers.GetTrackerStatus)
		trackers.GET("/:serial/status/history", controllers.ListTrackerStatusEvents)
	}
}
