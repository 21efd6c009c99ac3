package routes

import (
	"github.com/gin-gonic/gin"

	"bantay_tracker/internal/controllers"
	"bantay_tracker/internal/middleware"
)

func IngestRoutes(r *gin.Engine) {
	ingest := r.Group("/ingest")
	ingest.Use(middleware.RequireDeviceToken())
	{
		ingest.POST("/positions", controllers.IngestPosition)
	}
}
