package routes

import (
	"github.com/gin-gonic/gin"

	"bantay_tracker/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine) {
	wsRoutes := r.Group("/ws")
	{
		// Auth happens in the handler via the token query parameter
		wsRoutes.GET("/monitor", controllers.HandleMonitorWebSocket)
	}
}
