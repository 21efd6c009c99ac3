package routes

import (
	"github.com/gin-gonic/gin"

	"bantay_tracker/internal/controllers"
	"bantay_tracker/internal/middleware"
)

func ViolationRoutes(r *gin.Engine) {
	violations := r.Group("/violations")
	violations.Use(middleware.RequireAuth())
	{
		violations.GET("", controllers.ListViolations)
		violations.GET("/:id", controllers.GetViolation)
		violations.GET("/:id/audit", controllers.ListViolationAuditLogs)
		violations.PATCH("/:id/status", controllers.UpdateViolationStatus)
		violations.PATCH("/:id/report", controllers.UpdateViolationReport)
	}
}
