package routes

import (
	"github.com/gin-gonic/gin"

	"bantay_tracker/internal/controllers"
	"bantay_tracker/internal/middleware"
)

func AuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", controllers.LoginUser)
		auth.POST("/signup", middleware.RequireAuthWithRole("admin"), controllers.SignupUser)
	}
}
