package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.New()

	// Recovery and request logging run before any route handler
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger())

	AuthRoutes(r)
	IngestRoutes(r)
	ViolationRoutes(r)
	BoundaryRoutes(r)
	TrackerRoutes(r)
	DeviceRoutes(r)
	RegistryRoutes(r)
	WebSocketRoutes(r)

	return r
}
