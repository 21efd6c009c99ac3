package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"bantay_tracker/internal/engine"
	"bantay_tracker/internal/middleware"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// HandleMonitorWebSocket upgrades an operator dashboard connection and
// subscribes it to the live monitoring channel: boundary notifications,
// position refreshes, clears, and tracker status transitions all arrive
// here. Browsers cannot set an Authorization header on a WebSocket upgrade,
// so the JWT rides in the token query parameter.
func HandleMonitorWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
		return
	}
	claims, err := middleware.ValidateToken(tokenString)
	if err != nil {
		logrus.WithError(err).Warn("Monitor WebSocket connection rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	monitorHub.RegisterClient(engine.MonitorChannel, conn)
	defer monitorHub.UnregisterClient(engine.MonitorChannel, conn)

	logrus.WithFields(logrus.Fields{
		"user_id": claims.UserID,
		"role":    claims.Role,
	}).Info("Monitor WebSocket connection established.")

	// Monitoring is one-way; drain the read side until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("user_id", claims.UserID).Warn("Error reading from monitor WebSocket")
			}
			break
		}
	}

	logrus.WithField("user_id", claims.UserID).Info("Monitor WebSocket connection closed.")
}
