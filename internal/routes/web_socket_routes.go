package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vantrack/internal/auth"
	"vantrack/internal/tracking"
	"vantrack/internal/ws"
)

func WebSocketRoutes(r *gin.Engine, db *gorm.DB, svc *tracking.Service, hub *ws.Hub) {
	handler := ws.NewHandler(auth.NewResolver(db), svc, hub)

	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/trips", handler.Serve)
	}
}
