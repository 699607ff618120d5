package routes

import (
	"github.com/gin-gonic/gin"

	"vantrack/internal/controllers"
	"vantrack/internal/middleware"
	"vantrack/internal/tracking"
	"vantrack/internal/ws"
)

func TripRoutes(r *gin.Engine, svc *tracking.Service, hub *ws.Hub) {
	tc := controllers.NewTripController(svc, hub)

	// Driver-only write paths.
	write := r.Group("/trips")
	write.Use(middleware.RequireAuthWithRole("driver"))
	{
		write.POST("/start", tc.StartTrip)
		write.PATCH("/:tripId/status", tc.SetStatus)
		write.POST("/:tripId/location", tc.SubmitLocation)
		write.PUT("/:tripId/checkpoints/:label", tc.UpsertCheckpoint)
	}

	// Read paths, gated per trip inside the controller (owning driver,
	// linked parent, or admin).
	read := r.Group("/trips")
	read.Use(middleware.RequireAuth())
	{
		read.GET("/:tripId", tc.GetTrip)
		read.GET("/:tripId/latest", tc.Latest)
		read.GET("/:tripId/history", tc.History)
		read.GET("/:tripId/playback", tc.Playback)
		read.GET("/:tripId/events", tc.Events)
		read.GET("/:tripId/checkpoints", tc.ListCheckpoints)
	}
}
