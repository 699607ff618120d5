package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vantrack/internal/auth"
	"vantrack/internal/config"
	"vantrack/internal/faults"
	"vantrack/internal/middleware"
	"vantrack/internal/models"
	"vantrack/internal/tracking"
	"vantrack/internal/ws"
)

// TripController exposes the tracking engine over HTTP. Accepted samples
// are fanned out through the same hub the WebSocket publish path uses.
type TripController struct {
	svc *tracking.Service
	hub *ws.Hub
}

// NewTripController wires the controller to the engine and the broadcast hub.
func NewTripController(svc *tracking.Service, hub *ws.Hub) *TripController {
	return &TripController{svc: svc, hub: hub}
}

// callerDriverID resolves the authenticated user to their driver record.
func callerDriverID(c *gin.Context) (uint, bool) {
	driverID, err := auth.ResolveDriverID(config.DB, middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no driver record for caller", "code": "forbidden"})
		return 0, false
	}
	return driverID, true
}

// canRead gates the trip read paths: the owning driver, a parent linked to
// the driver through a child record, or an admin.
func (tc *TripController) canRead(c *gin.Context, tripID string) (*models.TripSession, bool) {
	sess, err := tc.svc.Get(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	userID := middleware.UserID(c)
	switch middleware.Role(c) {
	case "admin":
		return sess, true
	case "driver":
		driverID, err := auth.ResolveDriverID(config.DB, userID)
		if err == nil && driverID == sess.DriverID {
			return sess, true
		}
	case "parent":
		parentID, err := auth.ResolveParentID(config.DB, userID)
		if err == nil {
			linked, lerr := auth.IsParentLinkedToDriver(config.DB, parentID, sess.DriverID)
			if lerr == nil && linked {
				return sess, true
			}
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for this trip", "code": "forbidden"})
	return nil, false
}

type startTripInput struct {
	Phase string `json:"phase"`
}

// StartTrip starts a new session for the calling driver or resumes their
// open one.
func (tc *TripController) StartTrip(c *gin.Context) {
	driverID, ok := callerDriverID(c)
	if !ok {
		return
	}
	var input startTripInput
	if err := c.ShouldBindJSON(&input); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := tc.svc.StartOrResume(c.Request.Context(), driverID, input.Phase)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

type setStatusInput struct {
	Status string `json:"status" binding:"required"`
	Phase  string `json:"phase"`
}

// SetStatus applies a lifecycle transition to the caller's trip.
func (tc *TripController) SetStatus(c *gin.Context) {
	driverID, ok := callerDriverID(c)
	if !ok {
		return
	}
	var input setStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := tc.svc.SetStatus(c.Request.Context(), c.Param("tripId"), driverID, input.Status, input.Phase)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// GetTrip returns the session row for a trip.
func (tc *TripController) GetTrip(c *gin.Context) {
	sess, ok := tc.canRead(c, c.Param("tripId"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

type locationInput struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	SpeedKmh   *float64 `json:"speed_kmh"`
	Heading    *float64 `json:"heading"`
	AccuracyM  *float64 `json:"accuracy_m"`
	TripPhase  string   `json:"trip_phase"`
	RecordedAt string   `json:"recorded_at"`
}

// SubmitLocation is the HTTP ingest path. The accepted sample and any
// geofence events are broadcast to the trip's room exactly as the WebSocket
// publish path does.
func (tc *TripController) SubmitLocation(c *gin.Context) {
	driverID, ok := callerDriverID(c)
	if !ok {
		return
	}
	var input locationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sample := tracking.Sample{
		TripID:     c.Param("tripId"),
		DriverID:   driverID,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		SpeedKmh:   input.SpeedKmh,
		Heading:    input.Heading,
		AccuracyM:  input.AccuracyM,
		TripPhase:  input.TripPhase,
		RecordedAt: ws.ParseRecordedAt(input.RecordedAt),
	}
	latest, events, err := tc.svc.Ingest(c.Request.Context(), sample)
	if err != nil {
		respondError(c, err)
		return
	}

	tc.hub.Broadcast(sample.TripID, ws.Frame{Type: ws.FrameLocation, TripID: sample.TripID, Payload: latest})
	for i := range events {
		tc.hub.Broadcast(sample.TripID, ws.Frame{Type: ws.FrameGeofenceEvent, TripID: sample.TripID, Payload: events[i]})
	}

	c.JSON(http.StatusOK, gin.H{"position": latest, "events": events})
}

// Latest returns the current position of a trip.
func (tc *TripController) Latest(c *gin.Context) {
	tripID := c.Param("tripId")
	if _, ok := tc.canRead(c, tripID); !ok {
		return
	}
	pos, err := tc.svc.Latest(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": pos})
}

// parseQueryOptions reads from/to/limit/order query parameters.
func parseQueryOptions(c *gin.Context) (tracking.QueryOptions, error) {
	var opts tracking.QueryOptions
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, faults.Validationf("invalid from timestamp %q", raw)
		}
		opts.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, faults.Validationf("invalid to timestamp %q", raw)
		}
		opts.To = &t
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return opts, faults.Validationf("invalid limit %q", raw)
		}
		opts.Limit = n
	}
	opts.Order = c.Query("order")
	return opts, nil
}

// History returns the throttled history rows in a time range.
func (tc *TripController) History(c *gin.Context) {
	tripID := c.Param("tripId")
	if _, ok := tc.canRead(c, tripID); !ok {
		return
	}
	opts, err := parseQueryOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := tc.svc.Query(c.Request.Context(), tripID, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": result.Points})
}

// Playback returns history rows plus derived distance/duration/speed stats.
func (tc *TripController) Playback(c *gin.Context) {
	tripID := c.Param("tripId")
	if _, ok := tc.canRead(c, tripID); !ok {
		return
	}
	opts, err := parseQueryOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := tc.svc.Query(c.Request.Context(), tripID, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Events returns the geofence event log in a time range.
func (tc *TripController) Events(c *gin.Context) {
	tripID := c.Param("tripId")
	if _, ok := tc.canRead(c, tripID); !ok {
		return
	}
	opts, err := parseQueryOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}
	events, err := tc.svc.Events(c.Request.Context(), tripID, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
