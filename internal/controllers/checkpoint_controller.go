package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"vantrack/internal/tracking"
)

type checkpointInput struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	RadiusM   *float64 `json:"radius_m"`
	IsActive  *bool    `json:"is_active"`
}

// UpsertCheckpoint creates or updates the named checkpoint of the caller's
// trip. The label comes from the URL so each (trip, label) pair stays
// unique.
func (tc *TripController) UpsertCheckpoint(c *gin.Context) {
	driverID, ok := callerDriverID(c)
	if !ok {
		return
	}
	var input checkpointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pt, err := tc.svc.UpsertCheckpoint(c.Request.Context(), c.Param("tripId"), driverID, tracking.CheckpointInput{
		Label:     c.Param("label"),
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		RadiusM:   input.RadiusM,
		IsActive:  input.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkpoint": pt})
}

// ListCheckpoints returns the trip's active checkpoints as a GeoJSON
// FeatureCollection, ready for map display.
func (tc *TripController) ListCheckpoints(c *gin.Context) {
	tripID := c.Param("tripId")
	if _, ok := tc.canRead(c, tripID); !ok {
		return
	}
	points, err := tc.svc.Checkpoints(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	fc := &geojson.FeatureCollection{}
	for i := range points {
		pt := points[i]
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.FormatUint(uint64(pt.ID), 10),
			Geometry: geom.NewPointFlat(geom.XY, []float64{pt.Longitude, pt.Latitude}),
			Properties: map[string]interface{}{
				"trip_id":  pt.TripID,
				"label":    pt.Label,
				"radius_m": pt.RadiusM,
			},
		})
	}
	c.JSON(http.StatusOK, fc)
}
