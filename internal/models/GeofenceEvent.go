package models

import (
	"time"

	"gorm.io/gorm"
)

// Geofence event types. "entered" and "exited" alternate on state
// transitions; "reached" is a one-time first-arrival marker per point.
const (
	EventEntered = "entered"
	EventExited  = "exited"
	EventReached = "reached"
)

// GeofenceEvent is an append-only audit row for one checkpoint transition,
// snapshotting the distance and position that triggered it. The partial
// unique index on (point_id) for reached rows backs the at-most-one-reached
// invariant at the store level; a duplicate insert comes back as a unique
// violation and is treated as a no-op by detection.
type GeofenceEvent struct {
	gorm.Model
	PointID    uint      `json:"point_id" gorm:"index;index:idx_point_reached,unique,where:event_type = 'reached'"`
	TripID     string    `json:"trip_id" gorm:"index:idx_event_trip_time;size:64"`
	DriverID   uint      `json:"driver_id"`
	Label      string    `json:"label"`
	EventType  string    `json:"event_type" gorm:"size:16;index:idx_point_reached,unique,where:event_type = 'reached'"`
	DistanceM  float64   `json:"distance_m"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at" gorm:"index:idx_event_trip_time"`
}
