package models

import (
	"time"

	"gorm.io/gorm"
)

// Trip session statuses. "completed" is terminal.
const (
	TripStatusActive    = "active"
	TripStatusPaused    = "paused"
	TripStatusCompleted = "completed"
)

// Trip phases as reported by the driver app.
const (
	PhaseIdle             = "idle"
	PhaseEnRouteToPickups = "en_route_to_pickups"
	PhasePickingUp        = "picking_up"
	PhaseEnRouteToSchool  = "en_route_to_school"
	PhaseCompleted        = "completed"
)

// ValidTripStatus reports whether s is a known session status.
func ValidTripStatus(s string) bool {
	switch s {
	case TripStatusActive, TripStatusPaused, TripStatusCompleted:
		return true
	}
	return false
}

// ValidTripPhase reports whether p is a known trip phase.
func ValidTripPhase(p string) bool {
	switch p {
	case PhaseIdle, PhaseEnRouteToPickups, PhasePickingUp, PhaseEnRouteToSchool, PhaseCompleted:
		return true
	}
	return false
}

// TripSession is the lifecycle row for one transport run.
// TripID is the stable external identifier; at most one row exists per TripID.
// Rows are never hard-deleted so playback and audit keep working after the run.
type TripSession struct {
	gorm.Model
	TripID    string     `json:"trip_id" gorm:"uniqueIndex;size:64"`
	DriverID  uint       `json:"driver_id" gorm:"index"`
	Status    string     `json:"status"` // active, paused, completed
	Phase     string     `json:"phase"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}
