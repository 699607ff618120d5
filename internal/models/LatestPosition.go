package models

import (
	"time"

	"gorm.io/gorm"
)

// LatestPosition is the single always-current row per trip, overwritten by
// every accepted sample regardless of history throttling. This is the fast
// path for "where is the van right now".
type LatestPosition struct {
	gorm.Model
	TripID     string    `json:"trip_id" gorm:"uniqueIndex;size:64"`
	DriverID   uint      `json:"driver_id" gorm:"index"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKmh   *float64  `json:"speed_kmh,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	TripPhase  string    `json:"trip_phase"`
	RecordedAt time.Time `json:"recorded_at"`
}
