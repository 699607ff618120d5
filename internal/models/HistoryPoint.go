package models

import (
	"time"

	"gorm.io/gorm"
)

// HistoryPoint is an append-only throttled position sample. A new row is
// written only when at least the configured throttle interval has elapsed
// since the previous row for the trip; aged rows are purged by the sweeper.
type HistoryPoint struct {
	gorm.Model
	TripID     string    `json:"trip_id" gorm:"index:idx_history_trip_time;size:64"`
	DriverID   uint      `json:"driver_id" gorm:"index"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKmh   *float64  `json:"speed_kmh,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	TripPhase  string    `json:"trip_phase"`
	RecordedAt time.Time `json:"recorded_at" gorm:"index:idx_history_trip_time"`
}
