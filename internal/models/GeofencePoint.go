package models

import "gorm.io/gorm"

// Checkpoint labels. At most one active checkpoint exists per (trip, label).
const (
	LabelPickup = "pickup"
	LabelSchool = "school"
	LabelCustom = "custom"
)

// ValidLabel reports whether l is a known checkpoint label.
func ValidLabel(l string) bool {
	switch l {
	case LabelPickup, LabelSchool, LabelCustom:
		return true
	}
	return false
}

// GeofencePoint is a named radius-bounded checkpoint for a trip.
// Checkpoints are soft-deactivated via IsActive so geofence events keep a
// valid reference to the point they fired against.
type GeofencePoint struct {
	gorm.Model
	TripID    string  `json:"trip_id" gorm:"uniqueIndex:idx_trip_label;size:64"`
	DriverID  uint    `json:"driver_id" gorm:"index"`
	Label     string  `json:"label" gorm:"uniqueIndex:idx_trip_label;size:16"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusM   float64 `json:"radius_m" gorm:"default:120"`
	IsActive  bool    `json:"is_active" gorm:"default:true"`
}
