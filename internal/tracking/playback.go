package tracking

import (
	"context"
	"time"

	"vantrack/internal/faults"
	"vantrack/internal/geo"
	"vantrack/internal/models"
)

// Query limits.
const (
	DefaultQueryLimit = 300
	MaxQueryLimit     = 1000
)

// QueryOptions selects a slice of a trip's history or event log.
type QueryOptions struct {
	From  *time.Time
	To    *time.Time
	Limit int
	Order string // "asc" (default) or "desc"
}

// normalize validates the range and fills in defaults. The from>to check
// runs before any store read.
func (o *QueryOptions) normalize() (asc bool, err error) {
	if o.From != nil && o.To != nil && o.From.After(*o.To) {
		return false, faults.Validationf("range start %s is after range end %s", o.From.Format(time.RFC3339), o.To.Format(time.RFC3339))
	}
	switch o.Order {
	case "", "asc":
		o.Order = "asc"
		asc = true
	case "desc":
		asc = false
	default:
		return false, faults.Validationf("order must be asc or desc, got %q", o.Order)
	}
	if o.Limit <= 0 {
		o.Limit = DefaultQueryLimit
	}
	if o.Limit > MaxQueryLimit {
		o.Limit = MaxQueryLimit
	}
	return asc, nil
}

// Stats summarizes the returned points. Distance is summed over consecutive
// returned points in return order; haversine is symmetric, so an asc and a
// desc traversal of the same slice sum to the same total.
type Stats struct {
	TotalDistanceKm float64    `json:"total_distance_km"`
	DurationSeconds float64    `json:"duration_seconds"`
	AverageSpeedKmh *float64   `json:"average_speed_kmh"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
}

// PlaybackResult is the playback query answer: the selected points plus
// derived statistics.
type PlaybackResult struct {
	Points []models.HistoryPoint `json:"points"`
	Stats  Stats                 `json:"stats"`
}

// Query range-reads history points and derives distance/duration/speed
// statistics over the returned slice.
func (s *Service) Query(ctx context.Context, tripID string, opts QueryOptions) (*PlaybackResult, error) {
	asc, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	points, err := s.store.HistoryRange(ctx, tripID, opts.From, opts.To, opts.Limit, asc)
	if err != nil {
		return nil, err
	}

	result := &PlaybackResult{Points: points}
	if len(points) == 0 {
		return result, nil
	}

	var distM float64
	for i := 1; i < len(points); i++ {
		distM += geo.Haversine(
			points[i-1].Latitude, points[i-1].Longitude,
			points[i].Latitude, points[i].Longitude,
		)
	}
	result.Stats.TotalDistanceKm = distM / 1000

	first := points[0].RecordedAt
	last := points[len(points)-1].RecordedAt
	duration := last.Sub(first).Seconds()
	if duration < 0 {
		duration = 0
	}
	result.Stats.DurationSeconds = duration
	if duration > 0 {
		avg := result.Stats.TotalDistanceKm / duration * 3600
		result.Stats.AverageSpeedKmh = &avg
	}
	result.Stats.StartedAt = &first
	result.Stats.EndedAt = &last
	return result, nil
}

// Events range-reads the geofence event log for a trip.
func (s *Service) Events(ctx context.Context, tripID string, opts QueryOptions) ([]models.GeofenceEvent, error) {
	asc, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	return s.store.EventsRange(ctx, tripID, opts.From, opts.To, opts.Limit, asc)
}
