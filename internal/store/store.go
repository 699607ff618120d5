// Package store is the single seam between the tracking engine and the
// durable store. The narrow interface keeps every read-modify-write used by
// the engine testable against the in-memory implementation, while the gorm
// implementation is the writer-of-record in production.
package store

import (
	"context"
	"errors"
	"time"

	"vantrack/internal/models"
)

// ErrDuplicate is returned when an insert hits a unique constraint. Callers
// that rely on the constraint for idempotency (the one-reached-per-point
// rule) treat it as a no-op.
var ErrDuplicate = errors.New("duplicate row")

// Store is the durable-store seam used by the tracking engine and the
// retention sweeper.
type Store interface {
	// Sessions.
	SessionByTripID(ctx context.Context, tripID string) (*models.TripSession, error)
	OpenSessionByDriver(ctx context.Context, driverID uint) (*models.TripSession, error)
	CreateSession(ctx context.Context, s *models.TripSession) error
	SaveSession(ctx context.Context, s *models.TripSession) error

	// Latest position.
	LatestByTripID(ctx context.Context, tripID string) (*models.LatestPosition, error)
	UpsertLatest(ctx context.Context, p *models.LatestPosition) error
	SetLatestPhase(ctx context.Context, tripID, phase string) error

	// Throttled history.
	LastHistoryTime(ctx context.Context, tripID string) (time.Time, bool, error)
	AppendHistory(ctx context.Context, p *models.HistoryPoint) error
	HistoryRange(ctx context.Context, tripID string, from, to *time.Time, limit int, asc bool) ([]models.HistoryPoint, error)

	// Geofence checkpoints.
	ActiveCheckpoints(ctx context.Context, tripID string) ([]models.GeofencePoint, error)
	CheckpointByLabel(ctx context.Context, tripID, label string) (*models.GeofencePoint, error)
	SaveCheckpoint(ctx context.Context, p *models.GeofencePoint) error

	// Geofence events.
	LastEvent(ctx context.Context, pointID uint) (*models.GeofenceEvent, error)
	HasReached(ctx context.Context, pointID uint) (bool, error)
	AppendEvent(ctx context.Context, e *models.GeofenceEvent) error
	EventsRange(ctx context.Context, tripID string, from, to *time.Time, limit int, asc bool) ([]models.GeofenceEvent, error)

	// Retention.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
