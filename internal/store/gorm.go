package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vantrack/internal/faults"
	"vantrack/internal/models"
)

// gormStore is the production Store backed by Postgres through gorm.
type gormStore struct {
	db *gorm.DB
}

// NewGorm wraps a gorm handle in the Store interface.
func NewGorm(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// isDuplicate detects a unique-constraint violation from either the gorm
// error translator or the raw Postgres error code.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// translate maps driver errors onto the shared taxonomy. Anything that is
// not a not-found or a duplicate is assumed to be a store availability
// problem and surfaces as retryable.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return faults.ErrNotFound
	case isDuplicate(err):
		return ErrDuplicate
	default:
		return fmt.Errorf("%w: %v", faults.ErrTransient, err)
	}
}

func (g *gormStore) SessionByTripID(ctx context.Context, tripID string) (*models.TripSession, error) {
	var s models.TripSession
	if err := g.db.WithContext(ctx).Where("trip_id = ?", tripID).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (g *gormStore) OpenSessionByDriver(ctx context.Context, driverID uint) (*models.TripSession, error) {
	var s models.TripSession
	err := g.db.WithContext(ctx).
		Where("driver_id = ? AND status IN ?", driverID, []string{models.TripStatusActive, models.TripStatusPaused}).
		Order("updated_at desc").
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (g *gormStore) CreateSession(ctx context.Context, s *models.TripSession) error {
	return translate(g.db.WithContext(ctx).Create(s).Error)
}

func (g *gormStore) SaveSession(ctx context.Context, s *models.TripSession) error {
	return translate(g.db.WithContext(ctx).Save(s).Error)
}

func (g *gormStore) LatestByTripID(ctx context.Context, tripID string) (*models.LatestPosition, error) {
	var p models.LatestPosition
	if err := g.db.WithContext(ctx).Where("trip_id = ?", tripID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (g *gormStore) UpsertLatest(ctx context.Context, p *models.LatestPosition) error {
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "trip_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"driver_id", "latitude", "longitude", "speed_kmh", "heading",
			"accuracy_m", "trip_phase", "recorded_at", "updated_at",
		}),
	}).Create(p).Error
	return translate(err)
}

func (g *gormStore) SetLatestPhase(ctx context.Context, tripID, phase string) error {
	// No-op when the trip has no latest-position row yet.
	err := g.db.WithContext(ctx).
		Model(&models.LatestPosition{}).
		Where("trip_id = ?", tripID).
		Update("trip_phase", phase).Error
	return translate(err)
}

func (g *gormStore) LastHistoryTime(ctx context.Context, tripID string) (time.Time, bool, error) {
	var p models.HistoryPoint
	err := g.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("recorded_at desc").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, translate(err)
	}
	return p.RecordedAt, true, nil
}

func (g *gormStore) AppendHistory(ctx context.Context, p *models.HistoryPoint) error {
	return translate(g.db.WithContext(ctx).Create(p).Error)
}

func (g *gormStore) HistoryRange(ctx context.Context, tripID string, from, to *time.Time, limit int, asc bool) ([]models.HistoryPoint, error) {
	q := g.db.WithContext(ctx).Where("trip_id = ?", tripID)
	if from != nil {
		q = q.Where("recorded_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("recorded_at <= ?", *to)
	}
	order := "recorded_at desc, id desc"
	if asc {
		order = "recorded_at asc, id asc"
	}
	var points []models.HistoryPoint
	if err := q.Order(order).Limit(limit).Find(&points).Error; err != nil {
		return nil, translate(err)
	}
	return points, nil
}

func (g *gormStore) ActiveCheckpoints(ctx context.Context, tripID string) ([]models.GeofencePoint, error) {
	var points []models.GeofencePoint
	err := g.db.WithContext(ctx).
		Where("trip_id = ? AND is_active = ?", tripID, true).
		Find(&points).Error
	if err != nil {
		return nil, translate(err)
	}
	return points, nil
}

func (g *gormStore) CheckpointByLabel(ctx context.Context, tripID, label string) (*models.GeofencePoint, error) {
	var p models.GeofencePoint
	err := g.db.WithContext(ctx).
		Where("trip_id = ? AND label = ?", tripID, label).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (g *gormStore) SaveCheckpoint(ctx context.Context, p *models.GeofencePoint) error {
	return translate(g.db.WithContext(ctx).Save(p).Error)
}

func (g *gormStore) LastEvent(ctx context.Context, pointID uint) (*models.GeofenceEvent, error) {
	var e models.GeofenceEvent
	err := g.db.WithContext(ctx).
		Where("point_id = ?", pointID).
		Order("recorded_at desc, id desc").
		First(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (g *gormStore) HasReached(ctx context.Context, pointID uint) (bool, error) {
	var n int64
	err := g.db.WithContext(ctx).
		Model(&models.GeofenceEvent{}).
		Where("point_id = ? AND event_type = ?", pointID, models.EventReached).
		Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (g *gormStore) AppendEvent(ctx context.Context, e *models.GeofenceEvent) error {
	return translate(g.db.WithContext(ctx).Create(e).Error)
}

func (g *gormStore) EventsRange(ctx context.Context, tripID string, from, to *time.Time, limit int, asc bool) ([]models.GeofenceEvent, error) {
	q := g.db.WithContext(ctx).Where("trip_id = ?", tripID)
	if from != nil {
		q = q.Where("recorded_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("recorded_at <= ?", *to)
	}
	order := "recorded_at desc, id desc"
	if asc {
		order = "recorded_at asc, id asc"
	}
	var events []models.GeofenceEvent
	if err := q.Order(order).Limit(limit).Find(&events).Error; err != nil {
		return nil, translate(err)
	}
	return events, nil
}

func (g *gormStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64

	res := g.db.WithContext(ctx).Unscoped().
		Where("recorded_at < ?", cutoff).
		Delete(&models.HistoryPoint{})
	if res.Error != nil {
		return purged, translate(res.Error)
	}
	purged += res.RowsAffected

	res = g.db.WithContext(ctx).Unscoped().
		Where("recorded_at < ?", cutoff).
		Delete(&models.GeofenceEvent{})
	if res.Error != nil {
		return purged, translate(res.Error)
	}
	purged += res.RowsAffected

	return purged, nil
}
