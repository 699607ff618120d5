package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	logrus "github.com/sirupsen/logrus"

	"vantrack/internal/faults"
	"vantrack/internal/metrics"
	"vantrack/internal/models"
)

// Sample is one incoming position report from a driver device.
type Sample struct {
	TripID     string
	DriverID   uint
	Latitude   float64
	Longitude  float64
	SpeedKmh   *float64
	Heading    *float64
	AccuracyM  *float64
	TripPhase  string
	RecordedAt time.Time
}

func (smp *Sample) validate() error {
	if smp.TripID == "" {
		return faults.Validationf("trip_id is required")
	}
	if smp.Latitude < -90 || smp.Latitude > 90 {
		return faults.Validationf("latitude %v out of range [-90, 90]", smp.Latitude)
	}
	if smp.Longitude < -180 || smp.Longitude > 180 {
		return faults.Validationf("longitude %v out of range [-180, 180]", smp.Longitude)
	}
	if smp.SpeedKmh != nil && (*smp.SpeedKmh < 0 || *smp.SpeedKmh > 250) {
		return faults.Validationf("speed_kmh %v out of range [0, 250]", *smp.SpeedKmh)
	}
	if smp.Heading != nil && (*smp.Heading < 0 || *smp.Heading > 360) {
		return faults.Validationf("heading %v out of range [0, 360]", *smp.Heading)
	}
	if smp.AccuracyM != nil && (*smp.AccuracyM < 0 || *smp.AccuracyM > 5000) {
		return faults.Validationf("accuracy_m %v out of range [0, 5000]", *smp.AccuracyM)
	}
	if !models.ValidTripPhase(smp.TripPhase) {
		return faults.Validationf("unknown trip phase %q", smp.TripPhase)
	}
	return nil
}

// Ingest runs the full ingestion pipeline for one sample: validation, the
// ownership gate, session upsert, the unconditional latest-position write,
// the throttled history append, and geofence detection. It returns the
// persisted latest position plus the geofence events emitted by this sample,
// in emission order.
//
// Once the latest-position write has succeeded the sample counts as
// accepted: history or event persistence failures after that point are
// logged, not returned.
func (s *Service) Ingest(ctx context.Context, smp Sample) (*models.LatestPosition, []models.GeofenceEvent, error) {
	if smp.RecordedAt.IsZero() {
		smp.RecordedAt = time.Now().UTC()
	}
	if err := smp.validate(); err != nil {
		metrics.SamplesIngested.WithLabelValues("rejected").Inc()
		return nil, nil, err
	}

	s.locks.lock(tripKey(smp.TripID))
	defer s.locks.unlock(tripKey(smp.TripID))

	// Ownership gate: any prior row for this trip must belong to the
	// calling driver. Runs before every write.
	prevLatest, err := s.store.LatestByTripID(ctx, smp.TripID)
	if err != nil && !errors.Is(err, faults.ErrNotFound) {
		return nil, nil, err
	}
	if prevLatest != nil && prevLatest.DriverID != smp.DriverID {
		metrics.SamplesIngested.WithLabelValues("rejected").Inc()
		return nil, nil, faults.Forbiddenf("trip %s owned by another driver", smp.TripID)
	}
	sess, err := s.store.SessionByTripID(ctx, smp.TripID)
	if err != nil && !errors.Is(err, faults.ErrNotFound) {
		return nil, nil, err
	}
	if sess != nil && sess.DriverID != smp.DriverID {
		metrics.SamplesIngested.WithLabelValues("rejected").Inc()
		return nil, nil, faults.Forbiddenf("trip %s owned by another driver", smp.TripID)
	}

	// Session upsert. A completed session is never silently resurrected.
	if sess == nil {
		sess = &models.TripSession{
			TripID:    smp.TripID,
			DriverID:  smp.DriverID,
			Status:    models.TripStatusActive,
			Phase:     smp.TripPhase,
			StartedAt: smp.RecordedAt,
		}
		if err := s.store.CreateSession(ctx, sess); err != nil {
			return nil, nil, err
		}
	} else {
		if sess.Status == models.TripStatusCompleted {
			metrics.SamplesIngested.WithLabelValues("rejected").Inc()
			return nil, nil, fmt.Errorf("%w: session %s already completed", faults.ErrConflict, smp.TripID)
		}
		if sess.Status != models.TripStatusActive || sess.Phase != smp.TripPhase {
			sess.Status = models.TripStatusActive
			sess.Phase = smp.TripPhase
			sess.EndedAt = nil
			if err := s.store.SaveSession(ctx, sess); err != nil {
				return nil, nil, err
			}
		}
	}

	// Latest position is overwritten by every accepted sample regardless of
	// the history throttle.
	latest := &models.LatestPosition{
		TripID:     smp.TripID,
		DriverID:   smp.DriverID,
		Latitude:   smp.Latitude,
		Longitude:  smp.Longitude,
		SpeedKmh:   smp.SpeedKmh,
		Heading:    smp.Heading,
		AccuracyM:  smp.AccuracyM,
		TripPhase:  smp.TripPhase,
		RecordedAt: smp.RecordedAt,
	}
	if err := s.store.UpsertLatest(ctx, latest); err != nil {
		return nil, nil, err
	}

	s.appendHistoryThrottled(ctx, smp)
	events := s.detect(ctx, smp)

	metrics.SamplesIngested.WithLabelValues("accepted").Inc()
	return latest, events, nil
}

// appendHistoryThrottled writes a history row unless one was stored less
// than the throttle interval before this sample's recorded time.
func (s *Service) appendHistoryThrottled(ctx context.Context, smp Sample) {
	lastAt, ok, err := s.store.LastHistoryTime(ctx, smp.TripID)
	if err != nil {
		logrus.WithError(err).WithField("trip_id", smp.TripID).
			Error("Failed to read history throttle state; skipping history write.")
		return
	}
	if ok && smp.RecordedAt.Sub(lastAt) < s.throttle {
		metrics.HistoryWritesThrottled.Inc()
		return
	}
	point := &models.HistoryPoint{
		TripID:     smp.TripID,
		DriverID:   smp.DriverID,
		Latitude:   smp.Latitude,
		Longitude:  smp.Longitude,
		SpeedKmh:   smp.SpeedKmh,
		Heading:    smp.Heading,
		AccuracyM:  smp.AccuracyM,
		TripPhase:  smp.TripPhase,
		RecordedAt: smp.RecordedAt,
	}
	if err := s.store.AppendHistory(ctx, point); err != nil {
		logrus.WithError(err).WithField("trip_id", smp.TripID).
			Error("Failed to append history point; sample still accepted.")
	}
}

// Latest returns the current position row for a trip.
func (s *Service) Latest(ctx context.Context, tripID string) (*models.LatestPosition, error) {
	return s.store.LatestByTripID(ctx, tripID)
}
