package tracking

import (
	"context"
	"errors"

	logrus "github.com/sirupsen/logrus"

	"vantrack/internal/faults"
	"vantrack/internal/geo"
	"vantrack/internal/metrics"
	"vantrack/internal/models"
	"vantrack/internal/store"
)

// detect compares a sample against every active checkpoint of its trip and
// persists the resulting transition events. A single sample can emit up to
// two events for one point: the one-time "reached" marker on first arrival,
// then "entered". Callers hold the per-trip lock, which is what keeps the
// last-event lookup and the insert from racing a concurrent duplicate
// request; the partial unique index on reached rows is the store-level
// backstop, and a duplicate insert is swallowed as a no-op.
func (s *Service) detect(ctx context.Context, smp Sample) []models.GeofenceEvent {
	points, err := s.store.ActiveCheckpoints(ctx, smp.TripID)
	if err != nil {
		logrus.WithError(err).WithField("trip_id", smp.TripID).
			Error("Failed to load checkpoints; skipping geofence detection.")
		return nil
	}

	var emitted []models.GeofenceEvent
	for i := range points {
		pt := points[i]
		inside, dist := geo.WithinRadius(smp.Latitude, smp.Longitude, pt.Latitude, pt.Longitude, pt.RadiusM)

		// One-time first-arrival marker, independent of the enter/exit
		// toggle.
		if inside {
			reached, err := s.store.HasReached(ctx, pt.ID)
			if err != nil {
				logrus.WithError(err).WithField("point_id", pt.ID).
					Error("Failed to read reached state.")
			} else if !reached {
				if ev := s.emit(ctx, &pt, smp, models.EventReached, dist); ev != nil {
					emitted = append(emitted, *ev)
				}
			}
		}

		last, err := s.store.LastEvent(ctx, pt.ID)
		if err != nil && !errors.Is(err, faults.ErrNotFound) {
			logrus.WithError(err).WithField("point_id", pt.ID).
				Error("Failed to read last geofence event.")
			continue
		}
		// Only an "entered" row marks the previous state as inside. A
		// "reached" row deliberately does not count for the toggle.
		wasInside := last != nil && last.EventType == models.EventEntered

		switch {
		case inside && !wasInside:
			if ev := s.emit(ctx, &pt, smp, models.EventEntered, dist); ev != nil {
				emitted = append(emitted, *ev)
			}
		case !inside && wasInside:
			if ev := s.emit(ctx, &pt, smp, models.EventExited, dist); ev != nil {
				emitted = append(emitted, *ev)
			}
		}
	}
	return emitted
}

// emit persists one geofence event with its own distance/position/time
// snapshot. Persistence failures are logged, not propagated: the sample was
// already accepted when detection runs.
func (s *Service) emit(ctx context.Context, pt *models.GeofencePoint, smp Sample, eventType string, dist float64) *models.GeofenceEvent {
	ev := models.GeofenceEvent{
		PointID:    pt.ID,
		TripID:     smp.TripID,
		DriverID:   smp.DriverID,
		Label:      pt.Label,
		EventType:  eventType,
		DistanceM:  dist,
		Latitude:   smp.Latitude,
		Longitude:  smp.Longitude,
		RecordedAt: smp.RecordedAt,
	}
	if err := s.store.AppendEvent(ctx, &ev); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Another writer already recorded this reached marker.
			return nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"point_id":   pt.ID,
			"trip_id":    smp.TripID,
			"event_type": eventType,
		}).Error("Failed to persist geofence event.")
		return nil
	}
	metrics.GeofenceEvents.WithLabelValues(eventType).Inc()
	logrus.WithFields(logrus.Fields{
		"point_id":   pt.ID,
		"trip_id":    smp.TripID,
		"label":      pt.Label,
		"event_type": eventType,
		"distance_m": dist,
	}).Info("Geofence event emitted.")
	return &ev
}
