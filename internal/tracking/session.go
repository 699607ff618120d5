package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"

	"vantrack/internal/faults"
	"vantrack/internal/models"
)

// StartOrResume returns the driver's open session transitioned to active, or
// creates a new session with a fresh trip identifier when the driver has no
// active or paused session.
func (s *Service) StartOrResume(ctx context.Context, driverID uint, phase string) (*models.TripSession, error) {
	if phase == "" {
		phase = models.PhaseIdle
	}
	if !models.ValidTripPhase(phase) {
		return nil, faults.Validationf("unknown trip phase %q", phase)
	}

	s.locks.lock(driverKey(driverID))
	defer s.locks.unlock(driverKey(driverID))

	open, err := s.store.OpenSessionByDriver(ctx, driverID)
	if err != nil && !errors.Is(err, faults.ErrNotFound) {
		return nil, err
	}
	if open != nil {
		s.locks.lock(tripKey(open.TripID))
		defer s.locks.unlock(tripKey(open.TripID))

		// Re-read under the trip lock. A status change that landed between
		// the open-session lookup and here must not be overwritten with the
		// stale row; a meanwhile-completed session stays completed and the
		// driver gets a fresh trip instead.
		sess, err := s.store.SessionByTripID(ctx, open.TripID)
		if err != nil && !errors.Is(err, faults.ErrNotFound) {
			return nil, err
		}
		if sess != nil && sess.Status != models.TripStatusCompleted {
			sess.Status = models.TripStatusActive
			sess.Phase = phase
			sess.EndedAt = nil
			if err := s.store.SaveSession(ctx, sess); err != nil {
				return nil, err
			}
			logrus.WithFields(logrus.Fields{
				"trip_id":   sess.TripID,
				"driver_id": driverID,
				"phase":     phase,
			}).Info("Resumed trip session.")
			return sess, nil
		}
	}

	sess := &models.TripSession{
		TripID:    uuid.NewString(),
		DriverID:  driverID,
		Status:    models.TripStatusActive,
		Phase:     phase,
		StartedAt: time.Now().UTC(),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"trip_id":   sess.TripID,
		"driver_id": driverID,
		"phase":     phase,
	}).Info("Started new trip session.")
	return sess, nil
}

// SetStatus applies a driver-initiated lifecycle transition. Completed is
// terminal: it stamps EndedAt and rejects any further writes; every other
// status clears EndedAt. The phase is mirrored onto the latest-position row
// when one exists, so readers see a consistent phase without waiting for the
// next GPS sample.
func (s *Service) SetStatus(ctx context.Context, tripID string, driverID uint, status, phase string) (*models.TripSession, error) {
	if !models.ValidTripStatus(status) {
		return nil, faults.Validationf("unknown status %q", status)
	}
	if phase != "" && !models.ValidTripPhase(phase) {
		return nil, faults.Validationf("unknown trip phase %q", phase)
	}

	s.locks.lock(tripKey(tripID))
	defer s.locks.unlock(tripKey(tripID))

	sess, err := s.store.SessionByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if sess.DriverID != driverID {
		return nil, faults.Forbiddenf("trip %s owned by another driver", tripID)
	}
	if sess.Status == models.TripStatusCompleted {
		return nil, fmt.Errorf("%w: session %s already completed", faults.ErrConflict, tripID)
	}

	sess.Status = status
	if phase != "" {
		sess.Phase = phase
	}
	if status == models.TripStatusCompleted {
		now := time.Now().UTC()
		sess.EndedAt = &now
	} else {
		sess.EndedAt = nil
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}

	if phase != "" {
		if err := s.store.SetLatestPhase(ctx, tripID, phase); err != nil {
			logrus.WithError(err).WithField("trip_id", tripID).
				Warn("Failed to mirror phase onto latest position.")
		}
	}

	logrus.WithFields(logrus.Fields{
		"trip_id":   tripID,
		"driver_id": driverID,
		"status":    status,
		"phase":     sess.Phase,
	}).Info("Trip session status changed.")
	return sess, nil
}

// Get fetches a session by trip identifier.
func (s *Service) Get(ctx context.Context, tripID string) (*models.TripSession, error) {
	return s.store.SessionByTripID(ctx, tripID)
}
