package tracking

import (
	"context"
	"errors"

	logrus "github.com/sirupsen/logrus"

	"vantrack/internal/faults"
	"vantrack/internal/models"
)

// CheckpointInput is a create-or-update request for one named checkpoint.
// Nil RadiusM means the configured default; nil IsActive means active.
type CheckpointInput struct {
	Label     string
	Latitude  float64
	Longitude float64
	RadiusM   *float64
	IsActive  *bool
}

func (in *CheckpointInput) validate() error {
	if !models.ValidLabel(in.Label) {
		return faults.Validationf("unknown checkpoint label %q", in.Label)
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		return faults.Validationf("latitude %v out of range [-90, 90]", in.Latitude)
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return faults.Validationf("longitude %v out of range [-180, 180]", in.Longitude)
	}
	if in.RadiusM != nil && *in.RadiusM <= 0 {
		return faults.Validationf("radius_m must be positive, got %v", *in.RadiusM)
	}
	return nil
}

// UpsertCheckpoint creates or updates the checkpoint with the given label
// for a trip. The trip's session must exist and belong to the calling
// driver. Deactivation is a soft flag so past geofence events keep a valid
// point reference.
func (s *Service) UpsertCheckpoint(ctx context.Context, tripID string, driverID uint, in CheckpointInput) (*models.GeofencePoint, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	sess, err := s.store.SessionByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if sess.DriverID != driverID {
		return nil, faults.Forbiddenf("trip %s owned by another driver", tripID)
	}

	s.locks.lock(tripKey(tripID))
	defer s.locks.unlock(tripKey(tripID))

	pt, err := s.store.CheckpointByLabel(ctx, tripID, in.Label)
	if err != nil {
		if !errors.Is(err, faults.ErrNotFound) {
			return nil, err
		}
		pt = &models.GeofencePoint{
			TripID:   tripID,
			DriverID: driverID,
			Label:    in.Label,
			RadiusM:  s.defaultRadiusM,
			IsActive: true,
		}
	}

	pt.Latitude = in.Latitude
	pt.Longitude = in.Longitude
	if in.RadiusM != nil {
		pt.RadiusM = *in.RadiusM
	}
	if in.IsActive != nil {
		pt.IsActive = *in.IsActive
	}
	if err := s.store.SaveCheckpoint(ctx, pt); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"trip_id":   tripID,
		"label":     pt.Label,
		"radius_m":  pt.RadiusM,
		"is_active": pt.IsActive,
	}).Info("Checkpoint saved.")
	return pt, nil
}

// Checkpoints lists the active checkpoints of a trip.
func (s *Service) Checkpoints(ctx context.Context, tripID string) ([]models.GeofencePoint, error) {
	return s.store.ActiveCheckpoints(ctx, tripID)
}
