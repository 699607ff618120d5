package tracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantrack/internal/faults"
	"vantrack/internal/models"
)

func TestUpsertCheckpointCreateWithDefaults(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sess, err := svc.StartOrResume(ctx, 7, models.PhaseIdle)
	require.NoError(t, err)

	pt, err := svc.UpsertCheckpoint(ctx, sess.TripID, 7, CheckpointInput{
		Label:     models.LabelSchool,
		Latitude:  -1.2921,
		Longitude: 36.8219,
	})
	require.NoError(t, err)
	assert.Equal(t, 120.0, pt.RadiusM, "default radius applied when none given")
	assert.True(t, pt.IsActive)
	assert.Equal(t, uint(7), pt.DriverID)
}

func TestUpsertCheckpointUpdateByLabel(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sess, err := svc.StartOrResume(ctx, 7, models.PhaseIdle)
	require.NoError(t, err)

	first, err := svc.UpsertCheckpoint(ctx, sess.TripID, 7, CheckpointInput{
		Label:     models.LabelPickup,
		Latitude:  -1.2921,
		Longitude: 36.8219,
	})
	require.NoError(t, err)

	radius := 80.0
	second, err := svc.UpsertCheckpoint(ctx, sess.TripID, 7, CheckpointInput{
		Label:     models.LabelPickup,
		Latitude:  -1.3000,
		Longitude: 36.8300,
		RadiusM:   &radius,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same label updates in place")
	assert.Equal(t, -1.3000, second.Latitude)
	assert.Equal(t, 80.0, second.RadiusM)

	pts, err := svc.Checkpoints(ctx, sess.TripID)
	require.NoError(t, err)
	assert.Len(t, pts, 1)
}

func TestUpsertCheckpointRequiresOwnedSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := CheckpointInput{Label: models.LabelSchool, Latitude: -1.2921, Longitude: 36.8219}

	_, err := svc.UpsertCheckpoint(ctx, "no-such-trip", 7, in)
	assert.ErrorIs(t, err, faults.ErrNotFound)

	sess, err := svc.StartOrResume(ctx, 7, models.PhaseIdle)
	require.NoError(t, err)

	_, err = svc.UpsertCheckpoint(ctx, sess.TripID, 8, in)
	assert.ErrorIs(t, err, faults.ErrForbidden)
}

func TestUpsertCheckpointValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sess, err := svc.StartOrResume(ctx, 7, models.PhaseIdle)
	require.NoError(t, err)

	_, err = svc.UpsertCheckpoint(ctx, sess.TripID, 7, CheckpointInput{
		Label: "depot", Latitude: 0, Longitude: 0,
	})
	assert.ErrorIs(t, err, faults.ErrValidation)

	badRadius := -5.0
	_, err = svc.UpsertCheckpoint(ctx, sess.TripID, 7, CheckpointInput{
		Label: models.LabelCustom, Latitude: 0, Longitude: 0, RadiusM: &badRadius,
	})
	assert.ErrorIs(t, err, faults.ErrValidation)

	_, err = svc.UpsertCheckpoint(ctx, sess.TripID, 7, CheckpointInput{
		Label: models.LabelCustom, Latitude: 95, Longitude: 0,
	})
	assert.ErrorIs(t, err, faults.ErrValidation)
}

func TestCheckpointsListsOnlyActive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sess, err := svc.StartOrResume(ctx, 7, models.PhaseIdle)
	require.NoError(t, err)

	_, err = svc.UpsertCheckpoint(ctx, sess.TripID, 7, CheckpointInput{
		Label: models.LabelSchool, Latitude: -1.2921, Longitude: 36.8219,
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.UpsertCheckpoint(ctx, sess.TripID, 7, CheckpointInput{
		Label: models.LabelPickup, Latitude: -1.3000, Longitude: 36.8300, IsActive: &inactive,
	})
	require.NoError(t, err)

	pts, err := svc.Checkpoints(ctx, sess.TripID)
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, models.LabelSchool, pts[0].Label)
}
