package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantrack/internal/faults"
	"vantrack/internal/models"
	"vantrack/internal/store"
)

func newTestService() (*Service, *store.Memory) {
	mem := store.NewMemory()
	svc := New(mem, Options{HistoryThrottle: 10 * time.Second, DefaultRadiusM: 120})
	return svc, mem
}

func sample(tripID string, driverID uint, lat, lon float64, at time.Time) Sample {
	return Sample{
		TripID:     tripID,
		DriverID:   driverID,
		Latitude:   lat,
		Longitude:  lon,
		TripPhase:  models.PhaseEnRouteToSchool,
		RecordedAt: at,
	}
}

func TestIngestCreatesSessionAndLatest(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	latest, events, err := svc.Ingest(ctx, sample("trip-1", 7, -1.2921, 36.8219, at))
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, "trip-1", latest.TripID)
	assert.Equal(t, uint(7), latest.DriverID)
	assert.Equal(t, at, latest.RecordedAt)

	sess, err := svc.Get(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusActive, sess.Status)
	assert.Equal(t, models.PhaseEnRouteToSchool, sess.Phase)
	assert.Equal(t, at, sess.StartedAt)
}

func TestIngestOverwritesLatestEveryTime(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	_, _, err := svc.Ingest(ctx, sample("trip-1", 7, -1.2921, 36.8219, at))
	require.NoError(t, err)

	// Second sample arrives just one second later, well inside the history
	// throttle window. The latest row must still move.
	_, _, err = svc.Ingest(ctx, sample("trip-1", 7, -1.2930, 36.8225, at.Add(time.Second)))
	require.NoError(t, err)

	latest, err := svc.Latest(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, -1.2930, latest.Latitude)
	assert.Equal(t, at.Add(time.Second), latest.RecordedAt)
}

func TestIngestThrottlesHistory(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	_, _, err := svc.Ingest(ctx, sample("trip-1", 7, -1.2921, 36.8219, at))
	require.NoError(t, err)
	_, _, err = svc.Ingest(ctx, sample("trip-1", 7, -1.2922, 36.8219, at.Add(4*time.Second)))
	require.NoError(t, err)
	_, _, err = svc.Ingest(ctx, sample("trip-1", 7, -1.2923, 36.8219, at.Add(9*time.Second)))
	require.NoError(t, err)

	res, err := svc.Query(ctx, "trip-1", QueryOptions{})
	require.NoError(t, err)
	require.Len(t, res.Points, 1, "samples inside the throttle window must not add history rows")

	// Exactly at the throttle interval the next row is stored.
	_, _, err = svc.Ingest(ctx, sample("trip-1", 7, -1.2924, 36.8219, at.Add(10*time.Second)))
	require.NoError(t, err)

	res, err = svc.Query(ctx, "trip-1", QueryOptions{})
	require.NoError(t, err)
	require.Len(t, res.Points, 2)
	assert.Equal(t, at, res.Points[0].RecordedAt)
	assert.Equal(t, at.Add(10*time.Second), res.Points[1].RecordedAt)
}

func TestIngestRejectsForeignDriverWithoutMutation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	_, _, err := svc.Ingest(ctx, sample("trip-1", 7, -1.2921, 36.8219, at))
	require.NoError(t, err)

	_, _, err = svc.Ingest(ctx, sample("trip-1", 8, -1.3000, 36.9000, at.Add(time.Minute)))
	require.ErrorIs(t, err, faults.ErrForbidden)

	// The owner's state is untouched.
	latest, err := svc.Latest(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, uint(7), latest.DriverID)
	assert.Equal(t, -1.2921, latest.Latitude)

	res, err := svc.Query(ctx, "trip-1", QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Points, 1)
}

func TestIngestRejectsCompletedSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	_, _, err := svc.Ingest(ctx, sample("trip-1", 7, -1.2921, 36.8219, at))
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, "trip-1", 7, models.TripStatusCompleted, models.PhaseCompleted)
	require.NoError(t, err)

	_, _, err = svc.Ingest(ctx, sample("trip-1", 7, -1.2922, 36.8219, at.Add(time.Minute)))
	assert.ErrorIs(t, err, faults.ErrConflict)

	sess, err := svc.Get(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusCompleted, sess.Status)
	assert.NotNil(t, sess.EndedAt)
}

func TestIngestReactivatesPausedSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	_, _, err := svc.Ingest(ctx, sample("trip-1", 7, -1.2921, 36.8219, at))
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, "trip-1", 7, models.TripStatusPaused, "")
	require.NoError(t, err)

	_, _, err = svc.Ingest(ctx, sample("trip-1", 7, -1.2922, 36.8219, at.Add(time.Minute)))
	require.NoError(t, err)

	sess, err := svc.Get(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusActive, sess.Status)
}

func TestIngestValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		smp  Sample
	}{
		{"missing trip id", sample("", 7, 0, 0, at)},
		{"latitude too high", sample("trip-1", 7, 91, 0, at)},
		{"latitude too low", sample("trip-1", 7, -91, 0, at)},
		{"longitude too high", sample("trip-1", 7, 0, 181, at)},
		{"longitude too low", sample("trip-1", 7, 0, -181, at)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Ingest(ctx, tc.smp)
			assert.ErrorIs(t, err, faults.ErrValidation)
		})
	}

	bad := sample("trip-1", 7, 0, 0, at)
	speed := -5.0
	bad.SpeedKmh = &speed
	_, _, err := svc.Ingest(ctx, bad)
	assert.ErrorIs(t, err, faults.ErrValidation)

	bad = sample("trip-1", 7, 0, 0, at)
	bad.TripPhase = "teleporting"
	_, _, err = svc.Ingest(ctx, bad)
	assert.ErrorIs(t, err, faults.ErrValidation)

	// Nothing was written for the rejected samples.
	_, err = svc.Latest(ctx, "trip-1")
	assert.ErrorIs(t, err, faults.ErrNotFound)
}

func TestIngestDefaultsRecordedAt(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	smp := sample("trip-1", 7, -1.2921, 36.8219, time.Time{})
	before := time.Now().UTC()
	latest, _, err := svc.Ingest(ctx, smp)
	require.NoError(t, err)
	after := time.Now().UTC()

	assert.False(t, latest.RecordedAt.Before(before))
	assert.False(t, latest.RecordedAt.After(after))
}
