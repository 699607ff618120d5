package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantrack/internal/faults"
	"vantrack/internal/geo"
	"vantrack/internal/models"
	"vantrack/internal/store"
)

// seedRoute writes n history rows directly, spaced step apart along a
// straight line of latSteps degrees latitude per point.
func seedRoute(t *testing.T, mem *store.Memory, tripID string, n int, start time.Time, step time.Duration, latStep float64) []models.HistoryPoint {
	t.Helper()
	ctx := context.Background()
	out := make([]models.HistoryPoint, 0, n)
	for i := 0; i < n; i++ {
		p := models.HistoryPoint{
			TripID:     tripID,
			DriverID:   7,
			Latitude:   -1.2921 + float64(i)*latStep,
			Longitude:  36.8219,
			TripPhase:  models.PhaseEnRouteToSchool,
			RecordedAt: start.Add(time.Duration(i) * step),
		}
		require.NoError(t, mem.AppendHistory(ctx, &p))
		out = append(out, p)
	}
	return out
}

func TestQueryStats(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	seeded := seedRoute(t, mem, "trip-1", 5, start, 10*time.Second, 0.001)

	res, err := svc.Query(ctx, "trip-1", QueryOptions{})
	require.NoError(t, err)
	require.Len(t, res.Points, 5)

	var wantM float64
	for i := 1; i < len(seeded); i++ {
		wantM += geo.Haversine(
			seeded[i-1].Latitude, seeded[i-1].Longitude,
			seeded[i].Latitude, seeded[i].Longitude,
		)
	}
	assert.InDelta(t, wantM/1000, res.Stats.TotalDistanceKm, 1e-9)
	assert.Equal(t, 40.0, res.Stats.DurationSeconds)
	require.NotNil(t, res.Stats.AverageSpeedKmh)
	assert.InDelta(t, res.Stats.TotalDistanceKm/40*3600, *res.Stats.AverageSpeedKmh, 1e-9)
	require.NotNil(t, res.Stats.StartedAt)
	require.NotNil(t, res.Stats.EndedAt)
	assert.Equal(t, start, *res.Stats.StartedAt)
	assert.Equal(t, start.Add(40*time.Second), *res.Stats.EndedAt)
}

func TestQueryDeterministic(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	seedRoute(t, mem, "trip-1", 5, start, 10*time.Second, 0.001)

	first, err := svc.Query(ctx, "trip-1", QueryOptions{})
	require.NoError(t, err)
	second, err := svc.Query(ctx, "trip-1", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQueryEmptyTrip(t *testing.T) {
	svc, _ := newTestService()

	res, err := svc.Query(context.Background(), "trip-1", QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Points)
	assert.Equal(t, 0.0, res.Stats.TotalDistanceKm)
	assert.Equal(t, 0.0, res.Stats.DurationSeconds)
	assert.Nil(t, res.Stats.AverageSpeedKmh)
	assert.Nil(t, res.Stats.StartedAt)
	assert.Nil(t, res.Stats.EndedAt)
}

func TestQuerySinglePoint(t *testing.T) {
	svc, mem := newTestService()
	start := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	seedRoute(t, mem, "trip-1", 1, start, 10*time.Second, 0.001)

	res, err := svc.Query(context.Background(), "trip-1", QueryOptions{})
	require.NoError(t, err)
	require.Len(t, res.Points, 1)
	assert.Equal(t, 0.0, res.Stats.TotalDistanceKm)
	assert.Equal(t, 0.0, res.Stats.DurationSeconds)
	assert.Nil(t, res.Stats.AverageSpeedKmh, "speed is undefined over zero duration")
}

func TestQueryTimeWindowAndOrder(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	seedRoute(t, mem, "trip-1", 5, start, 10*time.Second, 0.001)

	from := start.Add(10 * time.Second)
	to := start.Add(30 * time.Second)
	res, err := svc.Query(ctx, "trip-1", QueryOptions{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, res.Points, 3, "window bounds are inclusive")
	assert.Equal(t, from, res.Points[0].RecordedAt)

	res, err = svc.Query(ctx, "trip-1", QueryOptions{Order: "desc"})
	require.NoError(t, err)
	require.Len(t, res.Points, 5)
	assert.Equal(t, start.Add(40*time.Second), res.Points[0].RecordedAt)

	_, err = svc.Query(ctx, "trip-1", QueryOptions{Order: "sideways"})
	assert.ErrorIs(t, err, faults.ErrValidation)
}

func TestQueryRejectsInvertedRange(t *testing.T) {
	svc, mem := newTestService()
	start := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	seedRoute(t, mem, "trip-1", 5, start, 10*time.Second, 0.001)

	from := start.Add(time.Hour)
	to := start
	_, err := svc.Query(context.Background(), "trip-1", QueryOptions{From: &from, To: &to})
	assert.ErrorIs(t, err, faults.ErrValidation)

	_, err = svc.Events(context.Background(), "trip-1", QueryOptions{From: &from, To: &to})
	assert.ErrorIs(t, err, faults.ErrValidation)
}

func TestQueryLimitClamped(t *testing.T) {
	svc, mem := newTestService()
	start := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	seedRoute(t, mem, "trip-1", 400, start, 10*time.Second, 0.0001)

	// Default limit.
	res, err := svc.Query(context.Background(), "trip-1", QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Points, DefaultQueryLimit)

	// Explicit limit above the cap is clamped, not rejected.
	res, err = svc.Query(context.Background(), "trip-1", QueryOptions{Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, res.Points, 400)

	res, err = svc.Query(context.Background(), "trip-1", QueryOptions{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, res.Points, 10)
}
