package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantrack/internal/models"
)

func TestMemoryEnforcesOneSessionPerTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateSession(ctx, &models.TripSession{
		TripID: "trip-1", DriverID: 7, Status: models.TripStatusActive,
	}))
	err := m.CreateSession(ctx, &models.TripSession{
		TripID: "trip-1", DriverID: 8, Status: models.TripStatusActive,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryUpsertLatestKeepsRowIdentity(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first := &models.LatestPosition{TripID: "trip-1", DriverID: 7, Latitude: 1}
	require.NoError(t, m.UpsertLatest(ctx, first))

	second := &models.LatestPosition{TripID: "trip-1", DriverID: 7, Latitude: 2}
	require.NoError(t, m.UpsertLatest(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := m.LatestByTripID(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Latitude)
}

func TestMemoryRejectsSecondReachedPerPoint(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	ev := func(eventType string, offset time.Duration) *models.GeofenceEvent {
		return &models.GeofenceEvent{
			PointID: 1, TripID: "trip-1", DriverID: 7,
			Label: models.LabelSchool, EventType: eventType,
			RecordedAt: at.Add(offset),
		}
	}

	require.NoError(t, m.AppendEvent(ctx, ev(models.EventReached, 0)))
	require.NoError(t, m.AppendEvent(ctx, ev(models.EventEntered, time.Second)))
	require.NoError(t, m.AppendEvent(ctx, ev(models.EventExited, time.Minute)))

	err := m.AppendEvent(ctx, ev(models.EventReached, 2*time.Minute))
	assert.ErrorIs(t, err, ErrDuplicate)

	// A reached row for a different point is fine.
	other := ev(models.EventReached, 2*time.Minute)
	other.PointID = 2
	assert.NoError(t, m.AppendEvent(ctx, other))
}

func TestMemoryPurgeBefore(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	cutoff := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.AppendHistory(ctx, &models.HistoryPoint{
		TripID: "trip-1", RecordedAt: cutoff.Add(-time.Hour),
	}))
	require.NoError(t, m.AppendHistory(ctx, &models.HistoryPoint{
		TripID: "trip-1", RecordedAt: cutoff.Add(time.Hour),
	}))
	require.NoError(t, m.AppendEvent(ctx, &models.GeofenceEvent{
		PointID: 1, TripID: "trip-1", EventType: models.EventEntered,
		RecordedAt: cutoff.Add(-time.Hour),
	}))

	purged, err := m.PurgeBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	left, err := m.HistoryRange(ctx, "trip-1", nil, nil, 0, true)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, cutoff.Add(time.Hour), left[0].RecordedAt)
}
