package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"vantrack/internal/faults"
	"vantrack/internal/models"
)

// Memory is an in-process Store used by the engine tests and handy for local
// development without Postgres. It enforces the same uniqueness rules the
// gorm schema does: one session and one latest row per trip, and at most one
// reached event per checkpoint.
type Memory struct {
	mu          sync.Mutex
	nextID      uint
	sessions    map[string]*models.TripSession
	latest      map[string]*models.LatestPosition
	history     []models.HistoryPoint
	checkpoints map[uint]*models.GeofencePoint
	events      []models.GeofenceEvent
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions:    make(map[string]*models.TripSession),
		latest:      make(map[string]*models.LatestPosition),
		checkpoints: make(map[uint]*models.GeofencePoint),
	}
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func (m *Memory) SessionByTripID(_ context.Context, tripID string) (*models.TripSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tripID]
	if !ok {
		return nil, faults.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) OpenSessionByDriver(_ context.Context, driverID uint) (*models.TripSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.TripSession
	for _, s := range m.sessions {
		if s.DriverID != driverID {
			continue
		}
		if s.Status != models.TripStatusActive && s.Status != models.TripStatusPaused {
			continue
		}
		if found == nil || s.UpdatedAt.After(found.UpdatedAt) {
			found = s
		}
	}
	if found == nil {
		return nil, faults.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *Memory) CreateSession(_ context.Context, s *models.TripSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.TripID]; ok {
		return ErrDuplicate
	}
	s.ID = m.id()
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	cp := *s
	m.sessions[s.TripID] = &cp
	return nil
}

func (m *Memory) SaveSession(_ context.Context, s *models.TripSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = time.Now()
	cp := *s
	m.sessions[s.TripID] = &cp
	return nil
}

func (m *Memory) LatestByTripID(_ context.Context, tripID string) (*models.LatestPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.latest[tripID]
	if !ok {
		return nil, faults.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) UpsertLatest(_ context.Context, p *models.LatestPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if prev, ok := m.latest[p.TripID]; ok {
		p.ID = prev.ID
		p.CreatedAt = prev.CreatedAt
	} else {
		p.ID = m.id()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	m.latest[p.TripID] = &cp
	return nil
}

func (m *Memory) SetLatestPhase(_ context.Context, tripID, phase string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.latest[tripID]; ok {
		p.TripPhase = phase
		p.UpdatedAt = time.Now()
	}
	return nil
}

func (m *Memory) LastHistoryTime(_ context.Context, tripID string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last time.Time
	found := false
	for i := range m.history {
		if m.history[i].TripID != tripID {
			continue
		}
		if !found || m.history[i].RecordedAt.After(last) {
			last = m.history[i].RecordedAt
			found = true
		}
	}
	return last, found, nil
}

func (m *Memory) AppendHistory(_ context.Context, p *models.HistoryPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.history = append(m.history, *p)
	return nil
}

func (m *Memory) HistoryRange(_ context.Context, tripID string, from, to *time.Time, limit int, asc bool) ([]models.HistoryPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.HistoryPoint
	for i := range m.history {
		p := m.history[i]
		if p.TripID != tripID {
			continue
		}
		if from != nil && p.RecordedAt.Before(*from) {
			continue
		}
		if to != nil && p.RecordedAt.After(*to) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RecordedAt.Equal(out[j].RecordedAt) {
			if asc {
				return out[i].ID < out[j].ID
			}
			return out[i].ID > out[j].ID
		}
		if asc {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ActiveCheckpoints(_ context.Context, tripID string) ([]models.GeofencePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GeofencePoint
	for _, p := range m.checkpoints {
		if p.TripID == tripID && p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CheckpointByLabel(_ context.Context, tripID, label string) (*models.GeofencePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.checkpoints {
		if p.TripID == tripID && p.Label == label {
			cp := *p
			return &cp, nil
		}
	}
	return nil, faults.ErrNotFound
}

func (m *Memory) SaveCheckpoint(_ context.Context, p *models.GeofencePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if p.ID == 0 {
		for _, existing := range m.checkpoints {
			if existing.TripID == p.TripID && existing.Label == p.Label {
				return ErrDuplicate
			}
		}
		p.ID = m.id()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	m.checkpoints[p.ID] = &cp
	return nil
}

func (m *Memory) LastEvent(_ context.Context, pointID uint) (*models.GeofenceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *models.GeofenceEvent
	for i := range m.events {
		e := &m.events[i]
		if e.PointID != pointID {
			continue
		}
		if last == nil || e.RecordedAt.After(last.RecordedAt) ||
			(e.RecordedAt.Equal(last.RecordedAt) && e.ID > last.ID) {
			last = e
		}
	}
	if last == nil {
		return nil, faults.ErrNotFound
	}
	cp := *last
	return &cp, nil
}

func (m *Memory) HasReached(_ context.Context, pointID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasReachedLocked(pointID), nil
}

func (m *Memory) hasReachedLocked(pointID uint) bool {
	for i := range m.events {
		if m.events[i].PointID == pointID && m.events[i].EventType == models.EventReached {
			return true
		}
	}
	return false
}

func (m *Memory) AppendEvent(_ context.Context, e *models.GeofenceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.EventType == models.EventReached && m.hasReachedLocked(e.PointID) {
		return ErrDuplicate
	}
	e.ID = m.id()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.events = append(m.events, *e)
	return nil
}

func (m *Memory) EventsRange(_ context.Context, tripID string, from, to *time.Time, limit int, asc bool) ([]models.GeofenceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GeofenceEvent
	for i := range m.events {
		e := m.events[i]
		if e.TripID != tripID {
			continue
		}
		if from != nil && e.RecordedAt.Before(*from) {
			continue
		}
		if to != nil && e.RecordedAt.After(*to) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RecordedAt.Equal(out[j].RecordedAt) {
			if asc {
				return out[i].ID < out[j].ID
			}
			return out[i].ID > out[j].ID
		}
		if asc {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged int64

	kept := m.history[:0]
	for i := range m.history {
		if m.history[i].RecordedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, m.history[i])
	}
	m.history = kept

	keptEvents := m.events[:0]
	for i := range m.events {
		if m.events[i].RecordedAt.Before(cutoff) {
			purged++
			continue
		}
		keptEvents = append(keptEvents, m.events[i])
	}
	m.events = keptEvents

	return purged, nil
}
