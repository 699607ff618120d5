// Package tracking implements the trip tracking engine: session lifecycle,
// the location ingestion pipeline, geofence detection, and the playback and
// statistics query path. All read-modify-write sequences for one trip are
// serialized through a per-key mutex so concurrent (or retried) requests
// cannot double-emit geofence events or lose session transitions.
package tracking

import (
	"fmt"
	"time"

	"vantrack/internal/store"
)

// Defaults for the tunable knobs; overridden from configuration.
const (
	DefaultHistoryThrottle = 10 * time.Second
	DefaultRadiusM         = 120.0
)

// Options carries the engine tunables.
type Options struct {
	// HistoryThrottle is the minimum interval between stored history rows
	// for one trip.
	HistoryThrottle time.Duration
	// DefaultRadiusM is applied to checkpoints created without a radius.
	DefaultRadiusM float64
}

// Service is the tracking engine. It owns no state beyond the per-trip lock
// table; the injected Store is the single writer-of-record, so correctness
// survives process restarts.
type Service struct {
	store          store.Store
	throttle       time.Duration
	defaultRadiusM float64
	locks          *keyedMutex
}

// New builds a Service over the given store.
func New(st store.Store, opts Options) *Service {
	if opts.HistoryThrottle <= 0 {
		opts.HistoryThrottle = DefaultHistoryThrottle
	}
	if opts.DefaultRadiusM <= 0 {
		opts.DefaultRadiusM = DefaultRadiusM
	}
	return &Service{
		store:          st,
		throttle:       opts.HistoryThrottle,
		defaultRadiusM: opts.DefaultRadiusM,
		locks:          newKeyedMutex(),
	}
}

func tripKey(tripID string) string {
	return "trip:" + tripID
}

func driverKey(driverID uint) string {
	return fmt.Sprintf("driver:%d", driverID)
}
