// Package sweeper deletes aged history and geofence-event rows on a fixed
// interval. A failed sweep is logged and retried on the next tick; it never
// propagates into request-serving code.
package sweeper

import (
	"context"
	"time"

	logrus "github.com/sirupsen/logrus"

	"vantrack/internal/metrics"
	"vantrack/internal/store"
)

// Sweeper runs the retention loop.
type Sweeper struct {
	store     store.Store
	retention time.Duration
	interval  time.Duration
	enabled   bool
}

// New builds a sweeper that purges rows older than retentionDays every
// interval.
func New(st store.Store, retentionDays int, interval time.Duration, enabled bool) *Sweeper {
	return &Sweeper{
		store:     st,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		enabled:   enabled,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval. Call it in
// its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.enabled {
		logrus.Info("Retention sweeper disabled.")
		return
	}
	logrus.WithFields(logrus.Fields{
		"interval":  s.interval.String(),
		"retention": s.retention.String(),
	}).Info("Retention sweeper started.")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Retention sweeper stopped.")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)
	purged, err := s.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		logrus.WithError(err).Warn("Retention sweep failed; will retry next interval.")
		return
	}
	metrics.RowsPurged.Add(float64(purged))
	logrus.WithFields(logrus.Fields{
		"purged": purged,
		"cutoff": cutoff.Format(time.RFC3339),
	}).Info("Retention sweep completed.")
}
