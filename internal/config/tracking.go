package config

import (
	"log"
	"strconv"
	"time"
)

// Tracking holds the tunables for the ingestion pipeline, geofencing and
// retention. Values come from the environment with the documented defaults.
type Tracking struct {
	HistoryThrottle  time.Duration // min interval between history rows per trip
	DefaultRadiusM   float64       // radius applied to checkpoints created without one
	RetentionDays    int           // history/event rows older than this are purged
	SweepInterval    time.Duration // how often the retention sweeper runs
	RetentionEnabled bool
}

// LoadTracking reads the tracking configuration from the environment.
func LoadTracking() Tracking {
	return Tracking{
		HistoryThrottle:  time.Duration(getEnvInt("HISTORY_THROTTLE_SECONDS", 10)) * time.Second,
		DefaultRadiusM:   float64(getEnvInt("GEOFENCE_DEFAULT_RADIUS_M", 120)),
		RetentionDays:    getEnvInt("RETENTION_DAYS", 30),
		SweepInterval:    time.Duration(getEnvInt("RETENTION_SWEEP_MINUTES", 720)) * time.Minute,
		RetentionEnabled: getEnvBool("RETENTION_ENABLED", true),
	}
}

// getEnvInt reads an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

// getEnvBool reads a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
