package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	logrus "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logrus.SetOutput(&buf)
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })
	return &buf
}

func TestGormLoggerTraceLogsErrors(t *testing.T) {
	buf := captureOutput(t)
	l := GormLogger()

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM trip_sessions", 0
	}, errors.New("connection reset"))

	assert.Contains(t, buf.String(), "SELECT * FROM trip_sessions")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestGormLoggerTraceSkipsRecordNotFound(t *testing.T) {
	buf := captureOutput(t)
	l := GormLogger()

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM latest_positions", 0
	}, gormlogger.ErrRecordNotFound)

	assert.Empty(t, buf.String(), "not-found is an expected outcome, not an error")
}

func TestGormLoggerTraceWarnsOnSlowQueries(t *testing.T) {
	buf := captureOutput(t)
	l := GormLogger()

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT * FROM history_points", 42
	}, nil)

	assert.Contains(t, buf.String(), "SLOW SQL")
	assert.Contains(t, buf.String(), "history_points")
}
