package logger

import (
	"context"
	"errors"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// Setup initializes Logrus with a rotating file sink.
func Setup() {
	// 1) Lumberjack for file rotation
	rotator := &lumberjack.Logger{
		Filename:   "./logs/app.log",
		MaxSize:    10, // megabytes
		MaxBackups: 7,  // keep up to 7 old files
		MaxAge:     7,  // days
		Compress:   true,
	}

	// 2) Configure Logrus to write to that file
	logrus.SetOutput(rotator)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.SetLevel(logrus.InfoLevel)
}

// gormLogger routes GORM's log output into Logrus, so query errors and slow
// queries land in the same rotating file as everything else.
type gormLogger struct {
	slowThreshold time.Duration
}

// GormLogger returns the Logrus-backed logger for GORM.
func GormLogger() gormlogger.Interface {
	return &gormLogger{slowThreshold: 200 * time.Millisecond}
}

func (g *gormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return g
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	logrus.Infof(msg, args...)
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	logrus.Warnf(msg, args...)
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	logrus.Errorf(msg, args...)
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := logrus.Fields{"rows": rows, "elapsed": elapsed.String()}
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound):
		logrus.WithError(err).WithFields(fields).Error(sql)
	case elapsed > g.slowThreshold:
		logrus.WithFields(fields).Warn("SLOW SQL: " + sql)
	}
}
