package queries

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold marks queries that are logged as warnings
const SlowQueryThreshold = 200 * time.Millisecond

type dbLogger struct {
	level gormLogger.LogLevel
}

// NewLogger forwards gorm logs to the global zerolog logger
func NewLogger() gormLogger.Interface {
	return &dbLogger{level: gormLogger.Warn}
}

func (l *dbLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	return &dbLogger{level: level}
}

func (l *dbLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Info {
		log.Info().Str("section", "db").Msgf(msg, args...)
	}
}

func (l *dbLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Warn {
		log.Warn().Str("section", "db").Msgf(msg, args...)
	}
}

func (l *dbLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Error {
		log.Error().Str("section", "db").Msgf(msg, args...)
	}
}

func (l *dbLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	var event *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormLogger.Error:
		event = log.Error().Err(err)
	case elapsed > SlowQueryThreshold && l.level >= gormLogger.Warn:
		event = log.Warn().Bool("slow", true)
	case l.level >= gormLogger.Info:
		event = log.Debug()
	default:
		return
	}
	query, rows := fc()
	event.Str("section", "db").Dur("elapsed", elapsed).Int64("rows", rows).Str("query", query).Msg("SQL")
}
