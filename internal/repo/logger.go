package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// queryLogger sends GORM's logging through zerolog. Failed statements are
// logged at error, statements slower than slow at warn, everything else at
// debug. A missing row is an expected outcome and never logged as a failure.
type queryLogger struct {
	zl    zerolog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewQueryLogger returns a gorm logger writing to zl. slow <= 0 disables the
// slow query warning.
func NewQueryLogger(zl zerolog.Logger, slow time.Duration) logger.Interface {
	return &queryLogger{
		zl:    zl.With().Str("component", "gorm").Logger(),
		level: logger.Info,
		slow:  slow,
	}
}

func (l *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *queryLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.zl.Info().Msgf(msg, args...)
	}
}

func (l *queryLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.zl.Warn().Msgf(msg, args...)
	}
}

func (l *queryLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.zl.Error().Msgf(msg, args...)
	}
}

func (l *queryLogger) Trace(_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var ev *zerolog.Event
	msg := "query"
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		ev, msg = l.zl.Error().Err(err), "query failed"
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		ev, msg = l.zl.Warn().Dur("threshold", l.slow), "slow query"
	case l.level >= logger.Info:
		ev = l.zl.Debug()
	default:
		return
	}

	sql, rows := fc()
	ev.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg(msg)
}
