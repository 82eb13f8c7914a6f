package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func observed(appLevel string, slow time.Duration) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), slow, appLevel), logs
}

func statement() (string, int64) {
	return `SELECT * FROM "recipes" WHERE id = 7`, 1
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("failed query is an error with the statement", func(t *testing.T) {
		l, logs := observed("info", time.Second)

		l.Trace(context.Background(), time.Now(), statement, errors.New("relation does not exist"))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Equal(t, `SELECT * FROM "recipes" WHERE id = 7`, entry.ContextMap()["sql"])
	})

	t.Run("missing row is not logged", func(t *testing.T) {
		l, logs := observed("info", time.Second)

		l.Trace(context.Background(), time.Now(), statement, gorm.ErrRecordNotFound)

		assert.Zero(t, logs.Len())
	})

	t.Run("slow query is a warning", func(t *testing.T) {
		l, logs := observed("info", time.Millisecond)

		l.Trace(context.Background(), time.Now().Add(-time.Second), statement, nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	})

	t.Run("fast query is traced only at debug", func(t *testing.T) {
		l, logs := observed("info", time.Second)
		l.Trace(context.Background(), time.Now(), statement, nil)
		assert.Zero(t, logs.Len())

		l, logs = observed("debug", time.Second)
		l.Trace(context.Background(), time.Now(), statement, nil)
		assert.Equal(t, 1, logs.Len())
	})
}

func TestGormLogger_LogMode(t *testing.T) {
	l, logs := observed("debug", time.Second)

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), statement, errors.New("boom"))

	assert.Zero(t, logs.Len())
	assert.Equal(t, gormlogger.Info, l.level)
}
