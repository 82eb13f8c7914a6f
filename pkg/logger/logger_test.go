package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"", "json", "console"} {
		t.Run("format "+format, func(t *testing.T) {
			log, level, err := New(Config{Level: "warn", Format: format})

			require.NoError(t, err)
			require.NotNil(t, log)
			assert.Equal(t, zapcore.WarnLevel, level.Level())
			assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	_, _, err := New(Config{Format: "xml"})

	assert.Error(t, err)
}

func TestNew_LevelIsAdjustable(t *testing.T) {
	log, level, err := New(Config{Level: "info"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))

	level.SetLevel(zapcore.DebugLevel)

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}
