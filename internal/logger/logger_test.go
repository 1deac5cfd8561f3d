package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, debug := range []bool{true, false} {
		log, err := New(debug)
		require.NoError(t, err)
		assert.Equal(t, debug, log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	}
}

func TestGLSeverity(t *testing.T) {
	assert.Equal(t, "high", GLSeverity(0x9146))
	assert.Equal(t, "notification", GLSeverity(0x826B))
	assert.Equal(t, "0x1234", GLSeverity(0x1234))
}

func TestGLDebugLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	debug := GLDebug(zap.New(core))

	debug(0, 0, 1, 0x9146, "bad draw")
	debug(0, 0, 2, 0x9147, "slow path")
	debug(0, 0, 3, 0x826B, "buffer info")

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "bad draw", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
	assert.Equal(t, "notification", entries[2].ContextMap()["severity"])
}
