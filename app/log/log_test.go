package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	logger, err := New("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, AtomicLevel.Level())
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = New("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, AtomicLevel.Level())

	_, err = New("loud")
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
