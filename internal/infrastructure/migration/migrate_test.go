package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMigrateLogger_WritesDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := migrateLogger{zap.New(core).Sugar()}

	l.Printf("Start buffering %d/u %s\n", 1, "create_fee_overrides")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "Start buffering 1/u create_fee_overrides", entry.Message)
	assert.False(t, l.Verbose())
}
