package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &Logger{SugaredLogger: zap.New(core).Sugar()}

	log.With("component", "syncer").Warn("write left unsynced", "course", "ai", "chapter", 3)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "write left unsynced", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "syncer", fields["component"])
	assert.Equal(t, "ai", fields["course"])
	assert.EqualValues(t, 3, fields["chapter"])
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		t.Run(mode, func(t *testing.T) {
			log, err := New(mode, "")
			require.NoError(t, err)
			log.Info("hello")
		})
	}
}

func TestNewWithFileSink(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	log, err := New("prod", file)
	require.NoError(t, err)
	log.Info("rotating sink")
	log.Sync()
	assert.FileExists(t, file)
}

func TestNopDiscards(t *testing.T) {
	Nop().Error("nothing to see")
}
