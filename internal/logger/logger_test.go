package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "hello", TruncateForLog("  hello  ", 10))
	assert.Equal(t, "héll...", TruncateForLog("héllo world", 4))
	assert.Equal(t, "", TruncateForLog("anything", 0))
}

func TestProviderAttrs(t *testing.T) {
	assert.Equal(t, []any{FieldProvider, "groq", FieldModel, "llama"}, ProviderAttrs(" groq ", "llama"))
	assert.Empty(t, ProviderAttrs("", " "))
}

func TestCommonFields(t *testing.T) {
	fields := CommonFields("gemini", "")
	require.Len(t, fields, 1)
	assert.Equal(t, FieldProvider, fields[0].Key)
	assert.Equal(t, "gemini", fields[0].String)
}

func TestSlogBridgeWritesToZapCore(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	s := Slog(zap.New(core))

	s.Info("batch complete", "batch_id", "b-1", "items", 3)
	s.Debug("dropped below level")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "batch complete", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "b-1", ctx["batch_id"])
	assert.EqualValues(t, 3, ctx["items"])
}

func TestNew(t *testing.T) {
	z, err := New(true, true)
	require.NoError(t, err)
	assert.True(t, z.Core().Enabled(zapcore.DebugLevel))

	z, err = New(false, false)
	require.NoError(t, err)
	assert.False(t, z.Core().Enabled(zapcore.DebugLevel))
}
