package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("DEBUG"))
	assert.Equal(t, Warn, ParseLevel("warning"))
	assert.Equal(t, Info, ParseLevel(""))
	assert.Equal(t, Info, ParseLevel("verbose"))
	assert.Equal(t, "error", Error.String())
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat(" json "))
	assert.Equal(t, FormatText, ParseFormat("console"))
}

func TestZapLogger_WithMergesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With(map[string]any{"child_id": "c-1"})

	l.Warn("stock low", map[string]any{
		"vaccine_id": "BCG",
		"err":        errors.New("insufficient stock"),
		"":           "ignored",
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "stock low", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	ctx := entry.ContextMap()
	assert.Equal(t, "c-1", ctx["child_id"])
	assert.Equal(t, "BCG", ctx["vaccine_id"])
	assert.Equal(t, "insufficient stock", ctx["err"])
	_, hasEmpty := ctx[""]
	assert.False(t, hasEmpty)
}

func TestNew_BuildsBothFormats(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatText} {
		l, err := New(Options{Level: Error, Format: f, App: "immunization-scheduler"})
		require.NoError(t, err)
		require.NotNil(t, l)
	}
}
