package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, pterm.LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, pterm.LogLevelInfo, ParseLevel(" info "))
	assert.Equal(t, pterm.LogLevelError, ParseLevel("error"))
	assert.Equal(t, pterm.LogLevelDisabled, ParseLevel("off"))
	assert.Equal(t, pterm.LogLevelWarn, ParseLevel(""))
	assert.Equal(t, pterm.LogLevelWarn, ParseLevel("verbose"))
}

func TestNewHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestContextCarrier(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug")

	ctx := IntoContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
