package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelFromString("DEBUG"))
	assert.Equal(t, slog.LevelWarn, LevelFromString(" warn "))
	assert.Equal(t, slog.LevelError, LevelFromString("error"))
	assert.Equal(t, slog.LevelInfo, LevelFromString(""))
	assert.Equal(t, slog.LevelInfo, LevelFromString("verbose"))
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo, "json"))

	logger.Debug("hidden")
	logger.Info("Expense created", "expense_id", "e1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Expense created", line["msg"])
	assert.Equal(t, "e1", line["expense_id"])

	buf.Reset()
	text := slog.New(NewHandler(&buf, slog.LevelWarn, "text"))
	text.Info("hidden")
	text.Warn("Failed to publish event")
	assert.Contains(t, buf.String(), "Failed to publish event")
	assert.NotContains(t, buf.String(), "hidden")
}
