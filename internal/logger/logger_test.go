package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guezito-dev/gigachads/internal/config"
)

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.Config{Env: "production"})

	log.Debug("hidden")
	log.Info("ranking written", "members", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ranking written", line["msg"])
	assert.EqualValues(t, 3, line["members"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN", true))
	assert.Equal(t, slog.LevelDebug, parseLevel("", false))
	assert.Equal(t, slog.LevelInfo, parseLevel("", true))
}
