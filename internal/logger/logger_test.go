package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, parseLevel("production"))
	assert.Equal(t, slog.LevelInfo, parseLevel("staging"))
	assert.Equal(t, slog.LevelDebug, parseLevel("development"))
	assert.Equal(t, slog.LevelDebug, parseLevel(""))
}

func TestNewWithWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production")

	log.Debug("hidden")
	log.Info("seeded", "categories", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "seeded", line["msg"])
	assert.Equal(t, float64(3), line["categories"])
}
