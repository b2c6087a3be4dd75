package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutputWritesStructuredJSON(t *testing.T) {
	var structured, human bytes.Buffer

	require.NoError(t, SetOutput(&structured, &human))

	Structured().Info("decode finished", "path", "clip.wav", "duration_ms", 12.345)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(structured.Bytes()), &line))
	assert.Equal(t, "decode finished", line["msg"])
	assert.Equal(t, "clip.wav", line["path"])
	assert.InDelta(t, 12.34, line["duration_ms"], 0.001, "float attrs are truncated to 2 decimals")
}

func TestSetOutputRejectsNilWriters(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, SetOutput(nil, &buf))
	assert.Error(t, SetOutput(&buf, nil))
}

func TestForServiceAddsServiceAttribute(t *testing.T) {
	var structured, human bytes.Buffer
	require.NoError(t, SetOutput(&structured, &human))

	logger := ForService("dsp.decode")
	require.NotNil(t, logger)
	logger.Warn("transient decode error")

	assert.True(t, strings.Contains(structured.String(), `"service":"dsp.decode"`))
}

func TestLevelNamesIncludeTraceAndFatal(t *testing.T) {
	assert.Equal(t, "TRACE", levelNames[LevelTrace])
	assert.Equal(t, "FATAL", levelNames[LevelFatal])
	assert.Less(t, int(LevelTrace), int(slog.LevelDebug))
	assert.Greater(t, int(LevelFatal), int(slog.LevelError))
}
