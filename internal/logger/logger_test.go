package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_ConsoleJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(LoggerConfig{Level: "debug", Stdout: &buf})
	require.NoError(t, err)

	WithFileAction(l, "a.png", "compress_png").Info("verdict")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "verdict", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "a.png", line["file"])
	assert.Equal(t, "compress_png", line["action"])
	assert.Contains(t, line, "timestamp")
}

func TestNewLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	cfg := DefaultConfig()
	cfg.FilePath = path

	l, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	WithAction(l, "check_power_of_2").Warn("hello")
	WithFile(l, "b.png").Debug("hidden at info")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":"check_power_of_2"`)
	assert.NotContains(t, string(data), "hidden at info")
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}
