package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batch-image-processor/internal/logger"
	"batch-image-processor/internal/report"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"bmp", "jpg", "png", "tga"}, cfg.Extensions)
	assert.True(t, cfg.Report.Enabled)
	assert.Equal(t, 1, cfg.Performance.WorkerThreads)
	assert.Nil(t, cfg.ActionIDs())

	logCfg := logger.DefaultConfig()
	assert.Equal(t, logCfg.FilePath, cfg.Logging.FilePath)
	assert.Equal(t, logCfg.MaxBackups, cfg.Logging.MaxBackups)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
directories: [textures, " ui "]
extensions: [".PNG", "tga", "png"]
actions: [check_power_of_2]
report:
  path: `+filepath.Join(dir, "out.xml")+`
  enabled: false
performance:
  worker_threads: 0
logging:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"textures", "ui"}, cfg.Directories)
	assert.Equal(t, []string{"png", "tga"}, cfg.Extensions)
	assert.Equal(t, []string{"check_power_of_2"}, cfg.ActionIDs())
	assert.Equal(t, filepath.Join(dir, "out.xml"), cfg.Report.Path)
	assert.False(t, cfg.Report.Enabled)
	assert.Equal(t, 1, cfg.Performance.WorkerThreads)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_ShortListReplacesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "extensions: [png]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"png"}, cfg.Extensions)
	assert.True(t, cfg.Report.Enabled)
	assert.Equal(t, 8080, cfg.Web.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.MaxSize)
}

func TestLoadConfig_UnsetKeysUseDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "headless: true\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Extensions, cfg.Extensions)
	assert.Equal(t, "localhost", cfg.Web.Host)
	assert.Equal(t, 1, cfg.Performance.WorkerThreads)
	assert.True(t, cfg.Logging.Compress)
}

func TestLoadConfig_EmptyActionsIsAllowList(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "actions: []\n"))
	require.NoError(t, err)
	ids := cfg.ActionIDs()
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("BATCH_IMAGE_PROCESSOR_DIRECTORIES", "a,b")
	t.Setenv("BATCH_IMAGE_PROCESSOR_EXTENSIONS", "PNG")
	t.Setenv("BATCH_IMAGE_PROCESSOR_HEADLESS", "true")
	t.Setenv("BATCH_IMAGE_PROCESSOR_PERFORMANCE_WORKER_THREADS", "4")

	cfg, err := LoadConfig(writeConfig(t, "logging:\n  level: info\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, cfg.Directories)
	assert.Equal(t, []string{"png"}, cfg.Extensions)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 4, cfg.Performance.WorkerThreads)
	assert.Nil(t, cfg.ActionIDs())
}

func TestLoadConfig_MissingParentFallsBack(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "report:\n  path: /definitely/not/here/out.xml\n"))
	require.NoError(t, err)
	assert.Equal(t, report.DefaultFileName, filepath.Base(cfg.Report.Path))
	assert.NotEqual(t, "/definitely/not/here", filepath.Dir(cfg.Report.Path))
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "logging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "invalid log level")

	_, err = LoadConfig(writeConfig(t, "web:\n  port: 70000\n"))
	assert.ErrorContains(t, err, "invalid web port")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNormalizeExtensions(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"strips dot and lowercases", []string{".PNG", "Tga"}, []string{"png", "tga"}},
		{"dedupes", []string{"png", ".png", "PNG"}, []string{"png"}},
		{"splits comma lists", []string{"png, tga", ""}, []string{"png", "tga"}},
		{"strips quotes", []string{"'png'", `"tga"`}, []string{"png", "tga"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeExtensions(tt.in))
		})
	}
}
