package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rendis/flowcanvas/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"FLOWCANVAS_LOG_LEVEL", "FLOWCANVAS_LOG_FORMAT", "FLOWCANVAS_NODE_WIDTH",
	"FLOWCANVAS_NODE_HEIGHT", "FLOWCANVAS_VERTICAL_OFFSET", "FLOWCANVAS_HORIZONTAL_GAP",
	"FLOWCANVAS_LOOP_LANES", "FLOWCANVAS_DIALECT", "FLOWCANVAS_FALLBACK_LABEL",
	"FLOWCANVAS_BIN_DIR", "FLOWCANVAS_LISTEN_ADDR",
}

// isolateConfig points HOME at an empty directory and clears FLOWCANVAS_* vars.
func isolateConfig(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadConfig_Defaults(t *testing.T) {
	home := isolateConfig(t)

	cfg := loadConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "cel", cfg.Dialect)
	assert.Equal(t, filepath.Join(home, ".flowcanvas", "bin"), cfg.BinDir)
	assert.Equal(t, layout.DefaultOptions(), cfg.layoutOptions())
}

func TestLoadConfig_SettingsFile(t *testing.T) {
	home := isolateConfig(t)
	dir := filepath.Join(home, ".flowcanvas")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"),
		[]byte(`{"dialect": "expr", "node_width": 300, "loop_lanes": "legacy"}`), 0o644))

	cfg := loadConfig()
	assert.Equal(t, "expr", cfg.Dialect)
	assert.Equal(t, 300.0, cfg.NodeWidth)
	assert.Equal(t, layout.LoopLanesLegacy, cfg.layoutOptions().LoopLanes)
	// Untouched fields keep their defaults.
	assert.Equal(t, 70.0, cfg.NodeHeight)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	home := isolateConfig(t)
	dir := filepath.Join(home, ".flowcanvas")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"),
		[]byte(`{"dialect": "expr", "fallback_label": "Script"}`), 0o644))

	t.Setenv("FLOWCANVAS_DIALECT", "cel")
	t.Setenv("FLOWCANVAS_HORIZONTAL_GAP", "120")
	t.Setenv("FLOWCANVAS_NODE_WIDTH", "wide") // ignored

	cfg := loadConfig()
	assert.Equal(t, "cel", cfg.Dialect)
	assert.Equal(t, "Script", cfg.FallbackLabel)
	assert.Equal(t, 120.0, cfg.HorizontalGap)
	assert.Equal(t, 260.0, cfg.NodeWidth)
}

func TestLoadConfig_MalformedSettingsIgnored(t *testing.T) {
	home := isolateConfig(t)
	dir := filepath.Join(home, ".flowcanvas")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{not json`), 0o644))

	assert.Equal(t, "cel", loadConfig().Dialect)
}

func TestConfig_NewCanvas(t *testing.T) {
	isolateConfig(t)

	cfg := loadConfig()
	cv, err := cfg.newCanvas()
	require.NoError(t, err)
	assert.Equal(t, "cel", cv.Config().Dialect)

	cfg.Dialect = "jq"
	_, err = cfg.newCanvas()
	assert.Error(t, err)
}
