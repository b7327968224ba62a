package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rendis/flowcanvas/internal/canvas"
	"github.com/rendis/flowcanvas/internal/layout"
	"github.com/rendis/flowcanvas/internal/logging"
)

// Config holds all flowcanvas configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	LogLevel       string  `json:"log_level"`
	LogFormat      string  `json:"log_format"`
	NodeWidth      float64 `json:"node_width"`
	NodeHeight     float64 `json:"node_height"`
	VerticalOffset float64 `json:"vertical_offset"`
	HorizontalGap  float64 `json:"horizontal_gap"`
	LoopLanes      string  `json:"loop_lanes"`
	Dialect        string  `json:"dialect"`
	FallbackLabel  string  `json:"fallback_label"`
	BinDir         string  `json:"bin_dir"`
	ListenAddr     string  `json:"listen_addr"`
}

func defaultConfig() Config {
	opts := layout.DefaultOptions()
	return Config{
		LogLevel:       "info",
		LogFormat:      "text",
		NodeWidth:      opts.NodeWidth,
		NodeHeight:     opts.NodeHeight,
		VerticalOffset: opts.VerticalOffset,
		HorizontalGap:  opts.HorizontalGap,
		LoopLanes:      string(opts.LoopLanes),
		Dialect:        "cel",
		BinDir:         filepath.Join(flowcanvasDir(), "bin"),
		ListenAddr:     ":4200",
	}
}

func flowcanvasDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowcanvas"
	}
	return filepath.Join(home, ".flowcanvas")
}

func settingsPath() string {
	return filepath.Join(flowcanvasDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	setString(&cfg.LogLevel, "FLOWCANVAS_LOG_LEVEL")
	setString(&cfg.LogFormat, "FLOWCANVAS_LOG_FORMAT")
	setFloat(&cfg.NodeWidth, "FLOWCANVAS_NODE_WIDTH")
	setFloat(&cfg.NodeHeight, "FLOWCANVAS_NODE_HEIGHT")
	setFloat(&cfg.VerticalOffset, "FLOWCANVAS_VERTICAL_OFFSET")
	setFloat(&cfg.HorizontalGap, "FLOWCANVAS_HORIZONTAL_GAP")
	setString(&cfg.LoopLanes, "FLOWCANVAS_LOOP_LANES")
	setString(&cfg.Dialect, "FLOWCANVAS_DIALECT")
	setString(&cfg.FallbackLabel, "FLOWCANVAS_FALLBACK_LABEL")
	setString(&cfg.BinDir, "FLOWCANVAS_BIN_DIR")
	setString(&cfg.ListenAddr, "FLOWCANVAS_LISTEN_ADDR")

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// layoutOptions returns the layout constants. Non-positive values fall back
// to the layout defaults.
func (c Config) layoutOptions() layout.Options {
	return layout.Options{
		NodeWidth:      c.NodeWidth,
		NodeHeight:     c.NodeHeight,
		VerticalOffset: c.VerticalOffset,
		HorizontalGap:  c.HorizontalGap,
		LoopLanes:      layout.LoopLanes(c.LoopLanes),
	}
}

// newCanvas builds the canvas and its logger from the configuration.
// Logs go to stderr so stdout stays clean for command output.
func (c Config) newCanvas() (*canvas.Canvas, error) {
	logger := logging.New(os.Stderr, c.LogLevel, c.LogFormat)
	return canvas.New(canvas.Config{
		Layout:          c.layoutOptions(),
		Dialect:         c.Dialect,
		FallbackLabel:   c.FallbackLabel,
		MermaidASCIIDir: c.BinDir,
		Logger:          logger,
	})
}
