// flowcanvas lays out, draws, validates and previews tree-shaped workflow
// definitions, and serves the same operations as MCP tools.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rendis/flowcanvas/internal/canvas"
	"github.com/spf13/cobra"
)

// errInvalidFlow is returned by validate when the flow has errors, so the
// process exits non-zero after the report is printed.
var errInvalidFlow = errors.New("flow is invalid")

func main() {
	root := newRootCmd(loadConfig())
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errInvalidFlow) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app carries the configuration and the canvas built from it into every
// subcommand.
type app struct {
	cfg    Config
	canvas *canvas.Canvas
}

func newRootCmd(cfg Config) *cobra.Command {
	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:   "flowcanvas",
		Short: "Lay out, draw and check tree-shaped workflow definitions",
		Long: `flowcanvas turns a trigger-rooted flow of SIMPLE, BRANCH and LOOP steps into a
positioned graph, resolves {{step.path}} mentions in step text, validates flows,
and previews them against sample step outputs.

Configuration is read from ~/.flowcanvas/settings.json and FLOWCANVAS_* environment
variables; flags override both.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cv, err := a.cfg.newCanvas()
			if err != nil {
				return err
			}
			a.canvas = cv
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "flowcanvas version %s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flags.StringVar(&a.cfg.Dialect, "dialect", cfg.Dialect, "branch condition dialect: cel or expr")
	flags.StringVar(&a.cfg.LoopLanes, "loop-lanes", cfg.LoopLanes, "loop layout: single or legacy")

	root.AddCommand(
		newLayoutCmd(a),
		newDiagramCmd(a),
		newMentionsCmd(a),
		newValidateCmd(a),
		newPreviewCmd(a),
		newServeCmd(a),
		newInstallCmd(a),
		newVersionCmd(),
	)
	return root
}
