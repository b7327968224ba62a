package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rendis/flowcanvas/internal/canvas"
	"github.com/rendis/flowcanvas/pkg/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newLayoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "layout <flow-file>",
		Short: "Print node positions and edges of a flow as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := schema.LoadFlow(args[0])
			if err != nil {
				return err
			}
			res, err := a.canvas.Layout(cmd.Context(), flow)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newDiagramCmd(a *app) *cobra.Command {
	var (
		format      string
		samplesPath string
		outPath     string
	)
	cmd := &cobra.Command{
		Use:   "diagram <flow-file>",
		Short: "Draw a flow as ASCII art, Mermaid, PNG or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := schema.LoadFlow(args[0])
			if err != nil {
				return err
			}
			var samples map[string]any
			if samplesPath != "" {
				if samples, err = loadSamples(samplesPath); err != nil {
					return err
				}
			}

			out, err := a.canvas.Diagram(cmd.Context(), flow, canvas.Format(format), samples)
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, out.Data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s diagram written to %s\n", out.Format, outPath)
				return nil
			}
			if out.Format == canvas.FormatPNG {
				return fmt.Errorf("png output needs --out")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out.Data), "\n"))
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "ascii", "output format: ascii, mermaid, png, svg")
	cmd.Flags().StringVar(&samplesPath, "samples", "", "JSON or YAML file of sample outputs keyed by step name; highlights the route taken")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the diagram to this file instead of stdout")
	return cmd
}

func newMentionsCmd(a *app) *cobra.Command {
	var (
		flowPath string
		step     string
	)
	cmd := &cobra.Command{
		Use:   "mentions <text>",
		Short: "Parse {{step.path}} mentions in text into a rich-text document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var flow *schema.Flow
			if flowPath != "" {
				var err error
				if flow, err = schema.LoadFlow(flowPath); err != nil {
					return err
				}
			} else if step != "" {
				return fmt.Errorf("--step needs --flow")
			}
			res, err := a.canvas.Mentions(cmd.Context(), args[0], flow, step)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&flowPath, "flow", "", "flow file whose steps mentions resolve against")
	cmd.Flags().StringVar(&step, "step", "", "step the text belongs to; only upstream steps resolve")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		schemasPath string
		output      string
	)
	cmd := &cobra.Command{
		Use:   "validate <flow-file>",
		Short: "Check a flow for structural and semantic errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schemas map[string]json.RawMessage
			if schemasPath != "" {
				data, err := os.ReadFile(schemasPath)
				if err != nil {
					return fmt.Errorf("read settings schemas: %w", err)
				}
				if err := json.Unmarshal(data, &schemas); err != nil {
					return fmt.Errorf("parse settings schemas: %w", err)
				}
			}

			report, err := validateFile(a.canvas, args[0], schemas)
			if err != nil {
				return err
			}
			if output == "json" {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), report)
			}
			if !report.Valid {
				return errInvalidFlow
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schemasPath, "settings-schemas", "", "JSON file mapping piece names to settings JSON Schemas")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	return cmd
}

// validateFile validates JSON documents as written so schema violations
// point at the source; YAML documents are decoded first.
func validateFile(cv *canvas.Canvas, path string, schemas map[string]json.RawMessage) (*canvas.Report, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		flow, err := schema.LoadFlow(path)
		if err != nil {
			return nil, err
		}
		return cv.Validate(flow, schemas, time.Now())
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read flow %s: %w", path, err)
		}
		return cv.ValidateDocument(raw, schemas, time.Now())
	}
}

func printReport(w io.Writer, report *canvas.Report) {
	issues := append(append([]schema.ValidationIssue{}, report.Errors...), report.Warnings...)
	if len(issues) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{
			text.FgHiCyan.Sprint("SEVERITY"),
			text.FgHiCyan.Sprint("PATH"),
			text.FgHiCyan.Sprint("STEP"),
			text.FgHiCyan.Sprint("CODE"),
			text.FgHiCyan.Sprint("MESSAGE"),
		})
		for _, is := range issues {
			sev := text.FgYellow.Sprint(is.Severity)
			if is.Severity == schema.SeverityError {
				sev = text.FgRed.Sprint(is.Severity)
			}
			t.AppendRow(table.Row{sev, is.Path, is.StepName, is.Code, is.Message})
		}
		t.Render()
	}

	if report.Valid {
		fmt.Fprintf(w, "%s flow is valid (%d warnings)\n", text.FgGreen.Sprint("✓"), len(report.Warnings))
	} else {
		fmt.Fprintf(w, "%s flow has %d errors, %d warnings\n",
			text.FgRed.Sprint("✗"), len(report.Errors), len(report.Warnings))
	}
	for _, run := range report.NextRuns {
		fmt.Fprintf(w, "  next run: %s\n", run.Format(time.RFC3339))
	}
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		samplesPath string
		textArg     string
		step        string
		output      string
	)
	cmd := &cobra.Command{
		Use:   "preview <flow-file>",
		Short: "Evaluate a flow against sample step outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := schema.LoadFlow(args[0])
			if err != nil {
				return err
			}
			samples, err := loadSamples(samplesPath)
			if err != nil {
				return err
			}

			res, err := a.canvas.Preview(cmd.Context(), canvas.PreviewRequest{
				Flow:    flow,
				Samples: samples,
				Text:    textArg,
				Step:    step,
			})
			if err != nil {
				return err
			}
			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printPreview(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&samplesPath, "samples", "", "JSON or YAML file of sample outputs keyed by step name")
	cmd.Flags().StringVar(&textArg, "text", "", "text with {{step.path}} mentions to render")
	cmd.Flags().StringVar(&step, "step", "", "step the text belongs to")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	_ = cmd.MarkFlagRequired("samples")
	return cmd
}

func printPreview(w io.Writer, res *canvas.PreviewResult) {
	fmt.Fprintf(w, "%s %s\n", text.FgHiBlue.Sprint("Route:"), strings.Join(res.Route, " → "))

	if len(res.Decisions) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{
			text.FgHiCyan.Sprint("BRANCH"),
			text.FgHiCyan.Sprint("CONDITION"),
			text.FgHiCyan.Sprint("RESULT"),
			text.FgHiCyan.Sprint("LANE"),
		})
		for _, d := range res.Decisions {
			t.AppendRow(table.Row{d.Step, d.Condition, d.Result, d.Lane})
		}
		t.Render()
	}

	if len(res.Mentions) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{
			text.FgHiCyan.Sprint("MENTION"),
			text.FgHiCyan.Sprint("LABEL"),
			text.FgHiCyan.Sprint("VALUE"),
		})
		for _, m := range res.Mentions {
			value := "-"
			switch {
			case m.Error != "":
				value = text.FgRed.Sprint(m.Error)
			case m.Found:
				value = truncate(fmt.Sprintf("%v", m.Value), 60)
			}
			t.AppendRow(table.Row{m.Token, m.Label, value})
		}
		t.Render()
		fmt.Fprintf(w, "%s\n%s\n", text.FgHiBlue.Sprint("Rendered:"), res.Rendered)
	}
}

// --- Helpers ---

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadSamples reads sample step outputs from a JSON or YAML file.
func loadSamples(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	var samples map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &samples)
	default:
		err = json.Unmarshal(data, &samples)
	}
	if err != nil {
		return nil, fmt.Errorf("parse samples %s: %w", path, err)
	}
	if samples == nil {
		samples = map[string]any{}
	}
	return samples, nil
}
