// Package canvas wires the layout, mention, preview, validation and diagram
// packages into the operations exposed by the CLI and the MCP transport.
package canvas

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rendis/flowcanvas/internal/diagram"
	"github.com/rendis/flowcanvas/internal/expressions"
	"github.com/rendis/flowcanvas/internal/layout"
	"github.com/rendis/flowcanvas/internal/logging"
	"github.com/rendis/flowcanvas/internal/mention"
	"github.com/rendis/flowcanvas/internal/preview"
	"github.com/rendis/flowcanvas/internal/validation"
	"github.com/rendis/flowcanvas/pkg/schema"
)

// Config holds the settings shared by every canvas operation.
type Config struct {
	Layout layout.Options
	// Dialect is the branch-condition language, "cel" or "expr".
	Dialect       string
	FallbackLabel string
	// MermaidASCIIDir is searched for a mermaid-ascii binary; the built-in
	// ASCII renderer is used when it is empty or the binary is missing.
	MermaidASCIIDir string
	Logger          *slog.Logger
}

// Canvas runs flow operations. Safe for concurrent use.
type Canvas struct {
	cfg       Config
	builder   *layout.Builder
	parser    *mention.Parser
	previewer *preview.Previewer
	logger    *slog.Logger
}

// New creates a Canvas. An empty dialect selects CEL.
func New(cfg Config) (*Canvas, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Dialect == "" {
		cfg.Dialect = expressions.DialectCEL
	}
	pv, err := preview.New(cfg.Dialect, cfg.Logger)
	if err != nil {
		return nil, err
	}
	builder := layout.NewBuilder(cfg.Layout, cfg.Logger)
	cfg.Layout = builder.Options()

	return &Canvas{
		cfg:     cfg,
		builder: builder,
		parser: mention.NewParser(
			mention.WithFallbackLabel(cfg.FallbackLabel),
			mention.WithLogger(cfg.Logger),
		),
		previewer: pv,
		logger:    cfg.Logger,
	}, nil
}

// Config returns the effective configuration, with layout defaults filled in.
func (c *Canvas) Config() Config {
	return c.cfg
}

// LayoutResult is a positioned graph plus its bounding box.
type LayoutResult struct {
	Graph  *layout.Graph      `json:"graph"`
	Bounds layout.BoundingBox `json:"bounds"`
}

// Layout positions every step of flow.
func (c *Canvas) Layout(ctx context.Context, flow *schema.Flow) (*LayoutResult, error) {
	if flow == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "flow is required")
	}
	ctx = logging.WithFlowID(ctx, flow.ID)

	g := c.builder.Build(flow.Trigger)
	logging.LogWith(ctx, c.logger).Debug("flow laid out", slog.Int("nodes", len(g.Nodes)))
	return &LayoutResult{Graph: g, Bounds: layout.Bounds(g, c.cfg.Layout)}, nil
}

// Format selects a diagram output.
type Format string

const (
	FormatASCII   Format = "ascii"
	FormatMermaid Format = "mermaid"
	FormatPNG     Format = "png"
	FormatSVG     Format = "svg"
)

// Rendered is an encoded diagram.
type Rendered struct {
	Format   Format
	MIMEType string
	Data     []byte
}

// Diagram renders flow in format. When samples is non-nil the route a run
// with those outputs would take is overlaid on the nodes.
func (c *Canvas) Diagram(ctx context.Context, flow *schema.Flow, format Format, samples map[string]any) (*Rendered, error) {
	res, err := c.Layout(ctx, flow)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithFlowID(ctx, flow.ID)

	model := diagram.Build(flow.DisplayName, res.Graph)
	if samples != nil {
		route, _, err := c.previewer.Route(ctx, flow.Trigger, c.scope(flow, samples))
		if err != nil {
			return nil, err
		}
		model.ApplyRoute(route)
	}

	switch format {
	case FormatASCII, "":
		text := diagram.RenderASCIIAuto(model, c.cfg.Layout.NodeWidth, c.cfg.MermaidASCIIDir)
		return &Rendered{Format: FormatASCII, MIMEType: "text/plain", Data: []byte(text)}, nil
	case FormatMermaid:
		return &Rendered{Format: FormatMermaid, MIMEType: "text/vnd.mermaid", Data: []byte(diagram.RenderMermaid(model))}, nil
	case FormatPNG, FormatSVG:
		data, err := diagram.RenderImage(ctx, model, diagram.ImageFormat(format))
		if err != nil {
			return nil, schema.NewError(schema.ErrCodeRender, "diagram render failed").WithCause(err)
		}
		mime := "image/png"
		if format == FormatSVG {
			mime = "image/svg+xml"
		}
		return &Rendered{Format: format, MIMEType: mime, Data: data}, nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "unsupported diagram format %q", format)
	}
}

// MentionsResult is a parsed document and the steps it was resolved against.
type MentionsResult struct {
	Document mention.Document       `json:"document"`
	Steps    []mention.StepMetadata `json:"steps"`
}

// Mentions parses text into a document. Mentions resolve against the steps
// upstream of step, or against every step of flow when step is empty. A nil
// flow resolves every mention to the fallback label.
func (c *Canvas) Mentions(ctx context.Context, text string, flow *schema.Flow, step string) (*MentionsResult, error) {
	steps, err := c.visibleSteps(flow, step)
	if err != nil {
		return nil, err
	}
	if flow != nil {
		ctx = logging.WithFlowID(ctx, flow.ID)
	}
	if step != "" {
		ctx = logging.WithStepName(ctx, step)
	}
	return &MentionsResult{Document: c.parser.Parse(ctx, text, steps), Steps: steps}, nil
}

func (c *Canvas) visibleSteps(flow *schema.Flow, step string) ([]mention.StepMetadata, error) {
	if flow == nil {
		return nil, nil
	}
	if step == "" {
		return mention.Catalog(flow.Trigger), nil
	}
	return mention.UpstreamSteps(flow.Trigger, step)
}

// Report is the outcome of validating a flow.
type Report struct {
	Valid    bool                     `json:"valid"`
	Errors   []schema.ValidationIssue `json:"errors"`
	Warnings []schema.ValidationIssue `json:"warnings"`
	// NextRuns lists upcoming activations of a valid schedule trigger.
	NextRuns []time.Time `json:"next_runs,omitempty"`
}

// nextRunCount is how many schedule activations a Report lists.
const nextRunCount = 3

// Validate runs the validation pipeline over a decoded flow.
func (c *Canvas) Validate(flow *schema.Flow, settingsSchemas map[string]json.RawMessage, now time.Time) (*Report, error) {
	fv, err := c.validator(settingsSchemas)
	if err != nil {
		return nil, err
	}
	return newReport(flow, fv.Validate(flow), now), nil
}

// ValidateDocument runs the validation pipeline over a raw JSON document.
func (c *Canvas) ValidateDocument(raw []byte, settingsSchemas map[string]json.RawMessage, now time.Time) (*Report, error) {
	fv, err := c.validator(settingsSchemas)
	if err != nil {
		return nil, err
	}
	flow, result := fv.ValidateDocument(raw)
	return newReport(flow, result, now), nil
}

func (c *Canvas) validator(settingsSchemas map[string]json.RawMessage) (*validation.FlowValidator, error) {
	return validation.NewFlowValidator(validation.Options{
		Dialect:         c.cfg.Dialect,
		SettingsSchemas: settingsSchemas,
	})
}

func newReport(flow *schema.Flow, result *schema.ValidationResult, now time.Time) *Report {
	r := &Report{
		Valid:    result.Valid(),
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}
	if r.Errors == nil {
		r.Errors = []schema.ValidationIssue{}
	}
	if r.Warnings == nil {
		r.Warnings = []schema.ValidationIssue{}
	}
	if r.Valid && flow != nil && flow.Trigger != nil && flow.Trigger.Schedule != "" {
		if runs, err := validation.NextRuns(flow.Trigger.Schedule, now, nextRunCount); err == nil {
			r.NextRuns = runs
		}
	}
	return r
}

// PreviewRequest describes a preview: the sample outputs to run flow
// against and, optionally, text to render as it would appear at step.
type PreviewRequest struct {
	Flow    *schema.Flow
	Samples map[string]any
	Text    string
	Step    string
}

// PreviewResult reports the route taken and the rendered text.
type PreviewResult struct {
	Route     []string                 `json:"route"`
	Decisions []preview.BranchDecision `json:"decisions"`
	Mentions  []preview.MentionValue   `json:"mentions,omitempty"`
	Rendered  string                   `json:"rendered,omitempty"`
}

// Preview evaluates branch conditions and mention values against sample
// step outputs. Mentions in Text only see the samples of steps upstream of
// Step.
func (c *Canvas) Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	if req.Flow == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "flow is required")
	}
	ctx = logging.WithFlowID(ctx, req.Flow.ID)

	scope := c.scope(req.Flow, req.Samples)
	route, decisions, err := c.previewer.Route(ctx, req.Flow.Trigger, scope)
	if err != nil {
		return nil, err
	}
	out := &PreviewResult{Route: route, Decisions: decisions}
	if out.Route == nil {
		out.Route = []string{}
	}
	if out.Decisions == nil {
		out.Decisions = []preview.BranchDecision{}
	}
	if req.Text == "" {
		return out, nil
	}

	steps, err := c.visibleSteps(req.Flow, req.Step)
	if err != nil {
		return nil, err
	}
	if req.Step != "" {
		ids := make([]string, len(steps))
		for i, s := range steps {
			ids[i] = s.ID
		}
		scope = scope.Restrict(ids)
		ctx = logging.WithStepName(ctx, req.Step)
	}

	doc := c.parser.Parse(ctx, req.Text, steps)
	out.Mentions = c.previewer.Mentions(ctx, doc, scope)
	out.Rendered = c.previewer.Render(ctx, doc, scope)
	return out, nil
}

func (c *Canvas) scope(flow *schema.Flow, samples map[string]any) *expressions.Scope {
	trigger := ""
	if flow.Trigger != nil {
		trigger = flow.Trigger.Name
	}
	return expressions.NewScope(samples, trigger, flow.Metadata)
}
