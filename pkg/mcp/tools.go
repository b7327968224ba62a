package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/flowcanvas/internal/canvas"
	"github.com/rendis/flowcanvas/internal/logging"
	"github.com/rendis/flowcanvas/pkg/schema"
)

var errFlowRequired = errors.New("flow is required")

// handleLayout returns node positions and the bounding box of a flow.
func (s *FlowcanvasServer) handleLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flowcanvas.layout")
	flow, err := s.flowArg(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.canvas.Layout(ctx, flow)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("layout failed: %v", err)), nil
	}
	return marshalResult(res)
}

// handleDiagram renders a flow in the requested format.
func (s *FlowcanvasServer) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flowcanvas.diagram")
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}
	switch canvas.Format(format) {
	case canvas.FormatASCII, canvas.FormatMermaid, canvas.FormatPNG, canvas.FormatSVG:
	default:
		return mcp.NewToolResultError("format must be ascii, mermaid, png, or svg"), nil
	}

	flow, err := s.flowArg(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	samples := mcp.ParseStringMap(req, "samples", nil)

	out, err := s.canvas.Diagram(ctx, flow, canvas.Format(format), samples)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram failed: %v", err)), nil
	}
	if out.Format == canvas.FormatPNG {
		encoded := base64.StdEncoding.EncodeToString(out.Data)
		return mcp.NewToolResultImage(flowTitle(flow), encoded, out.MIMEType), nil
	}
	return mcp.NewToolResultText(string(out.Data)), nil
}

// handleMentions parses text into a rich-text document.
func (s *FlowcanvasServer) handleMentions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flowcanvas.mentions")
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text is required"), nil
	}
	step := req.GetString("step", "")

	// The flow is optional here: without one every mention falls back.
	flow, err := s.flowArg(ctx, req)
	if err != nil && !errors.Is(err, errFlowRequired) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if flow == nil && step != "" {
		return mcp.NewToolResultError("step requires a flow"), nil
	}

	res, err := s.canvas.Mentions(ctx, text, flow, step)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("mention parse failed: %v", err)), nil
	}
	return marshalResult(res)
}

// handleValidate runs the validation pipeline. A flow passed in the call is
// validated as written, so schema violations are reported even when the
// document would not decode.
func (s *FlowcanvasServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flowcanvas.validate")
	schemas, err := settingsSchemasArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var report *canvas.Report
	if raw, ok := req.GetArguments()["flow"]; ok && raw != nil {
		data, mErr := json.Marshal(raw)
		if mErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid flow: %v", mErr)), nil
		}
		report, err = s.canvas.ValidateDocument(data, schemas, time.Now())
		if flow, pErr := schema.ParseFlowJSON(data); pErr == nil {
			s.rememberFlow(ctx, flow)
		}
	} else {
		flow, fErr := s.flowArg(ctx, req)
		if fErr != nil {
			return mcp.NewToolResultError(fErr.Error()), nil
		}
		report, err = s.canvas.Validate(flow, schemas, time.Now())
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
	}

	logging.LogWith(ctx, s.logger).Debug("flow validated",
		slog.Bool("valid", report.Valid),
		slog.Int("errors", len(report.Errors)),
		slog.Int("warnings", len(report.Warnings)))
	return marshalResult(report)
}

// handlePreview evaluates a flow against sample step outputs.
func (s *FlowcanvasServer) handlePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flowcanvas.preview")
	if v, ok := req.GetArguments()["samples"]; !ok || v == nil {
		return mcp.NewToolResultError("samples is required"), nil
	}
	flow, err := s.flowArg(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.canvas.Preview(ctx, canvas.PreviewRequest{
		Flow:    flow,
		Samples: mcp.ParseStringMap(req, "samples", map[string]any{}),
		Text:    req.GetString("text", ""),
		Step:    req.GetString("step", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("preview failed: %v", err)), nil
	}
	return marshalResult(res)
}

// --- Helpers ---

// flowArg decodes the "flow" argument, falling back to the last flow the
// calling session sent.
func (s *FlowcanvasServer) flowArg(ctx context.Context, req mcp.CallToolRequest) (*schema.Flow, error) {
	if raw, ok := req.GetArguments()["flow"]; ok && raw != nil {
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid flow: %w", err)
		}
		flow, err := schema.ParseFlowJSON(data)
		if err != nil {
			return nil, fmt.Errorf("invalid flow: %w", err)
		}
		s.rememberFlow(ctx, flow)
		return flow, nil
	}

	if session := server.ClientSessionFromContext(ctx); session != nil {
		if flow, ok := s.flows.FlowFor(session.SessionID()); ok {
			return flow, nil
		}
	}
	return nil, errFlowRequired
}

// rememberFlow stores flow for the calling session, if there is one.
func (s *FlowcanvasServer) rememberFlow(ctx context.Context, flow *schema.Flow) {
	if session := server.ClientSessionFromContext(ctx); session != nil {
		s.flows.Remember(session.SessionID(), flow)
	}
}

// settingsSchemasArg re-encodes each settings schema as raw JSON.
func settingsSchemasArg(req mcp.CallToolRequest) (map[string]json.RawMessage, error) {
	raw := mcp.ParseStringMap(req, "settings_schemas", nil)
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]json.RawMessage, len(raw))
	for piece, sch := range raw {
		data, err := json.Marshal(sch)
		if err != nil {
			return nil, fmt.Errorf("invalid settings schema for %s: %w", piece, err)
		}
		out[piece] = data
	}
	return out, nil
}

func flowTitle(flow *schema.Flow) string {
	if flow.DisplayName != "" {
		return flow.DisplayName
	}
	return "flow diagram"
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
