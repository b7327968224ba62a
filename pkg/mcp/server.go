package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/flowcanvas/internal/canvas"
)

// FlowcanvasServerDeps holds the dependencies for creating a FlowcanvasServer.
type FlowcanvasServerDeps struct {
	Canvas  *canvas.Canvas
	Logger  *slog.Logger
	Version string
}

// FlowcanvasServer wraps an MCP server with flowcanvas tool handlers.
type FlowcanvasServer struct {
	canvas    *canvas.Canvas
	flows     *FlowRegistry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewFlowcanvasServer creates a new FlowcanvasServer with all 5 tools registered.
// A nil Canvas is replaced by one with default settings.
func NewFlowcanvasServer(deps FlowcanvasServerDeps) (*FlowcanvasServer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	cv := deps.Canvas
	if cv == nil {
		var err error
		if cv, err = canvas.New(canvas.Config{Logger: logger}); err != nil {
			return nil, err
		}
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &FlowcanvasServer{
		canvas: cv,
		flows:  NewFlowRegistry(),
		logger: logger,
	}

	hooks := &server.Hooks{}
	hooks.AddOnUnregisterSession(func(_ context.Context, session server.ClientSession) {
		s.flows.Remove(session.SessionID())
	})

	mcpSrv := server.NewMCPServer(
		"flowcanvas",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(hooks),
		server.WithInstructions("Flowcanvas lays out and checks tree-shaped workflow definitions. Use flowcanvas.layout for node positions, flowcanvas.diagram to draw a flow, flowcanvas.mentions to resolve {{step.path}} tokens, flowcanvas.validate to check a flow, and flowcanvas.preview to evaluate a flow against sample step outputs. A flow passed to any tool is remembered for the session, so later calls may omit it."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *FlowcanvasServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// ServeHTTP starts the streamable HTTP transport on addr and blocks until
// ctx is cancelled or the listener fails.
func (s *FlowcanvasServer) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := server.NewStreamableHTTPServer(s.mcpServer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Start(addr)
	}()
	s.logger.Info("mcp http transport listening", slog.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return httpSrv.Shutdown(context.WithoutCancel(ctx))
	}
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *FlowcanvasServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 5 registered MCP tools as ServerTool entries.
func (s *FlowcanvasServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: layoutTool(), Handler: s.handleLayout},
		{Tool: diagramTool(), Handler: s.handleDiagram},
		{Tool: mentionsTool(), Handler: s.handleMentions},
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: previewTool(), Handler: s.handlePreview},
	}
}

// --- Tool definitions ---

func flowParam() mcp.ToolOption {
	return mcp.WithObject("flow", mcp.Description("Flow document: {displayName, trigger} where trigger is the root step. Defaults to the last flow sent in this session"))
}

func layoutTool() mcp.Tool {
	return mcp.NewTool("flowcanvas.layout",
		mcp.WithDescription("Compute canvas positions for every step of a flow"),
		flowParam(),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("flowcanvas.diagram",
		mcp.WithDescription("Draw a flow. Returns ASCII art, Mermaid flowchart syntax, SVG markup, or a PNG image"),
		flowParam(),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("ascii", "mermaid", "png", "svg"),
			mcp.Description("Output format"),
		),
		mcp.WithObject("samples", mcp.Description("Sample outputs keyed by step name; marks the steps a run with these outputs would visit")),
	)
}

func mentionsTool() mcp.Tool {
	return mcp.NewTool("flowcanvas.mentions",
		mcp.WithDescription("Parse text with {{step.path}} tokens into a rich-text document"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to parse")),
		flowParam(),
		mcp.WithString("step", mcp.Description("Step the text belongs to; only steps upstream of it resolve")),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("flowcanvas.validate",
		mcp.WithDescription("Validate a flow document"),
		flowParam(),
		mcp.WithObject("settings_schemas", mcp.Description("JSON Schemas for step settings, keyed by piece name")),
	)
}

func previewTool() mcp.Tool {
	return mcp.NewTool("flowcanvas.preview",
		mcp.WithDescription("Evaluate a flow against sample step outputs"),
		flowParam(),
		mcp.WithObject("samples", mcp.Required(), mcp.Description("Sample outputs keyed by step name")),
		mcp.WithString("text", mcp.Description("Text with {{step.path}} tokens to render with sample values")),
		mcp.WithString("step", mcp.Description("Step the text belongs to")),
	)
}
