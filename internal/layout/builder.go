package layout

import (
	"log/slog"

	"github.com/rendis/flowcanvas/internal/logging"
	"github.com/rendis/flowcanvas/pkg/schema"
)

// Builder turns a step tree into a positioned graph. A Builder holds no
// per-call state and is safe for concurrent use.
type Builder struct {
	opts   Options
	logger *slog.Logger
}

// NewBuilder creates a Builder. A nil logger discards output.
func NewBuilder(opts Options, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Builder{opts: opts.normalized(), logger: logger}
}

// Options returns the normalized layout constants in use.
func (b *Builder) Options() Options {
	return b.opts
}

// Build lays out the tree rooted at root. A nil root yields a single
// placeholder node. The result depends only on the tree: node ids, edge ids
// and positions are identical across calls.
func (b *Builder) Build(root *schema.Step) *Graph {
	g := b.traverse(root, "root")
	b.logger.Debug("layout built",
		slog.Int("nodes", len(g.Nodes)),
		slog.Int("edges", len(g.Edges)),
		slog.String("loop_lanes", string(b.opts.LoopLanes)))
	return g
}

// Build lays out root with DefaultOptions.
func Build(root *schema.Step) *Graph {
	return NewBuilder(DefaultOptions(), nil).Build(root)
}

// traverse builds the subgraph of step with its anchor at the origin. slot
// names the position step occupies in its owner and seeds placeholder ids.
func (b *Builder) traverse(step *schema.Step, slot string) *Graph {
	if step == nil {
		return placeholderGraph(slot)
	}

	g := &Graph{Nodes: []Node{{ID: step.Name, Kind: NodeKindStep, Step: step}}}

	switch step.Shape() {
	case schema.StepTypeBranch:
		lanes := []*Graph{
			b.traverse(step.OnSuccess, slotOf(step.Name, "success")),
			b.traverse(step.OnFailure, slotOf(step.Name, "failure")),
		}
		return b.layoutChildren(lanes, step.Next, slotOf(step.Name, "after"), g)

	case schema.StepTypeLoop:
		body := b.traverse(step.Body, slotOf(step.Name, "body"))
		lanes := []*Graph{body}
		if b.opts.LoopLanes == LoopLanesLegacy {
			lanes = []*Graph{placeholderGraph(slotOf(step.Name, "skip")), body}
		}
		return b.layoutChildren(lanes, step.Next, slotOf(step.Name, "after"), g)

	default:
		if step.Next == nil {
			return g
		}
		next := b.traverse(step.Next, slotOf(step.Name, "next")).Offset(0, b.opts.VerticalOffset)
		g.Edges = append(g.Edges, newEdge(step.Name, next.First().ID))
		return Merge(g, next)
	}
}

func placeholderGraph(slot string) *Graph {
	return &Graph{Nodes: []Node{{ID: placeholderID(slot), Kind: NodeKindPlaceholder}}}
}
