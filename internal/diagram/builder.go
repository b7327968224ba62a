package diagram

import (
	"github.com/rendis/flowcanvas/internal/layout"
	"github.com/rendis/flowcanvas/pkg/schema"
)

// placeholderLabel is shown for empty lanes.
const placeholderLabel = "+"

// Build constructs a DiagramModel from a laid-out graph. The first node of
// the graph is the trigger. Edges leaving a branch or loop are labelled with
// the lane they enter, in the order the layout emits them.
func Build(title string, g *layout.Graph) *DiagramModel {
	model := &DiagramModel{
		Title: title,
		Nodes: make([]*Node, 0, len(g.Nodes)),
		Edges: make([]Edge, 0, len(g.Edges)),
	}

	steps := make(map[string]*schema.Step, len(g.Nodes))
	for i, n := range g.Nodes {
		node := &Node{ID: n.ID, X: n.Position.X, Y: n.Position.Y}
		switch {
		case n.Step == nil:
			node.Label = placeholderLabel
			node.Kind = NodeKindPlaceholder
		case i == 0:
			node.Label = n.Step.Label()
			node.Kind = NodeKindTrigger
		default:
			node.Label = n.Step.Label()
			node.Kind = stepTypeToKind(n.Step.Shape())
		}
		if n.Step != nil {
			steps[n.ID] = n.Step
		}
		model.Nodes = append(model.Nodes, node)
	}

	out := make(map[string][]int, len(g.Nodes)) // source -> edge indexes
	for _, e := range g.Edges {
		out[e.Source] = append(out[e.Source], len(model.Edges))
		model.Edges = append(model.Edges, Edge{From: e.Source, To: e.Target})
	}
	for source, idxs := range out {
		labels := laneLabels(steps[source], len(idxs))
		for i, idx := range idxs {
			if i < len(labels) {
				model.Edges[idx].Label = labels[i]
			}
		}
	}
	return model
}

// laneLabels returns the labels for the n outgoing edges of step.
func laneLabels(step *schema.Step, n int) []string {
	if step == nil {
		return nil
	}
	switch step.Shape() {
	case schema.StepTypeBranch:
		return []string{"success", "failure"}
	case schema.StepTypeLoop:
		if n == 2 {
			return []string{"skip", "body"}
		}
		return []string{"body"}
	default:
		return nil
	}
}

// stepTypeToKind converts a schema.StepType to a NodeKind.
func stepTypeToKind(st schema.StepType) NodeKind {
	switch st {
	case schema.StepTypeBranch:
		return NodeKindBranch
	case schema.StepTypeLoop:
		return NodeKindLoop
	default:
		return NodeKindAction
	}
}

// ApplyRoute overlays a preview route: nodes of visited steps are marked
// visited and every other step node skipped. Placeholders get no status.
func (m *DiagramModel) ApplyRoute(visited []string) {
	seen := make(map[string]bool, len(visited))
	for _, v := range visited {
		seen[v] = true
	}
	for _, n := range m.Nodes {
		switch {
		case n.Kind == NodeKindPlaceholder:
			n.Status = nil
		case seen[n.ID]:
			n.Status = &StatusOverlay{Status: StatusVisited}
		default:
			n.Status = &StatusOverlay{Status: StatusSkipped}
		}
	}
}
