package layout

import (
	"encoding/json"

	"github.com/rendis/flowcanvas/pkg/schema"
)

// NodeKind tags a graph node for the canvas renderer.
type NodeKind string

const (
	NodeKindStep        NodeKind = "step"
	NodeKindPlaceholder NodeKind = "placeholder"
)

// Position locates a node in canvas units. Bounding-box arithmetic treats X
// as the node's horizontal centre.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a positioned visual element. Nodes are never moved in place;
// Graph.Offset returns shifted copies.
type Node struct {
	ID       string
	Position Position
	Kind     NodeKind
	Step     *schema.Step // nil for placeholders
}

// NodeData is the subset of a step the canvas needs to draw a node.
type NodeData struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"displayName,omitempty"`
	StepType    schema.StepType `json:"stepType"`
	Piece       string          `json:"piece,omitempty"`
	Action      string          `json:"action,omitempty"`
	LogoURL     string          `json:"logoUrl,omitempty"`
}

// Data returns the render payload for step nodes, nil for placeholders.
func (n Node) Data() *NodeData {
	if n.Step == nil {
		return nil
	}
	return &NodeData{
		Name:        n.Step.Name,
		DisplayName: n.Step.DisplayName,
		StepType:    n.Step.Shape(),
		Piece:       n.Step.Piece,
		Action:      n.Step.Action,
		LogoURL:     n.Step.LogoURL,
	}
}

// MarshalJSON emits the node in the shape node-and-edge canvas libraries
// consume: id, position, type and data. Child steps are not inlined.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string    `json:"id"`
		Position Position  `json:"position"`
		Type     NodeKind  `json:"type"`
		Data     *NodeData `json:"data,omitempty"`
	}{n.ID, n.Position, n.Kind, n.Data()})
}

// Edge is a directed connection between two node ids. Label carries the
// target id so the host can attach an "insert step" affordance to the edge.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// newEdge derives the edge id and label from its endpoints.
func newEdge(source, target string) Edge {
	return Edge{
		ID:     source + "-" + target,
		Source: source,
		Target: target,
		Label:  target,
	}
}

// Graph is an ordered list of nodes and edges. The first node is the
// subgraph's anchor and the last node is its terminal.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// First returns the anchor node.
func (g *Graph) First() Node {
	return g.Nodes[0]
}

// Last returns the terminal node, the one downstream edges attach to.
func (g *Graph) Last() Node {
	return g.Nodes[len(g.Nodes)-1]
}

// Offset returns a copy of g with every node shifted by (dx, dy).
func (g *Graph) Offset(dx, dy float64) *Graph {
	out := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: append([]Edge(nil), g.Edges...),
	}
	for i, n := range g.Nodes {
		n.Position = Position{X: n.Position.X + dx, Y: n.Position.Y + dy}
		out.Nodes[i] = n
	}
	return out
}

// Merge concatenates graphs in order. Duplicates are kept.
func Merge(graphs ...*Graph) *Graph {
	out := &Graph{}
	for _, g := range graphs {
		out.Nodes = append(out.Nodes, g.Nodes...)
		out.Edges = append(out.Edges, g.Edges...)
	}
	return out
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
