package diagram

// NodeKind classifies a diagram node by its step shape.
type NodeKind string

const (
	NodeKindTrigger     NodeKind = "trigger"
	NodeKindAction      NodeKind = "action"
	NodeKindBranch      NodeKind = "branch"
	NodeKindLoop        NodeKind = "loop"
	NodeKindPlaceholder NodeKind = "placeholder"
)

// Statuses a preview overlay can put on a node.
const (
	StatusVisited = "visited"
	StatusSkipped = "skipped"
)

// DiagramModel is the intermediate representation used by all renderers.
type DiagramModel struct {
	Title string
	Nodes []*Node
	Edges []Edge
}

// Node represents a single canvas node in the diagram.
type Node struct {
	ID     string
	Label  string
	Kind   NodeKind
	X, Y   float64 // canvas position from the layout
	Status *StatusOverlay
}

// StatusOverlay carries preview state for a node.
type StatusOverlay struct {
	Status string
}

// Edge represents a connection between two nodes. Label names the lane for
// edges leaving a branch or loop ("success", "failure", "body", "skip").
type Edge struct {
	From  string
	To    string
	Label string
}

// node looks up a node by ID.
func (m *DiagramModel) node(id string) *Node {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
