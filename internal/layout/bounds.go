package layout

// BoundingBox is the footprint of a laid-out subgraph. WidthLeft and
// WidthRight are measured from the centre of the anchor node, so
// WidthLeft+WidthRight == Width.
type BoundingBox struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	WidthLeft  float64 `json:"width_left"`
	WidthRight float64 `json:"width_right"`
}

// Bounds computes the bounding box of g using the node footprint in opts.
// An empty graph has a zero box.
func Bounds(g *Graph, opts Options) BoundingBox {
	if len(g.Nodes) == 0 {
		return BoundingBox{}
	}
	opts = opts.normalized()

	minX, maxX := g.Nodes[0].Position.X, g.Nodes[0].Position.X
	minY, maxY := g.Nodes[0].Position.Y, g.Nodes[0].Position.Y
	for _, n := range g.Nodes[1:] {
		minX = min(minX, n.Position.X)
		maxX = max(maxX, n.Position.X)
		minY = min(minY, n.Position.Y)
		maxY = max(maxY, n.Position.Y)
	}

	anchorX := g.First().Position.X
	half := opts.NodeWidth / 2
	return BoundingBox{
		Width:      maxX - minX + opts.NodeWidth,
		Height:     maxY - minY + opts.NodeHeight,
		WidthLeft:  anchorX - minX + half,
		WidthRight: maxX - anchorX + half,
	}
}
