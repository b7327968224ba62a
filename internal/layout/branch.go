package layout

import "github.com/rendis/flowcanvas/pkg/schema"

// layoutChildren places already-built lanes side by side under the parent
// anchor and reconverges every lane's terminal node into the continuation
// subgraph. continuationSlot seeds the placeholder used when continuation
// is nil.
func (b *Builder) layoutChildren(lanes []*Graph, continuation *schema.Step, continuationSlot string, parent *Graph) *Graph {
	boxes := make([]BoundingBox, len(lanes))
	maxHeight := 0.0
	for i, lane := range lanes {
		boxes[i] = Bounds(lane, b.opts)
		maxHeight = max(maxHeight, boxes[i].Height)
	}
	depthBelow := maxHeight + 2*b.opts.VerticalOffset

	common := b.traverse(continuation, continuationSlot).Offset(0, depthBelow)

	result := parent
	anchor := parent.First().ID
	for _, lane := range b.placeRow(lanes, boxes) {
		result.Edges = append(result.Edges, newEdge(anchor, lane.First().ID))
		result = Merge(result, lane)
		result.Edges = append(result.Edges, newEdge(lane.Last().ID, common.First().ID))
	}
	return Merge(result, common)
}

// placeRow shifts each lane to its slot in a row one vertical offset below
// the parent. The row is centred so the midpoint between the first and the
// last lane anchors sits at x=0.
func (b *Builder) placeRow(lanes []*Graph, boxes []BoundingBox) []*Graph {
	if len(lanes) == 0 {
		return nil
	}
	totalWidth := b.opts.HorizontalGap * float64(len(lanes)-1)
	for _, box := range boxes {
		totalWidth += box.Width
	}

	left := -(totalWidth + boxes[0].WidthLeft - boxes[len(boxes)-1].WidthRight) / 2
	placed := make([]*Graph, len(lanes))
	for i, lane := range lanes {
		placed[i] = lane.Offset(left+boxes[i].WidthLeft, b.opts.VerticalOffset)
		left += boxes[i].Width + b.opts.HorizontalGap
	}
	return placed
}
