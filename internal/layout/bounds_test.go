package layout

import (
	"testing"

	"github.com/rendis/flowcanvas/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounds_Empty(t *testing.T) {
	assert.Equal(t, BoundingBox{}, Bounds(&Graph{}, DefaultOptions()))
}

func TestBounds_SingleNodeIsOneFootprint(t *testing.T) {
	opts := DefaultOptions()
	box := Bounds(placeholderGraph("root"), opts)

	assert.Equal(t, opts.NodeWidth, box.Width)
	assert.Equal(t, opts.NodeHeight, box.Height)
	assert.Equal(t, opts.NodeWidth/2, box.WidthLeft)
	assert.Equal(t, opts.NodeWidth/2, box.WidthRight)
}

func TestBounds_AsymmetricAnchor(t *testing.T) {
	opts := DefaultOptions()
	g := &Graph{Nodes: []Node{
		{ID: "anchor", Position: Position{X: 0, Y: 0}},
		{ID: "left", Position: Position{X: -300, Y: 100}},
		{ID: "far", Position: Position{X: 100, Y: 400}},
	}}

	box := Bounds(g, opts)
	assert.Equal(t, 400+opts.NodeWidth, box.Width)
	assert.Equal(t, 400+opts.NodeHeight, box.Height)
	assert.Equal(t, 300+opts.NodeWidth/2, box.WidthLeft)
	assert.Equal(t, 100+opts.NodeWidth/2, box.WidthRight)
	assert.Equal(t, box.Width, box.WidthLeft+box.WidthRight)
}

func TestBounds_TranslationInvariant(t *testing.T) {
	opts := DefaultOptions()
	g := Build(nestedTree())
	assert.Equal(t, Bounds(g, opts), Bounds(g.Offset(-123, 456), opts))
}

func TestBounds_AdditiveSideBySide(t *testing.T) {
	opts := DefaultOptions()
	b := NewBuilder(opts, nil)

	left := b.traverse(nestedTree(), "root")
	right := b.traverse(loopTree(), "root")
	boxes := []BoundingBox{Bounds(left, opts), Bounds(right, opts)}

	row := Merge(b.placeRow([]*Graph{left, right}, boxes)...)
	got := Bounds(row, opts)

	// The row's anchor is the first lane's anchor, so compare widths only.
	assert.InDelta(t, boxes[0].Width+boxes[1].Width+opts.HorizontalGap, got.Width, 1e-9)
}

func TestPlaceRow_CentresAnchorsUnderParent(t *testing.T) {
	opts := DefaultOptions()
	b := NewBuilder(opts, nil)

	lanes := []*Graph{
		b.traverse(nestedTree(), "root"),
		placeholderGraph("x"),
		b.traverse(loopTree(), "root"),
	}
	boxes := make([]BoundingBox, len(lanes))
	for i, l := range lanes {
		boxes[i] = Bounds(l, opts)
	}

	placed := b.placeRow(lanes, boxes)
	require.Len(t, placed, 3)

	first, last := placed[0].First().Position.X, placed[2].First().Position.X
	assert.InDelta(t, 0, (first+last)/2, 1e-9)

	// Consecutive lanes are exactly one gap apart.
	for i := 1; i < len(placed); i++ {
		prevRight := placed[i-1].First().Position.X + boxes[i-1].WidthRight
		curLeft := placed[i].First().Position.X - boxes[i].WidthLeft
		assert.InDelta(t, opts.HorizontalGap, curLeft-prevRight, 1e-9)
		assert.Equal(t, opts.VerticalOffset, placed[i].First().Position.Y)
	}
}

func TestPlaceRow_SingleLaneStaysOnAxis(t *testing.T) {
	opts := DefaultOptions()
	b := NewBuilder(opts, nil)

	// A lane whose anchor is not its horizontal centre.
	lane := b.traverse(&schema.Step{
		Name:      "r",
		Type:      schema.StepTypeBranch,
		OnSuccess: &schema.Step{Name: "a", Type: schema.StepTypeBranch},
	}, "root")
	box := Bounds(lane, opts)
	require.NotEqual(t, box.WidthLeft, box.WidthRight)

	placed := b.placeRow([]*Graph{lane}, []BoundingBox{box})
	assert.InDelta(t, 0, placed[0].First().Position.X, 1e-9)
}

func TestGraph_OffsetDoesNotMutate(t *testing.T) {
	g := Build(linearTree())
	shifted := g.Offset(10, 20)

	assert.Equal(t, 0.0, g.Nodes[1].Position.X)
	assert.Equal(t, 10.0, shifted.Nodes[1].Position.X)
	assert.Equal(t, g.Nodes[1].Position.Y+20, shifted.Nodes[1].Position.Y)
	assert.Equal(t, g.Edges, shifted.Edges)
}
