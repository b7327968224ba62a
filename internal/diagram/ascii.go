package diagram

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ASCII canvas geometry. A node box is asciiBoxWidth runes wide and three
// lines tall; each row of nodes is followed by a two-line connector band.
const (
	asciiBoxWidth = 16
	asciiColumns  = asciiBoxWidth + 2 // columns one node width spans
	asciiRowLines = 5
)

// statusTag returns a short ASCII indicator for a status string.
func statusTag(status string) string {
	switch status {
	case StatusVisited:
		return "*"
	case StatusSkipped:
		return "-"
	default:
		return ""
	}
}

// RenderASCII plots a DiagramModel onto a character canvas using the node
// positions from the layout, so the picture matches the editor canvas.
// nodeWidth is the canvas width of one node; it fixes the horizontal scale.
// Edges are listed after the picture.
func RenderASCII(model *DiagramModel, nodeWidth float64) string {
	var b strings.Builder

	// Title.
	if model.Title != "" {
		b.WriteString(fmt.Sprintf("=== %s ===\n\n", model.Title))
	}
	if len(model.Nodes) == 0 {
		return b.String()
	}
	if nodeWidth <= 0 {
		nodeWidth = 1
	}

	// One text row band per distinct canvas Y.
	var ys []float64
	minX := model.Nodes[0].X
	for _, n := range model.Nodes {
		if !slices.Contains(ys, n.Y) {
			ys = append(ys, n.Y)
		}
		minX = min(minX, n.X)
	}
	slices.Sort(ys)

	pxPerCol := nodeWidth / asciiColumns
	col := func(x float64) int { return int(math.Round((x - minX) / pxPerCol)) }

	maxCol := 0
	for _, n := range model.Nodes {
		maxCol = max(maxCol, col(n.X))
	}
	canvas := newASCIICanvas(len(ys)*asciiRowLines, maxCol+asciiBoxWidth)

	hasOut := make(map[string]bool, len(model.Edges))
	hasIn := make(map[string]bool, len(model.Edges))
	for _, e := range model.Edges {
		hasOut[e.From] = true
		hasIn[e.To] = true
	}

	for _, n := range model.Nodes {
		row := slices.Index(ys, n.Y) * asciiRowLines
		left := col(n.X)
		if hasIn[n.ID] && row > 0 {
			canvas.set(row-1, left+asciiBoxWidth/2, '▼')
		}
		canvas.box(row, left, boxLabel(n))
		if hasOut[n.ID] {
			canvas.set(row+3, left+asciiBoxWidth/2, '│')
		}
	}
	b.WriteString(canvas.String())

	if len(model.Edges) > 0 {
		b.WriteString("\n")
		for _, e := range model.Edges {
			label := ""
			if e.Label != "" {
				label = " [" + e.Label + "]"
			}
			b.WriteString(fmt.Sprintf("%s ─→ %s%s\n", nodeName(model, e.From), nodeName(model, e.To), label))
		}
	}
	return b.String()
}

// boxLabel fits a node's label, with its status tag, inside a box.
func boxLabel(n *Node) string {
	label := firstLine(n.Label)
	if n.Status != nil {
		if tag := statusTag(n.Status.Status); tag != "" {
			label = tag + " " + label
		}
	}
	inner := asciiBoxWidth - 4
	r := []rune(label)
	if len(r) > inner {
		r = append(r[:inner-1], '…')
	}
	return string(r)
}

// nodeName returns the label of a node for the edge list, or its id.
func nodeName(m *DiagramModel, id string) string {
	if n := m.node(id); n != nil && n.Kind != NodeKindPlaceholder {
		return firstLine(n.Label)
	}
	return id
}

// asciiCanvas is a fixed-size grid of runes.
type asciiCanvas struct {
	cells [][]rune
}

func newASCIICanvas(rows, cols int) *asciiCanvas {
	cells := make([][]rune, rows)
	for i := range cells {
		cells[i] = []rune(strings.Repeat(" ", cols))
	}
	return &asciiCanvas{cells: cells}
}

func (c *asciiCanvas) set(row, col int, r rune) {
	if row < 0 || row >= len(c.cells) || col < 0 || col >= len(c.cells[row]) {
		return
	}
	c.cells[row][col] = r
}

func (c *asciiCanvas) write(row, col int, s string) {
	for i, r := range []rune(s) {
		c.set(row, col+i, r)
	}
}

// box draws a three-line box with its top-left corner at (row, col).
func (c *asciiCanvas) box(row, col int, label string) {
	inner := asciiBoxWidth - 2
	pad := inner - 2 - len([]rune(label))
	c.write(row, col, "┌"+strings.Repeat("─", inner)+"┐")
	c.write(row+1, col, "│ "+label+strings.Repeat(" ", max(pad, 0))+" │")
	c.write(row+2, col, "└"+strings.Repeat("─", inner)+"┘")
}

// String renders the canvas with trailing blanks and empty lines trimmed.
func (c *asciiCanvas) String() string {
	lines := make([]string, len(c.cells))
	for i, row := range c.cells {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}
