package layout

// LoopLanes selects how LOOP steps fan out.
type LoopLanes string

const (
	// LoopLanesSingle lays the loop body out as a single lane under the loop step.
	LoopLanesSingle LoopLanes = "single"
	// LoopLanesLegacy reproduces the two-lane diamond some editors expect:
	// an empty placeholder lane on the left and the body lane on the right.
	LoopLanesLegacy LoopLanes = "legacy"
)

// Options holds the layout constants, in canvas units.
type Options struct {
	NodeWidth      float64   `json:"node_width"`
	NodeHeight     float64   `json:"node_height"`
	VerticalOffset float64   `json:"vertical_offset"`
	HorizontalGap  float64   `json:"horizontal_gap"`
	LoopLanes      LoopLanes `json:"loop_lanes"`
}

// DefaultOptions returns the constants used by the editor canvas.
func DefaultOptions() Options {
	return Options{
		NodeWidth:      260,
		NodeHeight:     70,
		VerticalOffset: 160,
		HorizontalGap:  80,
		LoopLanes:      LoopLanesSingle,
	}
}

// normalized fills zero-valued fields from DefaultOptions. VerticalOffset
// never drops below NodeHeight so stacked nodes cannot overlap.
func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.NodeWidth <= 0 {
		o.NodeWidth = def.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = def.NodeHeight
	}
	if o.VerticalOffset <= 0 {
		o.VerticalOffset = def.VerticalOffset
	}
	if o.VerticalOffset < o.NodeHeight {
		o.VerticalOffset = o.NodeHeight
	}
	if o.HorizontalGap <= 0 {
		o.HorizontalGap = def.HorizontalGap
	}
	if o.LoopLanes != LoopLanesLegacy {
		o.LoopLanes = LoopLanesSingle
	}
	return o
}
