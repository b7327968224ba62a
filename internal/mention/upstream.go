package mention

import (
	"slices"

	"github.com/rendis/flowcanvas/pkg/schema"
)

// Catalog numbers every step of a flow depth-first (trigger = 1) in the
// order the canvas shows them: a step, its lanes, then its continuation.
func Catalog(root *schema.Step) []StepMetadata {
	var out []StepMetadata
	schema.Walk(root, func(s *schema.Step) bool {
		out = append(out, metadataOf(s, len(out)+1))
		return true
	})
	return out
}

// UpstreamSteps returns the steps whose outputs are visible to target:
// every step on the chain leading to it, including the branch or loop
// steps it is nested in, plus every step inside a branch or loop that
// completes before target runs. Sibling lanes of target are excluded.
// Results carry their Catalog index and are in depth-first order.
func UpstreamSteps(root *schema.Step, target string) ([]StepMetadata, error) {
	visible, ok := upstreamOf(root, target, nil)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "step %q not found in flow", target).
			WithStep(target)
	}

	index := make(map[string]int)
	for _, m := range Catalog(root) {
		if _, dup := index[m.ID]; !dup {
			index[m.ID] = m.DFSIndex
		}
	}

	out := make([]StepMetadata, 0, len(visible))
	for _, s := range visible {
		out = append(out, metadataOf(s, index[s.Name]))
	}
	slices.SortStableFunc(out, func(a, b StepMetadata) int { return a.DFSIndex - b.DFSIndex })
	return out, nil
}

// upstreamOf walks the chain starting at head. visible holds the steps
// visible on entry to the chain.
func upstreamOf(head *schema.Step, target string, visible []*schema.Step) ([]*schema.Step, bool) {
	for cur := head; cur != nil; cur = cur.Next {
		if cur.Name == target {
			return visible, true
		}
		visible = append(visible, cur)

		var lanes []*schema.Step
		switch cur.Shape() {
		case schema.StepTypeBranch:
			lanes = []*schema.Step{cur.OnSuccess, cur.OnFailure}
		case schema.StepTypeLoop:
			lanes = []*schema.Step{cur.Body}
		}
		for _, lane := range lanes {
			if found, ok := upstreamOf(lane, target, slices.Clip(visible)); ok {
				return found, true
			}
		}
		for _, lane := range lanes {
			schema.Walk(lane, func(s *schema.Step) bool {
				visible = append(visible, s)
				return true
			})
		}
	}
	return nil, false
}

func metadataOf(s *schema.Step, index int) StepMetadata {
	return StepMetadata{
		ID:          s.Name,
		DisplayName: s.Label(),
		LogoURL:     s.LogoURL,
		DFSIndex:    index,
	}
}
