package mention

import (
	"strconv"
	"strings"
)

// FallbackLabel is shown for mentions whose step id is not among the known steps.
const FallbackLabel = "Custom Code"

// StepMetadata describes a step a mention may reference.
type StepMetadata struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	LogoURL     string `json:"logoUrl,omitempty"`
	DFSIndex    int    `json:"dfsIndex"` // 1-based position in a depth-first walk of the flow
}

// ResolutionKind tags how a mention was resolved.
type ResolutionKind string

const (
	ResolutionResolved ResolutionKind = "resolved"
	ResolutionFallback ResolutionKind = "fallback"
)

// Resolution is the display form of a mention path.
type Resolution struct {
	Kind    ResolutionKind `json:"kind"`
	Label   string         `json:"label"`
	LogoURL string         `json:"logoUrl,omitempty"`
}

// stepIndex maps step ids to metadata; the first entry for an id wins.
type stepIndex map[string]StepMetadata

func newStepIndex(steps []StepMetadata) stepIndex {
	idx := make(stepIndex, len(steps))
	for _, s := range steps {
		if _, dup := idx[s.ID]; !dup {
			idx[s.ID] = s
		}
	}
	return idx
}

// Resolve builds the display label for path: the step's indexed name
// followed by the property segments, array indexes omitted. It never fails: unknown step
// ids resolve to FallbackLabel with no logo.
func Resolve(path Path, steps []StepMetadata) Resolution {
	return newStepIndex(steps).resolve(path, FallbackLabel)
}

func (idx stepIndex) resolve(path Path, fallback string) Resolution {
	step, ok := idx[path.StepID()]
	if !ok {
		return Resolution{Kind: ResolutionFallback, Label: fallback}
	}

	parts := make([]string, 0, 1+len(path.Properties()))
	parts = append(parts, stepLabel(step))
	for _, seg := range path.Properties() {
		if !isIndex(seg) {
			parts = append(parts, seg)
		}
	}
	return Resolution{
		Kind:    ResolutionResolved,
		Label:   strings.Join(parts, " "),
		LogoURL: step.LogoURL,
	}
}

// isIndex reports whether seg is an array index. Indexes are part of the
// path but not of its display label.
func isIndex(seg string) bool {
	if seg == "" {
		return false
	}
	for _, c := range seg {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// stepLabel renders "<index>. <display name>".
func stepLabel(step StepMetadata) string {
	name := step.DisplayName
	if name == "" {
		name = step.ID
	}
	if step.DFSIndex <= 0 {
		return name
	}
	return strconv.Itoa(step.DFSIndex) + ". " + name
}
