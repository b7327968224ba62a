package schema

import "encoding/json"

// Flow is the JSON/YAML-serializable flow document handed to the canvas.
type Flow struct {
	ID          string         `json:"id,omitempty"`
	DisplayName string         `json:"displayName,omitempty"`
	Trigger     *Step          `json:"trigger,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// StepType discriminates the shape of a step.
type StepType string

const (
	StepTypeSimple StepType = "SIMPLE"
	StepTypeBranch StepType = "BRANCH"
	StepTypeLoop   StepType = "LOOP"
)

// Step is one node of the authored flow tree. Each step exclusively owns its
// children; the tree has no shared children and no cycles.
//
// Which child slots are read depends on Type:
//   - SIMPLE: Next is the successor.
//   - BRANCH: OnSuccess and OnFailure are the two lanes, Next is the continuation.
//   - LOOP:   Body is the first body step, Next is the continuation.
type Step struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName,omitempty"`
	Type        StepType `json:"type,omitempty"` // default: SIMPLE

	Next      *Step `json:"nextAction,omitempty"`
	OnSuccess *Step `json:"onSuccessAction,omitempty"`
	OnFailure *Step `json:"onFailureAction,omitempty"`
	Body      *Step `json:"firstLoopAction,omitempty"`

	// Opaque payload carried through to graph nodes for the host UI.
	Piece     string          `json:"piece,omitempty"`
	Action    string          `json:"action,omitempty"`
	LogoURL   string          `json:"logoUrl,omitempty"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	Condition string          `json:"condition,omitempty"` // BRANCH only
	Schedule  string          `json:"schedule,omitempty"`  // cron spec, schedule triggers only
}

// Shape returns the step type, defaulting to SIMPLE.
func (s *Step) Shape() StepType {
	if s.Type == "" {
		return StepTypeSimple
	}
	return s.Type
}

// Label returns the display name, falling back to the step name.
func (s *Step) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Name
}

// Children returns the non-nil child steps in layout order: lanes first,
// continuation last.
func (s *Step) Children() []*Step {
	var out []*Step
	switch s.Shape() {
	case StepTypeBranch:
		out = appendStep(out, s.OnSuccess, s.OnFailure)
	case StepTypeLoop:
		out = appendStep(out, s.Body)
	}
	return appendStep(out, s.Next)
}

func appendStep(dst []*Step, steps ...*Step) []*Step {
	for _, st := range steps {
		if st != nil {
			dst = append(dst, st)
		}
	}
	return dst
}

// Walk visits the tree depth-first in the order the canvas numbers steps:
// the step itself, then its lanes, then its continuation. Returning false
// from fn stops the walk. Walk does not guard against cycles.
func Walk(root *Step, fn func(step *Step) bool) bool {
	if root == nil {
		return true
	}
	if !fn(root) {
		return false
	}
	for _, child := range root.Children() {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}
