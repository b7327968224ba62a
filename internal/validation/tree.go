package validation

import (
	"fmt"
	"strings"

	"github.com/rendis/flowcanvas/pkg/schema"
)

// slot is a named child reference of a step, as it appears in the document.
type slot struct {
	field string
	step  *schema.Step
}

// slotsOf returns every non-nil child slot of s regardless of its type, so
// that children in slots the type ignores can be reported.
func slotsOf(s *schema.Step) []slot {
	all := []slot{
		{"onSuccessAction", s.OnSuccess},
		{"onFailureAction", s.OnFailure},
		{"firstLoopAction", s.Body},
		{"nextAction", s.Next},
	}
	out := all[:0]
	for _, sl := range all {
		if sl.step != nil {
			out = append(out, sl)
		}
	}
	return out
}

// ignoredSlot reports whether the layout ignores field for a step of shape t.
func ignoredSlot(t schema.StepType, field string) bool {
	switch field {
	case "onSuccessAction", "onFailureAction":
		return t != schema.StepTypeBranch
	case "firstLoopAction":
		return t != schema.StepTypeLoop
	}
	return false
}

// validateTree checks that the flow is a strict ownership tree with unique,
// non-empty step names. A cycle or shared child stops the walk below that
// point; callers must not walk a tree this stage rejected.
func validateTree(flow *schema.Flow) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if flow.Trigger == nil {
		result.AddError("trigger", schema.ErrCodeValidation, "flow has no trigger")
		return result
	}

	var (
		onStack = make(map[*schema.Step]bool)
		seen    = make(map[*schema.Step]string) // step -> path of first visit
		names   = make(map[string]string)       // name -> path of first use
	)

	var visit func(s *schema.Step, path string)
	visit = func(s *schema.Step, path string) {
		if onStack[s] {
			result.AddStepError(path, s.Name, schema.ErrCodeCycleDetected,
				fmt.Sprintf("step %q is its own ancestor", s.Name))
			return
		}
		if first, ok := seen[s]; ok {
			result.AddStepError(path, s.Name, schema.ErrCodeValidation,
				fmt.Sprintf("step %q is shared with %s; each step must have one parent", s.Name, first))
			return
		}
		seen[s] = path
		onStack[s] = true
		defer delete(onStack, s)

		switch {
		case s.Name == "":
			result.AddError(path, schema.ErrCodeValidation, "step has no name")
		case strings.HasPrefix(s.Name, "placeholder-"):
			result.AddStepError(path, s.Name, schema.ErrCodeValidation,
				`step names must not start with "placeholder-"; that prefix is reserved for empty lanes`)
		default:
			if first, dup := names[s.Name]; dup {
				result.AddStepError(path, s.Name, schema.ErrCodeValidation,
					fmt.Sprintf("duplicate step name %q, first used at %s", s.Name, first))
			} else {
				names[s.Name] = path
			}
		}

		switch s.Shape() {
		case schema.StepTypeSimple, schema.StepTypeBranch, schema.StepTypeLoop:
		default:
			result.AddStepError(path+".type", s.Name, schema.ErrCodeValidation,
				fmt.Sprintf("unknown step type %q", s.Type))
		}

		for _, sl := range slotsOf(s) {
			childPath := path + "." + sl.field
			if ignoredSlot(s.Shape(), sl.field) {
				result.AddStepWarning(childPath, s.Name, schema.ErrCodeValidation,
					fmt.Sprintf("%s is ignored on a %s step", sl.field, s.Shape()))
			}
			visit(sl.step, childPath)
		}
	}
	visit(flow.Trigger, "trigger")
	return result
}
