package expressions

import "maps"

// Scope is the data a branch condition or preview query sees: sample
// outputs of upstream steps keyed by step name, the trigger's own output,
// and flow metadata.
type Scope struct {
	Steps   map[string]any
	Trigger any
	Flow    map[string]any
}

// NewScope builds a Scope from sample step outputs. The trigger output is
// looked up by triggerName. Inputs are deep-copied so evaluation cannot
// mutate the caller's samples.
func NewScope(samples map[string]any, triggerName string, flow map[string]any) *Scope {
	steps := deepCopyMap(samples)
	if steps == nil {
		steps = map[string]any{}
	}
	return &Scope{
		Steps:   steps,
		Trigger: steps[triggerName],
		Flow:    deepCopyMap(flow),
	}
}

// Restrict returns a copy of s that only exposes the named steps. The
// trigger stays visible.
func (s *Scope) Restrict(names []string) *Scope {
	steps := make(map[string]any, len(names))
	for _, n := range names {
		if v, ok := s.Steps[n]; ok {
			steps[n] = v
		}
	}
	return &Scope{Steps: steps, Trigger: s.Trigger, Flow: s.Flow}
}

// Data returns the top-level variables handed to the engines.
func (s *Scope) Data() map[string]any {
	flow := s.Flow
	if flow == nil {
		flow = map[string]any{}
	}
	return map[string]any{
		"steps":   maps.Clone(s.Steps),
		"trigger": s.Trigger,
		"flow":    flow,
	}
}

// deepCopyMap creates a deep copy of a map[string]any.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = deepCopyAny(v)
	}
	return cp
}

// deepCopyAny recursively deep-copies maps and slices. Other values are
// returned as is.
func deepCopyAny(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = deepCopyAny(item)
		}
		return cp
	default:
		return v
	}
}
