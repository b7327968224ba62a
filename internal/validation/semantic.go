package validation

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/rendis/flowcanvas/internal/expressions"
	"github.com/rendis/flowcanvas/internal/mention"
	"github.com/rendis/flowcanvas/pkg/schema"
)

// semanticChecker holds what the semantic stage needs besides the flow.
type semanticChecker struct {
	conditions      expressions.Engine
	jsonSchema      *JSONSchemaValidator
	settingsSchemas map[string]json.RawMessage
}

// validateSemantic checks step payloads: branch conditions compile, loops
// and branches have something to lay out, schedules parse, settings match
// their piece schema, and mentions in settings point at upstream steps.
// The flow must already have passed validateTree.
func (c *semanticChecker) validateSemantic(flow *schema.Flow) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	root := flow.Trigger

	var visit func(s *schema.Step, path string)
	visit = func(s *schema.Step, path string) {
		c.validateStep(root, s, path, result)
		for _, sl := range slotsOf(s) {
			if !ignoredSlot(s.Shape(), sl.field) {
				visit(sl.step, path+"."+sl.field)
			}
		}
	}
	visit(root, "trigger")
	return result
}

func (c *semanticChecker) validateStep(root, s *schema.Step, path string, result *schema.ValidationResult) {
	switch s.Shape() {
	case schema.StepTypeBranch:
		if s.OnSuccess == nil && s.OnFailure == nil {
			result.AddStepWarning(path, s.Name, schema.ErrCodeValidation, "branch has no steps in either lane")
		}
		if s.Condition == "" {
			result.AddStepWarning(path+".condition", s.Name, schema.ErrCodeValidation,
				"branch has no condition; previews cannot choose a lane")
		} else if err := c.conditions.Check(s.Condition); err != nil {
			result.AddStepError(path+".condition", s.Name, schema.ErrCodeExpression,
				fmt.Sprintf("%s condition does not compile: %s", c.conditions.Name(), err.Error()))
		}
	case schema.StepTypeLoop:
		if s.Body == nil {
			result.AddStepWarning(path, s.Name, schema.ErrCodeValidation, "loop has an empty body")
		}
	}

	if s.Condition != "" && s.Shape() != schema.StepTypeBranch {
		result.AddStepWarning(path+".condition", s.Name, schema.ErrCodeValidation,
			fmt.Sprintf("condition is ignored on a %s step", s.Shape()))
	}

	if s.Schedule != "" {
		if s != root {
			result.AddStepWarning(path+".schedule", s.Name, schema.ErrCodeValidation,
				"schedule is only used on the trigger")
		}
		if _, err := ParseSchedule(s.Schedule); err != nil {
			result.AddStepError(path+".schedule", s.Name, schema.ErrCodeValidation, err.Error())
		}
	}

	if sch, ok := c.settingsSchemas[s.Piece]; ok && s.Piece != "" {
		if err := c.jsonSchema.ValidateSettings(s.Settings, sch); err != nil {
			result.AddStepError(path+".settings", s.Name, schema.ErrCodeValidation, err.Error())
		}
	}

	c.validateMentions(root, s, path, result)
}

// validateMentions warns about mentions in string settings that reference a
// step the current step cannot see.
func (c *semanticChecker) validateMentions(root, s *schema.Step, path string, result *schema.ValidationResult) {
	if len(s.Settings) == 0 {
		return
	}
	var settings any
	if err := json.Unmarshal(s.Settings, &settings); err != nil {
		result.AddStepError(path+".settings", s.Name, schema.ErrCodeParse, "settings are not valid JSON")
		return
	}

	texts := collectStrings(settings, nil)
	if len(texts) == 0 {
		return
	}
	upstream, err := mention.UpstreamSteps(root, s.Name)
	if err != nil {
		return
	}

	var unknown []string
	for _, text := range texts {
		for _, m := range mention.ParseDocument(text, upstream).Mentions() {
			if m.Resolution == mention.ResolutionFallback && !slices.Contains(unknown, m.ServerValue) {
				unknown = append(unknown, m.ServerValue)
			}
		}
	}
	for _, token := range unknown {
		result.AddStepWarning(path+".settings", s.Name, schema.ErrCodeNotFound,
			fmt.Sprintf("%s does not reference a step upstream of %q", token, s.Name))
	}
}

// collectStrings returns every string value in a decoded JSON value, in
// document order for arrays and key order for objects.
func collectStrings(v any, out []string) []string {
	switch val := v.(type) {
	case string:
		return append(out, val)
	case []any:
		for _, item := range val {
			out = collectStrings(item, out)
		}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			out = collectStrings(val[k], out)
		}
	}
	return out
}
