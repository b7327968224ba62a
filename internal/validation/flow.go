package validation

import (
	"encoding/json"
	"errors"

	"github.com/rendis/flowcanvas/internal/expressions"
	"github.com/rendis/flowcanvas/pkg/schema"
)

// Options configures a FlowValidator.
type Options struct {
	// Dialect is the branch-condition language, "cel" (default) or "expr".
	Dialect string
	// SettingsSchemas maps a piece name to the JSON Schema its steps'
	// settings must satisfy.
	SettingsSchemas map[string]json.RawMessage
}

// FlowValidator orchestrates the three-stage validation pipeline:
// 1. Tree (ownership, cycles, unique names)
// 2. Structural (JSON Schema)
// 3. Semantic (conditions, schedules, settings, mentions)
type FlowValidator struct {
	jsonSchema *JSONSchemaValidator
	semantic   *semanticChecker
}

// NewFlowValidator creates a FlowValidator.
func NewFlowValidator(opts Options) (*FlowValidator, error) {
	if opts.Dialect == "" {
		opts.Dialect = expressions.DialectCEL
	}
	if opts.Dialect == expressions.DialectJQ {
		return nil, schema.NewError(schema.ErrCodeValidation, "jq cannot evaluate branch conditions")
	}
	cond, err := expressions.New(opts.Dialect)
	if err != nil {
		return nil, err
	}
	jsv, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &FlowValidator{
		jsonSchema: jsv,
		semantic: &semanticChecker{
			conditions:      cond,
			jsonSchema:      jsv,
			settingsSchemas: opts.SettingsSchemas,
		},
	}, nil
}

// Validate runs the full pipeline and returns an aggregated result.
// Tree errors short-circuit: a cyclic or shared subtree cannot be encoded
// or walked. Structural errors skip the semantic stage.
func (fv *FlowValidator) Validate(flow *schema.Flow) *schema.ValidationResult {
	if flow == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, "flow is nil")
		return r
	}

	// Stage 1: Tree.
	result := validateTree(flow)
	if !result.Valid() {
		return result
	}

	// Stage 2: Structural (JSON Schema).
	result.Merge(issuesFromError(fv.jsonSchema.ValidateFlow(flow)))
	if !result.Valid() {
		return result
	}

	// Stage 3: Semantic.
	result.Merge(fv.semantic.validateSemantic(flow))
	return result
}

// ValidateDocument validates raw JSON against the flow schema first, so
// that schema violations are reported against the document as written,
// then decodes it and runs Validate. The decoded flow is nil when the
// document could not be decoded.
func (fv *FlowValidator) ValidateDocument(raw []byte) (*schema.Flow, *schema.ValidationResult) {
	result := issuesFromError(fv.jsonSchema.ValidateDocument(raw))
	if !result.Valid() {
		return nil, result
	}
	flow, err := schema.ParseFlowJSON(raw)
	if err != nil {
		return nil, issuesFromError(err)
	}
	return flow, fv.Validate(flow)
}

// ValidateFlow satisfies the Validator interface.
func (fv *FlowValidator) ValidateFlow(flow *schema.Flow) error {
	return fv.Validate(flow).ToError()
}

// ValidateSettings delegates to the underlying JSONSchemaValidator.
func (fv *FlowValidator) ValidateSettings(settings json.RawMessage, settingsSchema []byte) error {
	return fv.jsonSchema.ValidateSettings(settings, settingsSchema)
}

// issuesFromError converts a stage error into a ValidationResult, one issue
// per schema violation when the error carries them.
func issuesFromError(err error) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if err == nil {
		return result
	}

	var flowErr *schema.FlowError
	if !errors.As(err, &flowErr) {
		result.AddError("/", schema.ErrCodeValidation, err.Error())
		return result
	}

	if violations, ok := flowErr.Details["violations"].([]string); ok {
		for _, v := range violations {
			result.AddError("/", flowErr.Code, v)
		}
		return result
	}
	result.AddError("/", flowErr.Code, flowErr.Message)
	return result
}

var _ Validator = (*FlowValidator)(nil)
