package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rendis/flowcanvas/pkg/schema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const flowSchemaURL = "https://flowcanvas.dev/schemas/flow.json"

// flowSchemaJSON is the JSON Schema for flow documents.
// Embedded as a constant to avoid filesystem dependencies.
const flowSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowcanvas.dev/schemas/flow.json",
  "type": "object",
  "required": ["trigger"],
  "properties": {
    "id": { "type": "string" },
    "displayName": { "type": "string" },
    "trigger": { "$ref": "#/$defs/step" },
    "metadata": { "type": "object" }
  },
  "additionalProperties": false,
  "$defs": {
    "step": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {
          "type": "string",
          "minLength": 1,
          "pattern": "^[A-Za-z_][A-Za-z0-9_-]*$"
        },
        "displayName": { "type": "string" },
        "type": {
          "type": "string",
          "enum": ["SIMPLE", "BRANCH", "LOOP"]
        },
        "nextAction": { "$ref": "#/$defs/step" },
        "onSuccessAction": { "$ref": "#/$defs/step" },
        "onFailureAction": { "$ref": "#/$defs/step" },
        "firstLoopAction": { "$ref": "#/$defs/step" },
        "piece": { "type": "string" },
        "action": { "type": "string" },
        "logoUrl": { "type": "string", "format": "uri-reference" },
        "settings": {},
        "condition": { "type": "string" },
        "schedule": { "type": "string", "minLength": 1 }
      },
      "additionalProperties": false
    }
  }
}`

// JSONSchemaValidator validates flow documents and step settings against
// JSON Schema. It is safe for concurrent use.
type JSONSchemaValidator struct {
	flowSchema *jsonschema.Schema

	// mu guards the cache of compiled settings schemas.
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator creates a JSONSchemaValidator with the flow schema pre-compiled.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := newCompiler()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(flowSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal flow schema: %w", err)
	}
	if err := c.AddResource(flowSchemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("add flow schema resource: %w", err)
	}

	flowSchema, err := c.Compile(flowSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile flow schema: %w", err)
	}

	return &JSONSchemaValidator{
		flowSchema: flowSchema,
		cache:      make(map[string]*jsonschema.Schema),
	}, nil
}

// ValidateDocument validates raw flow JSON against the flow schema.
func (v *JSONSchemaValidator) ValidateDocument(raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return schema.NewError(schema.ErrCodeParse, "flow document is not valid JSON").WithCause(err)
	}
	if err := v.flowSchema.Validate(doc); err != nil {
		return toFlowError(err)
	}
	return nil
}

// ValidateFlow validates a decoded flow against the flow schema. The flow
// must be a tree: a cyclic flow cannot be encoded.
func (v *JSONSchemaValidator) ValidateFlow(flow *schema.Flow) error {
	if flow == nil {
		return schema.NewError(schema.ErrCodeValidation, "flow is nil")
	}
	raw, err := json.Marshal(flow)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize flow").WithCause(err)
	}
	return v.ValidateDocument(raw)
}

// ValidateSettings validates a step's settings payload against a JSON Schema
// provided as raw bytes. The schema is compiled and cached for subsequent
// calls with the same schema. An empty schema accepts anything.
func (v *JSONSchemaValidator) ValidateSettings(settings json.RawMessage, settingsSchema []byte) error {
	if len(settingsSchema) == 0 {
		return nil
	}

	compiled, err := v.getOrCompile(settingsSchema)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "invalid settings schema").WithCause(err)
	}

	raw := []byte(settings)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "settings are not valid JSON").WithCause(err)
	}

	if err := compiled.Validate(doc); err != nil {
		return toFlowError(err)
	}
	return nil
}

// getOrCompile returns a cached compiled schema or compiles and caches a new one.
func (v *JSONSchemaValidator) getOrCompile(schemaBytes []byte) (*jsonschema.Schema, error) {
	key := string(schemaBytes)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Double-check after acquiring write lock.
	if cached, ok := v.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Each dynamic schema gets a unique URL to avoid collisions in the compiler.
	url := fmt.Sprintf("flowcanvas://settings-schema/%d", len(v.cache))

	c := newCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

func newCompiler() *jsonschema.Compiler {
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	return c
}

// toFlowError converts a jsonschema.ValidationError into a FlowError whose
// details list every leaf violation with its instance location.
func toFlowError(err error) *schema.FlowError {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages prefixed with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
