package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFlow reads a flow document from disk. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadFlow(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseFlowYAML(data)
	default:
		return ParseFlowJSON(data)
	}
}

// ParseFlowJSON decodes a JSON flow document. Unknown fields are rejected so
// that typos in child slot names do not silently drop whole subtrees.
func ParseFlowJSON(data []byte) (*Flow, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var flow Flow
	if err := dec.Decode(&flow); err != nil {
		return nil, NewError(ErrCodeParse, "invalid flow document").WithCause(err)
	}
	return &flow, nil
}

// ParseFlowYAML decodes a YAML flow document. The YAML tree is re-encoded as
// JSON so both formats share one set of field names and the opaque settings
// payload survives as raw JSON.
func ParseFlowYAML(data []byte) (*Flow, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewError(ErrCodeParse, "invalid flow YAML").WithCause(err)
	}
	if doc == nil {
		return &Flow{}, nil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, NewError(ErrCodeParse, "flow YAML is not representable as JSON").WithCause(err)
	}
	return ParseFlowJSON(raw)
}
