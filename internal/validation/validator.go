package validation

import (
	"encoding/json"

	"github.com/rendis/flowcanvas/pkg/schema"
)

// Validator checks flow documents before they reach the canvas.
// Uses JSON Schema Draft 2020-12 for document and settings validation.
type Validator interface {
	ValidateFlow(flow *schema.Flow) error
	ValidateSettings(settings json.RawMessage, settingsSchema []byte) error
}
