package expressions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScope(t *testing.T) {
	samples := map[string]any{
		"trigger": map[string]any{"id": "t-1"},
		"step_1":  map[string]any{"items": []any{"a"}},
	}
	s := NewScope(samples, "trigger", map[string]any{"env": "dev"})

	assert.Equal(t, map[string]any{"id": "t-1"}, s.Trigger)

	// Samples are copied.
	samples["step_1"].(map[string]any)["items"].([]any)[0] = "mutated"
	assert.Equal(t, []any{"a"}, s.Steps["step_1"].(map[string]any)["items"])

	data := s.Data()
	assert.Equal(t, s.Trigger, data["trigger"])
	assert.Equal(t, map[string]any{"env": "dev"}, data["flow"])
	require.Contains(t, data["steps"], "step_1")
}

func TestScope_NilInputs(t *testing.T) {
	s := NewScope(nil, "trigger", nil)
	assert.NotNil(t, s.Steps)
	assert.Nil(t, s.Trigger)
	assert.Equal(t, map[string]any{}, s.Data()["flow"])
}

func TestScope_Restrict(t *testing.T) {
	s := NewScope(map[string]any{"trigger": 1, "a": 2, "b": 3}, "trigger", nil)
	r := s.Restrict([]string{"trigger", "a", "missing"})

	assert.Equal(t, map[string]any{"trigger": 1, "a": 2}, r.Steps)
	assert.Equal(t, 1, r.Trigger)
	assert.Len(t, s.Steps, 3, "original untouched")
}
