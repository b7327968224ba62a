package layout

import (
	"encoding/json"
	"testing"

	"github.com/rendis/flowcanvas/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_MarshalJSON(t *testing.T) {
	step := &schema.Step{
		Name:        "step_1",
		DisplayName: "Send Email",
		Piece:       "gmail",
		Action:      "send_email",
		Next:        &schema.Step{Name: "step_2"},
	}
	n := Node{ID: "step_1", Position: Position{X: -170, Y: 160}, Kind: NodeKindStep, Step: step}

	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "step_1",
		"position": {"x": -170, "y": 160},
		"type": "step",
		"data": {
			"name": "step_1",
			"displayName": "Send Email",
			"stepType": "SIMPLE",
			"piece": "gmail",
			"action": "send_email"
		}
	}`, string(data))
}

func TestNode_PlaceholderHasNoData(t *testing.T) {
	data, err := json.Marshal(placeholderGraph("root").Nodes[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "placeholder", decoded["type"])
	assert.NotContains(t, decoded, "data")
}

func TestMerge_ConcatenatesWithoutDedup(t *testing.T) {
	a := placeholderGraph("x")
	merged := Merge(a, a)
	assert.Len(t, merged.Nodes, 2)
	assert.Equal(t, merged.Nodes[0].ID, merged.Nodes[1].ID)
}
