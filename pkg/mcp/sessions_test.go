package mcp

import (
	"testing"

	"github.com/rendis/flowcanvas/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func TestFlowRegistry_RememberAndLookup(t *testing.T) {
	r := NewFlowRegistry()
	flow := &schema.Flow{DisplayName: "Orders"}

	r.Remember("session-abc", flow)
	got, ok := r.FlowFor("session-abc")
	assert.True(t, ok)
	assert.Same(t, flow, got)
}

func TestFlowRegistry_NotFound(t *testing.T) {
	r := NewFlowRegistry()

	_, ok := r.FlowFor("unknown")
	assert.False(t, ok)
}

func TestFlowRegistry_Overwrite(t *testing.T) {
	r := NewFlowRegistry()

	r.Remember("session-1", &schema.Flow{DisplayName: "old"})
	r.Remember("session-1", &schema.Flow{DisplayName: "new"})

	got, ok := r.FlowFor("session-1")
	assert.True(t, ok)
	assert.Equal(t, "new", got.DisplayName)
}

func TestFlowRegistry_Remove(t *testing.T) {
	r := NewFlowRegistry()

	r.Remember("session-abc", &schema.Flow{})
	r.Remember("session-xyz", &schema.Flow{})

	r.Remove("session-abc")

	_, ok := r.FlowFor("session-abc")
	assert.False(t, ok, "session-abc should be removed")

	_, ok = r.FlowFor("session-xyz")
	assert.True(t, ok, "session-xyz should still exist")
}
