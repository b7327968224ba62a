package mcp

import (
	"sync"

	"github.com/rendis/flowcanvas/pkg/schema"
)

// FlowRegistry maps MCP session IDs to the last flow the session sent.
// Populated automatically when a tool call includes a flow.
type FlowRegistry struct {
	mu    sync.RWMutex
	flows map[string]*schema.Flow // sessionID → flow
}

// NewFlowRegistry creates a new empty FlowRegistry.
func NewFlowRegistry() *FlowRegistry {
	return &FlowRegistry{flows: make(map[string]*schema.Flow)}
}

// Remember associates a flow with a session, replacing any earlier one.
func (r *FlowRegistry) Remember(sessionID string, flow *schema.Flow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[sessionID] = flow
}

// FlowFor returns the flow last sent by the session, if any.
func (r *FlowRegistry) FlowFor(sessionID string) (*schema.Flow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	flow, ok := r.flows[sessionID]
	return flow, ok
}

// Remove forgets the session's flow. Called when a session disconnects.
func (r *FlowRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flows, sessionID)
}
