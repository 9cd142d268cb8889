package mcp

import (
	"sort"
	"sync"
)

// SessionRegistry maps workspace IDs to the MCP session that opened or last
// touched them. Tools bind a workspace_id only once the workspace exists.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]string // workspaceID → sessionID
}

// NewSessionRegistry creates a new empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]string)}
}

// Register associates a workspace with a session, replacing any earlier owner.
func (r *SessionRegistry) Register(workspaceID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[workspaceID] = sessionID
}

// SessionFor returns the session owning the workspace, if any.
func (r *SessionRegistry) SessionFor(workspaceID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.sessions[workspaceID]
	return sid, ok
}

// Remove drops every workspace owned by the session and returns their IDs
// in lexical order.
func (r *SessionRegistry) Remove(sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for wid, sid := range r.sessions {
		if sid == sessionID {
			delete(r.sessions, wid)
			removed = append(removed, wid)
		}
	}
	sort.Strings(removed)
	return removed
}
