package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
)

// WorkspaceNotifier pushes workspace change notifications to clients.
type WorkspaceNotifier interface {
	Notify(ctx context.Context, workspaceID string, payload map[string]any) error
}

// MCPNotifier implements WorkspaceNotifier with MCP log notifications sent to
// the session that owns the workspace.
type MCPNotifier struct {
	mcpServer *server.MCPServer
	sessions  *SessionRegistry
	onGone    func(sessionID string)
}

// NewMCPNotifier creates a notifier bound to an MCP server. onGone is called
// with the ID of a session found to be disconnected; nil only forgets the
// session's bindings.
func NewMCPNotifier(mcpServer *server.MCPServer, sessions *SessionRegistry, onGone func(sessionID string)) *MCPNotifier {
	if onGone == nil {
		onGone = func(sessionID string) { sessions.Remove(sessionID) }
	}
	return &MCPNotifier{mcpServer: mcpServer, sessions: sessions, onGone: onGone}
}

// Notify sends payload to the owning session. Best-effort: returns nil if the
// workspace has no connected session.
func (n *MCPNotifier) Notify(_ context.Context, workspaceID string, payload map[string]any) error {
	sessionID, ok := n.sessions.SessionFor(workspaceID)
	if !ok {
		return nil
	}
	err := n.mcpServer.SendNotificationToSpecificClient(sessionID, "notifications/message", payload)
	if errors.Is(err, server.ErrSessionNotFound) {
		// Session went away between lookup and send.
		n.onGone(sessionID)
		return nil
	}
	return err
}
