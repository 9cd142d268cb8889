package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogicServer(t *testing.T) {
	s := NewLogicServer(LogicServerDeps{})
	require.NotNil(t, s)
	assert.NotNil(t, s.mcpServer)
	assert.NotNil(t, s.logger)
	assert.NotNil(t, s.workspaces)
	assert.NotNil(t, s.selector)
	assert.NotNil(t, s.notifier)
}

func TestToolRegistration(t *testing.T) {
	s := NewLogicServer(LogicServerDeps{})

	tools := s.mcpServer.ListTools()
	require.Len(t, tools, 11)

	expectedTools := []string{
		"logic.operations",
		"logic.new",
		"logic.add",
		"logic.insert",
		"logic.update",
		"logic.remove",
		"logic.clear",
		"logic.import",
		"logic.export",
		"logic.validate",
		"logic.evaluate",
	}
	for _, name := range expectedTools {
		tool := s.mcpServer.GetTool(name)
		assert.NotNil(t, tool, "tool %s should be registered", name)
	}
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		toolName    string
		description string
		required    []string
	}{
		{"logic.operations", "List the available operations grouped by category", nil},
		{"logic.new", "Open a workspace holding an empty logic tree", nil},
		{"logic.add", "Give an empty workspace its root operation", []string{"workspace_id", "operation"}},
		{"logic.update", "Replace the node at a path with a JSON value", []string{"workspace_id", "path", "value"}},
		{"logic.remove", "Remove the node at a path; operands after it shift left", []string{"workspace_id", "path"}},
		{"logic.export", "Export a workspace tree as indented JSON", []string{"workspace_id"}},
	}

	s := NewLogicServer(LogicServerDeps{})

	for _, tc := range tests {
		t.Run(tc.toolName, func(t *testing.T) {
			tool := s.mcpServer.GetTool(tc.toolName)
			require.NotNil(t, tool)
			assert.Equal(t, tc.description, tool.Tool.Description)
			assert.ElementsMatch(t, tc.required, tool.Tool.InputSchema.Required)
		})
	}
}
