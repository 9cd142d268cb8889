package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/logictree/internal/expressions"
	"github.com/rendis/logictree/internal/observability"
	"github.com/rendis/logictree/internal/workspace"
)

// LogicServerDeps holds the dependencies for creating a LogicServer.
// Nil fields get working defaults.
type LogicServerDeps struct {
	Workspaces *workspace.Manager
	Selector   *expressions.JQEngine
	Spans      observability.SpanManager
	Metrics    observability.MetricsRecorder
	Logger     *slog.Logger
	Version    string
}

// LogicServer wraps an MCP server with logic tree builder tools.
type LogicServer struct {
	workspaces *workspace.Manager
	selector   *expressions.JQEngine
	spans      observability.SpanManager
	metrics    observability.MetricsRecorder
	logger     *slog.Logger
	sessions   *SessionRegistry
	notifier   WorkspaceNotifier
	mcpServer  *server.MCPServer
}

// NewLogicServer creates a new LogicServer with all tools registered.
func NewLogicServer(deps LogicServerDeps) *LogicServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	workspaces := deps.Workspaces
	if workspaces == nil {
		workspaces = workspace.NewManager(nil, logger)
	}
	selector := deps.Selector
	if selector == nil {
		selector = expressions.NewJQEngine()
	}
	var spans observability.SpanManager = observability.NoopSpanManager{}
	if deps.Spans != nil {
		spans = deps.Spans
	}
	var metrics observability.MetricsRecorder = observability.NoopMetrics{}
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &LogicServer{
		workspaces: workspaces,
		selector:   selector,
		spans:      spans,
		metrics:    metrics,
		logger:     logger,
		sessions:   NewSessionRegistry(),
	}

	hooks := &server.Hooks{}
	hooks.AddOnUnregisterSession(func(_ context.Context, session server.ClientSession) {
		s.dropSession(session.SessionID())
	})

	mcpSrv := server.NewMCPServer(
		"logictree",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithHooks(hooks),
		server.WithInstructions("logictree builds and evaluates JSON logic rule trees. Call logic.new to open a workspace, "+
			"logic.add to give it a root operation, logic.insert/logic.update/logic.remove to edit nodes by path, "+
			"logic.validate to check it and logic.evaluate to run it against data. logic.operations lists what is available."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	s.notifier = NewMCPNotifier(mcpSrv, s.sessions, s.dropSession)
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *LogicServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *LogicServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Workspaces returns the workspace manager the tools edit.
func (s *LogicServer) Workspaces() *workspace.Manager {
	return s.workspaces
}

// dropSession forgets the workspaces opened by a disconnected session.
func (s *LogicServer) dropSession(sessionID string) {
	for _, id := range s.sessions.Remove(sessionID) {
		if err := s.workspaces.Delete(id); err == nil {
			s.logger.Debug("workspace released", slog.String("workspace_id", id), slog.String("session_id", sessionID))
		}
	}
}

// tools returns the registered MCP tools as ServerTool entries.
func (s *LogicServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: operationsTool(), Handler: s.instrument("logic.operations", s.handleOperations)},
		{Tool: newTool(), Handler: s.instrument("logic.new", s.handleNew)},
		{Tool: addTool(), Handler: s.instrument("logic.add", s.handleAdd)},
		{Tool: insertTool(), Handler: s.instrument("logic.insert", s.handleInsert)},
		{Tool: updateTool(), Handler: s.instrument("logic.update", s.handleUpdate)},
		{Tool: removeTool(), Handler: s.instrument("logic.remove", s.handleRemove)},
		{Tool: clearTool(), Handler: s.instrument("logic.clear", s.handleClear)},
		{Tool: importTool(), Handler: s.instrument("logic.import", s.handleImport)},
		{Tool: exportTool(), Handler: s.instrument("logic.export", s.handleExport)},
		{Tool: validateTool(), Handler: s.instrument("logic.validate", s.handleValidate)},
		{Tool: evaluateTool(), Handler: s.instrument("logic.evaluate", s.handleEvaluate)},
	}
}

// --- Tool definitions ---

func workspaceParam() mcp.ToolOption {
	return mcp.WithString("workspace_id", mcp.Required(), mcp.Description("ID returned by logic.new"))
}

func pathParam(required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{
		mcp.Description(`Node location as a list of steps: strings are operation tags or keys, integers are operand indexes, e.g. ["if", 0]. Empty for the root`),
	}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithArray("path", opts...)
}

func operationsTool() mcp.Tool {
	return mcp.NewTool("logic.operations",
		mcp.WithDescription("List the available operations grouped by category"),
		mcp.WithString("category",
			mcp.Enum("logic", "data", "numeric", "array", "string"),
			mcp.Description("Only list operations of this category"),
		),
	)
}

func newTool() mcp.Tool {
	return mcp.NewTool("logic.new",
		mcp.WithDescription("Open a workspace holding an empty logic tree"),
		mcp.WithString("logic", mcp.Description("Optional JSON text of an initial tree")),
	)
}

func addTool() mcp.Tool {
	return mcp.NewTool("logic.add",
		mcp.WithDescription("Give an empty workspace its root operation"),
		workspaceParam(),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Operation tag, e.g. if, ==, var")),
	)
}

func insertTool() mcp.Tool {
	return mcp.NewTool("logic.insert",
		mcp.WithDescription("Insert an operation under a node: appended to an operation's operands, or replacing any other node"),
		workspaceParam(),
		pathParam(false),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Operation tag to insert")),
	)
}

func updateTool() mcp.Tool {
	return mcp.NewTool("logic.update",
		mcp.WithDescription("Replace the node at a path with a JSON value"),
		workspaceParam(),
		pathParam(true),
		mcp.WithString("value", mcp.Required(), mcp.Description("JSON text of the new node, e.g. 18, \"age\" or {\"var\": \"age\"}")),
	)
}

func removeTool() mcp.Tool {
	return mcp.NewTool("logic.remove",
		mcp.WithDescription("Remove the node at a path; operands after it shift left"),
		workspaceParam(),
		pathParam(true),
	)
}

func clearTool() mcp.Tool {
	return mcp.NewTool("logic.clear",
		mcp.WithDescription("Reset a workspace to the empty tree"),
		workspaceParam(),
	)
}

func importTool() mcp.Tool {
	return mcp.NewTool("logic.import",
		mcp.WithDescription("Replace a workspace tree with JSON text"),
		workspaceParam(),
		mcp.WithString("logic", mcp.Required(), mcp.Description("JSON text of the tree")),
	)
}

func exportTool() mcp.Tool {
	return mcp.NewTool("logic.export",
		mcp.WithDescription("Export a workspace tree as indented JSON"),
		workspaceParam(),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("logic.validate",
		mcp.WithDescription("Validate a workspace tree or JSON text and list every issue"),
		mcp.WithString("workspace_id", mcp.Description("Workspace to validate")),
		mcp.WithString("logic", mcp.Description("JSON text to validate instead of a workspace")),
	)
}

func evaluateTool() mcp.Tool {
	return mcp.NewTool("logic.evaluate",
		mcp.WithDescription("Evaluate a workspace tree or JSON text against data"),
		mcp.WithString("workspace_id", mcp.Description("Workspace to evaluate")),
		mcp.WithString("logic", mcp.Description("JSON text to evaluate instead of a workspace")),
		mcp.WithObject("data", mcp.Description("Context data the tree reads with var")),
		mcp.WithString("context_query", mcp.Description("jq filter applied to data before evaluation")),
		mcp.WithObject("context_schema", mcp.Description("JSON Schema the (filtered) data must satisfy")),
	)
}
