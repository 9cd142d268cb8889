package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/logictree/internal/logging"
	"github.com/rendis/logictree/internal/workspace"
	"github.com/rendis/logictree/pkg/catalog"
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
	"go.opentelemetry.io/otel/attribute"
)

// toolFunc is a tool body. A returned error becomes a tool error result; a
// string is returned as text; anything else is marshalled to JSON.
type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// instrument wraps a tool body with correlation logging, a span and metrics.
func (s *LogicServer) instrument(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		workspaceID := req.GetString("workspace_id", "")
		ctx = logging.WithIDs(ctx, workspaceID, name, uuid.New().String())
		if workspaceID != "" {
			if _, err := s.workspaces.Get(workspaceID); err == nil {
				s.captureSession(ctx, workspaceID)
			}
		}

		ctx, span := s.spans.StartToolSpan(ctx, name, workspaceID)
		start := time.Now()
		out, err := fn(ctx, req)
		s.metrics.RecordToolCall(ctx, name, time.Since(start), err)
		s.spans.EndSpanWithError(span, err)

		log := logging.LogWith(ctx, s.logger)
		if err != nil {
			log.Debug("tool failed", slog.String("error", err.Error()))
			return mcp.NewToolResultError(err.Error()), nil
		}
		log.Debug("tool completed", slog.Duration("duration", time.Since(start)))

		if text, ok := out.(string); ok {
			return mcp.NewToolResultText(text), nil
		}
		return marshalResult(out)
	}
}

// handleOperations lists the catalog, optionally filtered by category.
func (s *LogicServer) handleOperations(_ context.Context, req mcp.CallToolRequest) (any, error) {
	cat := s.workspaces.Engine().Catalog()

	categories := catalog.Categories()
	if c := req.GetString("category", ""); c != "" {
		categories = []catalog.Category{catalog.Category(c)}
	}

	groups := make([]map[string]any, 0, len(categories))
	for _, c := range categories {
		ops := cat.ByCategory(c)
		if len(ops) == 0 {
			continue
		}
		groups = append(groups, map[string]any{
			"category":   c,
			"label":      catalog.CategoryLabel(c),
			"operations": ops,
		})
	}
	return map[string]any{"categories": groups}, nil
}

// handleNew opens a workspace, optionally seeded with a tree.
func (s *LogicServer) handleNew(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	var initial tree.Value
	if raw := req.GetString("logic", ""); raw != "" {
		v, err := tree.ParseString(raw)
		if err != nil {
			return nil, err
		}
		initial = v
	}

	ws := s.workspaces.New(initial)
	s.captureSession(ctx, ws.ID)
	return workspaceResult(ws, nil), nil
}

// handleAdd seeds the root operation.
func (s *LogicServer) handleAdd(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("workspace_id")
	if err != nil {
		return nil, requiredParam("workspace_id")
	}
	tag, err := req.RequireString("operation")
	if err != nil {
		return nil, requiredParam("operation")
	}

	ws, err := s.workspaces.AddOperation(id, tag)
	if err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, id, "add")
	return workspaceResult(ws, nil), nil
}

// handleInsert adds an operation under a node.
func (s *LogicServer) handleInsert(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("workspace_id")
	if err != nil {
		return nil, requiredParam("workspace_id")
	}
	tag, err := req.RequireString("operation")
	if err != nil {
		return nil, requiredParam("operation")
	}
	path, err := pathArg(req, false)
	if err != nil {
		return nil, err
	}

	ws, at, err := s.workspaces.Insert(id, path, tag)
	if err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, id, "insert")
	return workspaceResult(ws, at), nil
}

// handleUpdate replaces the node at a path.
func (s *LogicServer) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("workspace_id")
	if err != nil {
		return nil, requiredParam("workspace_id")
	}
	path, err := pathArg(req, true)
	if err != nil {
		return nil, err
	}
	raw, err := req.RequireString("value")
	if err != nil {
		return nil, requiredParam("value")
	}
	value, err := tree.ParseString(raw)
	if err != nil {
		return nil, err
	}

	ws, err := s.workspaces.Update(id, path, value)
	if err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, id, "update")
	return workspaceResult(ws, path), nil
}

// handleRemove deletes the node at a path.
func (s *LogicServer) handleRemove(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("workspace_id")
	if err != nil {
		return nil, requiredParam("workspace_id")
	}
	path, err := pathArg(req, true)
	if err != nil {
		return nil, err
	}

	ws, err := s.workspaces.Remove(id, path)
	if err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, id, "remove")
	return workspaceResult(ws, nil), nil
}

// handleClear empties a workspace.
func (s *LogicServer) handleClear(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("workspace_id")
	if err != nil {
		return nil, requiredParam("workspace_id")
	}

	ws, err := s.workspaces.Clear(id)
	if err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, id, "clear")
	return workspaceResult(ws, nil), nil
}

// handleImport replaces a workspace tree with JSON text.
func (s *LogicServer) handleImport(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("workspace_id")
	if err != nil {
		return nil, requiredParam("workspace_id")
	}
	raw, err := req.RequireString("logic")
	if err != nil {
		return nil, requiredParam("logic")
	}

	ws, err := s.workspaces.Import(id, []byte(raw))
	if err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, id, "import")

	result := workspaceResult(ws, nil)
	result["validation"] = s.workspaces.Engine().Validate(ws.Logic)
	return result, nil
}

// handleExport renders a workspace tree as indented JSON text.
func (s *LogicServer) handleExport(_ context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("workspace_id")
	if err != nil {
		return nil, requiredParam("workspace_id")
	}

	out, err := s.workspaces.Export(id)
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

// handleValidate reports every issue in a workspace tree or in JSON text.
func (s *LogicServer) handleValidate(_ context.Context, req mcp.CallToolRequest) (any, error) {
	var result *schema.ValidationResult
	switch id, raw := req.GetString("workspace_id", ""), req.GetString("logic", ""); {
	case id != "":
		r, err := s.workspaces.Validate(id)
		if err != nil {
			return nil, err
		}
		result = r
	case raw != "":
		result = s.workspaces.Engine().ValidateJSON([]byte(raw))
	default:
		return nil, schema.NewError(schema.ErrCodeValidation, "one of workspace_id or logic is required")
	}

	return map[string]any{
		"valid":    result.Valid(),
		"errors":   issuesOrEmpty(result.Errors),
		"warnings": issuesOrEmpty(result.Warnings),
	}, nil
}

// handleEvaluate runs a tree against data, optionally carving the data with
// a jq query and checking it against a JSON Schema first.
func (s *LogicServer) handleEvaluate(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id := req.GetString("workspace_id", "")
	raw := req.GetString("logic", "")
	if id == "" && raw == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "one of workspace_id or logic is required")
	}

	data, err := tree.FromAny(req.GetArguments()["data"])
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "invalid data").WithCause(err)
	}

	if query := req.GetString("context_query", ""); query != "" {
		if data, err = s.selector.Select(ctx, query, data); err != nil {
			return nil, err
		}
		s.spans.AddSpanEvent(ctx, "context.selected", attribute.String("query", query))
	}

	engine := s.workspaces.Engine()
	if contextSchema := mcp.ParseStringMap(req, "context_schema", nil); contextSchema != nil {
		schemaJSON, err := json.Marshal(contextSchema)
		if err != nil {
			return nil, schema.NewError(schema.ErrCodeValidation, "invalid context_schema").WithCause(err)
		}
		if err := engine.ValidateContext(data, schemaJSON); err != nil {
			return nil, err
		}
	}

	ctx, span := s.spans.StartEvaluateSpan(ctx, id)
	start := time.Now()
	var out tree.Value
	if id != "" {
		out, err = s.workspaces.Evaluate(ctx, id, data)
	} else {
		out, err = s.evaluateText(raw, data)
	}
	s.metrics.RecordEvaluation(ctx, time.Since(start), err)
	s.spans.EndSpanWithError(span, err)
	if err != nil {
		return nil, err
	}

	return map[string]any{"result": out}, nil
}

func (s *LogicServer) evaluateText(raw string, data tree.Value) (tree.Value, error) {
	engine := s.workspaces.Engine()
	if result := engine.ValidateJSON([]byte(raw)); !result.Valid() {
		return nil, result.ToError()
	}
	root, err := tree.ParseString(raw)
	if err != nil {
		return nil, err
	}
	return engine.Evaluate(root, data)
}

// --- Internal helpers ---

// pathArg decodes the "path" argument. A missing optional path is the root.
func pathArg(req mcp.CallToolRequest, required bool) (tree.Path, error) {
	v, ok := req.GetArguments()["path"]
	if !ok || v == nil {
		if required {
			return nil, requiredParam("path")
		}
		return nil, nil
	}
	steps, ok := v.([]any)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "path must be an array, got %T", v)
	}
	return tree.PathFromJSON(steps)
}

func requiredParam(name string) error {
	return schema.NewErrorf(schema.ErrCodeValidation, "%s is required", name)
}

func workspaceResult(ws workspace.Workspace, at tree.Path) map[string]any {
	out := map[string]any{
		"workspace_id": ws.ID,
		"logic":        ws.Logic,
	}
	if at != nil {
		out["path"] = at
	}
	return out
}

func issuesOrEmpty(issues []schema.ValidationIssue) []schema.ValidationIssue {
	if issues == nil {
		return []schema.ValidationIssue{}
	}
	return issues
}

// captureSession records which MCP session owns a workspace.
func (s *LogicServer) captureSession(ctx context.Context, workspaceID string) {
	if session := server.ClientSessionFromContext(ctx); session != nil {
		s.sessions.Register(workspaceID, session.SessionID())
	}
}

// notifyChanged tells the owning session that a workspace tree changed.
func (s *LogicServer) notifyChanged(ctx context.Context, workspaceID, action string) {
	err := s.notifier.Notify(ctx, workspaceID, map[string]any{
		"level":  "info",
		"logger": "logictree",
		"data": map[string]any{
			"workspace_id": workspaceID,
			"action":       action,
		},
	})
	if err != nil {
		logging.LogWith(ctx, s.logger).Debug("change notification failed", slog.String("error", err.Error()))
	}
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
