// Package workspace holds in-progress logic trees for interactive builders.
// Each workspace owns one tree; every edit goes through the path mutator and
// replaces the stored tree wholesale, so snapshots handed out never change.
package workspace

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rendis/logictree/internal/logging"
	"github.com/rendis/logictree/pkg/logic"
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
)

// Workspace is a snapshot of one builder tree.
type Workspace struct {
	ID        string     `json:"id"`
	Logic     tree.Value `json:"logic"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Manager stores workspaces in memory.
type Manager struct {
	engine *logic.Engine
	logger *slog.Logger

	mu     sync.RWMutex
	spaces map[string]*Workspace
}

// NewManager creates a Manager. A nil engine uses logic.Default().
func NewManager(engine *logic.Engine, logger *slog.Logger) *Manager {
	if engine == nil {
		engine = logic.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		engine: engine,
		logger: logger,
		spaces: make(map[string]*Workspace),
	}
}

// Engine returns the engine the manager edits with.
func (m *Manager) Engine() *logic.Engine {
	return m.engine
}

// New creates a workspace. A nil initial tree starts empty.
func (m *Manager) New(initial tree.Value) Workspace {
	if initial == nil {
		initial = tree.Empty()
	}
	now := time.Now().UTC()
	ws := &Workspace{
		ID:        uuid.New().String(),
		Logic:     initial,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.spaces[ws.ID] = ws
	m.mu.Unlock()

	m.logger.Debug("workspace created", slog.String("workspace_id", ws.ID))
	return *ws
}

// Get returns the current snapshot of a workspace.
func (m *Manager) Get(id string) (Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ws, ok := m.spaces[id]
	if !ok {
		return Workspace{}, notFound(id)
	}
	return *ws, nil
}

// List returns all workspace IDs in lexical order.
func (m *Manager) List() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.spaces))
	for id := range m.spaces {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Delete drops a workspace.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.spaces[id]; !ok {
		return notFound(id)
	}
	delete(m.spaces, id)
	return nil
}

// AddOperation seeds an empty workspace with a root operation carrying the
// catalog's default payload for tag.
func (m *Manager) AddOperation(id, tag string) (Workspace, error) {
	spec, ok := m.engine.Catalog().Lookup(tag)
	if !ok {
		return Workspace{}, schema.NewErrorf(schema.ErrCodeUnknownOperation, "unknown operation %q", tag).
			WithDetails(map[string]any{"tag": tag})
	}
	return m.edit(id, "add", func(root tree.Value) (tree.Value, error) {
		if !tree.IsEmpty(root) {
			return nil, schema.NewError(schema.ErrCodeConflict, "workspace already has a root operation")
		}
		return m.engine.Mutate(root, tree.Path{tree.Key(tag)}, spec.DefaultArgs()), nil
	})
}

// Insert places a new operation for tag under the node at parent. When parent
// is an operation, the child is appended to its operand list; otherwise the
// node at parent is replaced. It returns the snapshot and the child's path.
func (m *Manager) Insert(id string, parent tree.Path, tag string) (Workspace, tree.Path, error) {
	spec, ok := m.engine.Catalog().Lookup(tag)
	if !ok {
		return Workspace{}, nil, schema.NewErrorf(schema.ErrCodeUnknownOperation, "unknown operation %q", tag).
			WithDetails(map[string]any{"tag": tag})
	}
	child := tree.Operation{Tag: tag, Args: spec.DefaultArgs()}

	var at tree.Path
	ws, err := m.edit(id, "insert", func(root tree.Value) (tree.Value, error) {
		node, ok := m.engine.Get(root, parent)
		if !ok {
			return nil, pathNotFound(parent)
		}

		op, isOp := node.(tree.Operation)
		if !isOp {
			at = parent
			return m.engine.Mutate(root, parent, child), nil
		}

		payload := parent.Append(tree.Key(op.Tag))
		operands := op.Operands()
		if _, listed := op.Args.(tree.Array); !listed {
			// A bare payload becomes the first operand of a list.
			root = m.engine.Mutate(root, payload, tree.Array{tree.OrNull(op.Args)})
		}
		at = payload.Append(tree.Index(len(operands)))
		return m.engine.Mutate(root, at, child), nil
	})
	if err != nil {
		return Workspace{}, nil, err
	}
	return ws, at, nil
}

// Update replaces the node at path with value. The path must resolve, except
// for one past the end of an operand list, which appends.
func (m *Manager) Update(id string, path tree.Path, value tree.Value) (Workspace, error) {
	return m.edit(id, "update", func(root tree.Value) (tree.Value, error) {
		if _, ok := m.engine.Get(root, path); !ok && !appendable(root, path) {
			return nil, pathNotFound(path)
		}
		return m.engine.Mutate(root, path, value), nil
	})
}

// Remove deletes the node at path. The empty path clears the workspace.
func (m *Manager) Remove(id string, path tree.Path) (Workspace, error) {
	return m.edit(id, "remove", func(root tree.Value) (tree.Value, error) {
		if _, ok := m.engine.Get(root, path); !ok {
			return nil, pathNotFound(path)
		}
		return m.engine.RemoveAt(root, path), nil
	})
}

// Clear resets the workspace to the empty tree.
func (m *Manager) Clear(id string) (Workspace, error) {
	return m.edit(id, "clear", func(tree.Value) (tree.Value, error) {
		return tree.Empty(), nil
	})
}

// Import replaces the workspace tree with JSON text. The text only has to
// parse; validity is checked separately.
func (m *Manager) Import(id string, raw []byte) (Workspace, error) {
	root, err := tree.Parse(raw)
	if err != nil {
		return Workspace{}, err
	}
	return m.edit(id, "import", func(tree.Value) (tree.Value, error) {
		return root, nil
	})
}

// Export renders the workspace tree as indented JSON.
func (m *Manager) Export(id string) ([]byte, error) {
	ws, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return tree.MarshalIndent(ws.Logic)
}

// Validate checks the workspace tree.
func (m *Manager) Validate(id string) (*schema.ValidationResult, error) {
	ws, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return m.engine.Validate(ws.Logic), nil
}

// Evaluate runs the workspace tree against data. Invalid trees are rejected
// before evaluation.
func (m *Manager) Evaluate(ctx context.Context, id string, data tree.Value) (tree.Value, error) {
	ws, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, schema.NewError(schema.ErrCodeExecution, "evaluation cancelled").WithCause(err)
	}
	if result := m.engine.Validate(ws.Logic); !result.Valid() {
		return nil, result.ToError()
	}

	out, err := m.engine.Evaluate(ws.Logic, data)
	if err != nil {
		logging.LogWith(logging.WithWorkspaceID(ctx, id), m.logger).
			Debug("evaluation failed", slog.String("code", schema.CodeOf(err)))
		return nil, err
	}
	return out, nil
}

// edit applies fn to the stored tree under the write lock.
func (m *Manager) edit(id, action string, fn func(tree.Value) (tree.Value, error)) (Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.spaces[id]
	if !ok {
		return Workspace{}, notFound(id)
	}
	next, err := fn(ws.Logic)
	if err != nil {
		return Workspace{}, err
	}

	updated := &Workspace{
		ID:        ws.ID,
		Logic:     next,
		CreatedAt: ws.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	m.spaces[id] = updated

	m.logger.Debug("workspace updated",
		slog.String("workspace_id", id),
		slog.String("action", action),
	)
	return *updated, nil
}

// appendable reports whether path addresses the slot one past the end of an
// existing array.
func appendable(root tree.Value, path tree.Path) bool {
	parent, last, ok := path.Parent()
	if !ok {
		return false
	}
	i, ok := last.AsIndex()
	if !ok {
		return false
	}
	node, ok := tree.Get(root, parent)
	if !ok {
		return false
	}
	arr, ok := node.(tree.Array)
	return ok && i == len(arr)
}

func notFound(id string) *schema.LogicError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "workspace %q not found", id)
}

func pathNotFound(p tree.Path) *schema.LogicError {
	return schema.NewError(schema.ErrCodeNotFound, "path does not resolve").WithPath(p.String())
}
