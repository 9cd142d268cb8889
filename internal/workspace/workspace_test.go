package workspace

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) tree.Value {
	t.Helper()
	v, err := tree.ParseString(s)
	require.NoError(t, err)
	return v
}

func assertTree(t *testing.T, want string, got tree.Value) {
	t.Helper()
	if !tree.Equal(mustParse(t, want), got) {
		b, _ := tree.Marshal(got)
		t.Fatalf("tree mismatch:\nwant %s\ngot  %s", want, b)
	}
}

func TestNew(t *testing.T) {
	m := NewManager(nil, nil)

	ws := m.New(nil)
	_, err := uuid.Parse(ws.ID)
	require.NoError(t, err)
	assert.True(t, tree.IsEmpty(ws.Logic))
	assert.False(t, ws.CreatedAt.IsZero())

	seeded := m.New(mustParse(t, `{"var": "x"}`))
	assert.NotEqual(t, ws.ID, seeded.ID)
	assertTree(t, `{"var": "x"}`, seeded.Logic)

	assert.Len(t, m.List(), 2)
}

func TestGet_NotFound(t *testing.T) {
	m := NewManager(nil, nil)
	_, err := m.Get("nope")
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))

	_, err = m.AddOperation("nope", "if")
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))
}

func TestAddOperation(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(nil).ID

	ws, err := m.AddOperation(id, "if")
	require.NoError(t, err)
	assertTree(t, `{"if": [true, "", ""]}`, ws.Logic)

	_, err = m.AddOperation(id, "and")
	assert.True(t, schema.IsCode(err, schema.ErrCodeConflict))

	other := m.New(nil).ID
	ws, err = m.AddOperation(other, "var")
	require.NoError(t, err)
	assertTree(t, `{"var": ""}`, ws.Logic)

	_, err = m.AddOperation(other, "nope")
	assert.True(t, schema.IsCode(err, schema.ErrCodeUnknownOperation))
}

func TestInsert_AppendsUnderOperation(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(nil).ID
	_, err := m.AddOperation(id, "and")
	require.NoError(t, err)

	ws, at, err := m.Insert(id, nil, "==")
	require.NoError(t, err)
	assert.Equal(t, "/and/0", at.String())
	assertTree(t, `{"and": [{"==": []}]}`, ws.Logic)

	ws, at, err = m.Insert(id, nil, "var")
	require.NoError(t, err)
	assert.Equal(t, "/and/1", at.String())
	assertTree(t, `{"and": [{"==": []}, {"var": ""}]}`, ws.Logic)

	ws, at, err = m.Insert(id, tree.Path{tree.Key("and"), tree.Index(0)}, "var")
	require.NoError(t, err)
	assert.Equal(t, "/and/0/==/0", at.String())
	assertTree(t, `{"and": [{"==": [{"var": ""}]}, {"var": ""}]}`, ws.Logic)
}

func TestInsert_ReplacesSlot(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(nil).ID
	_, err := m.AddOperation(id, "if")
	require.NoError(t, err)

	ws, at, err := m.Insert(id, tree.Path{tree.Key("if"), tree.Index(1)}, "cat")
	require.NoError(t, err)
	assert.Equal(t, "/if/1", at.String())
	assertTree(t, `{"if": [true, {"cat": []}, ""]}`, ws.Logic)
}

func TestInsert_BarePayloadBecomesList(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(mustParse(t, `{"var": "x"}`)).ID

	ws, at, err := m.Insert(id, nil, "cat")
	require.NoError(t, err)
	assert.Equal(t, "/var/1", at.String())
	assertTree(t, `{"var": ["x", {"cat": []}]}`, ws.Logic)
}

func TestInsert_Errors(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(mustParse(t, `{"and": []}`)).ID

	_, _, err := m.Insert(id, tree.Path{tree.Key("or")}, "var")
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))

	_, _, err = m.Insert(id, nil, "nope")
	assert.True(t, schema.IsCode(err, schema.ErrCodeUnknownOperation))
}

func TestUpdate(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(mustParse(t, `{"if": [true, "", ""]}`)).ID

	ws, err := m.Update(id, tree.Path{tree.Key("if"), tree.Index(0)},
		tree.Op(">", tree.Op("var", tree.String("age")), tree.Number(18)))
	require.NoError(t, err)
	assertTree(t, `{"if": [{">": [{"var": ["age"]}, 18]}, "", ""]}`, ws.Logic)

	ws, err = m.Update(id, tree.Path{tree.Key("if"), tree.Index(3)}, tree.String("extra"))
	require.NoError(t, err, "one past the end appends")
	assertTree(t, `{"if": [{">": [{"var": ["age"]}, 18]}, "", "", "extra"]}`, ws.Logic)

	_, err = m.Update(id, tree.Path{tree.Key("if"), tree.Index(9)}, tree.Null{})
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))

	_, err = m.Update(id, tree.Path{tree.Key("and")}, tree.Null{})
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))

	ws, err = m.Update(id, nil, tree.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, tree.Bool(true), ws.Logic)
}

func TestRemoveAndClear(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(mustParse(t, `{"and": [true, {"var": "x"}, false]}`)).ID

	ws, err := m.Remove(id, tree.Path{tree.Key("and"), tree.Index(1)})
	require.NoError(t, err)
	assertTree(t, `{"and": [true, false]}`, ws.Logic)

	_, err = m.Remove(id, tree.Path{tree.Key("and"), tree.Index(5)})
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))

	ws, err = m.Clear(id)
	require.NoError(t, err)
	assert.True(t, tree.IsEmpty(ws.Logic))
}

func TestSnapshotsAreStable(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(mustParse(t, `{"and": [true]}`)).ID

	before, err := m.Get(id)
	require.NoError(t, err)

	_, err = m.Update(id, tree.Path{tree.Key("and"), tree.Index(0)}, tree.Bool(false))
	require.NoError(t, err)

	assertTree(t, `{"and": [true]}`, before.Logic)
}

func TestImportExport(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(nil).ID

	ws, err := m.Import(id, []byte(`{"cat": ["a", {"var": "b"}]}`))
	require.NoError(t, err)
	assertTree(t, `{"cat": ["a", {"var": "b"}]}`, ws.Logic)

	out, err := m.Export(id)
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n")
	assertTree(t, `{"cat": ["a", {"var": "b"}]}`, mustParse(t, string(out)))

	_, err = m.Import(id, []byte(`{"cat": [`))
	assert.True(t, schema.IsCode(err, schema.ErrCodeParse))

	ws, err = m.Get(id)
	require.NoError(t, err)
	assertTree(t, `{"cat": ["a", {"var": "b"}]}`, ws.Logic)

	_, err = m.Export("nope")
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))
}

func TestValidate(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(mustParse(t, `{"and": [{"a": 1, "b": 2}]}`)).ID

	result, err := m.Validate(id)
	require.NoError(t, err)
	assert.False(t, result.Valid())
	assert.True(t, result.HasCode(schema.ErrCodeMalformedTree))
}

func TestEvaluate(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(mustParse(t, `{"if": [{">=": [{"var": "age"}, 18]}, "adult", "minor"]}`)).ID

	out, err := m.Evaluate(context.Background(), id, mustParse(t, `{"age": 20}`))
	require.NoError(t, err)
	assert.Equal(t, tree.String("adult"), out)

	bad := m.New(mustParse(t, `{"nope": []}`)).ID
	_, err = m.Evaluate(context.Background(), bad, tree.Null{})
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))

	div := m.New(mustParse(t, `{"/": [1, 0]}`)).ID
	_, err = m.Evaluate(context.Background(), div, tree.Null{})
	assert.True(t, schema.IsCode(err, schema.ErrCodeDivisionByZero))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Evaluate(ctx, id, tree.Null{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelete(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(nil).ID

	require.NoError(t, m.Delete(id))
	assert.True(t, schema.IsCode(m.Delete(id), schema.ErrCodeNotFound))
	assert.Empty(t, m.List())
}

func TestConcurrentEdits(t *testing.T) {
	m := NewManager(nil, nil)
	id := m.New(mustParse(t, `{"and": []}`)).ID

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Insert(id, nil, "var")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ws, err := m.Get(id)
	require.NoError(t, err)
	node, ok := tree.Get(ws.Logic, tree.Path{tree.Key("and")})
	require.True(t, ok)
	assert.Len(t, node, 32)
}
