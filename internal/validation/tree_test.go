package validation

import (
	"testing"

	"github.com/rendis/logictree/pkg/catalog"
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

func newValidator(t *testing.T) *TreeValidator {
	t.Helper()
	v, err := NewTreeValidator(nil)
	require.NoError(t, err)
	return v
}

// mockLookup implements OperationLookup for tests.
type mockLookup map[string]catalog.OperationSpec

func (m mockLookup) Lookup(tag string) (catalog.OperationSpec, bool) {
	s, ok := m[tag]
	return s, ok
}

// --- Semantic stage ---

func TestValidate_ValidTrees(t *testing.T) {
	v := newValidator(t)
	for _, src := range []string{
		`{"var": "x"}`,
		`{"if": [{">": [{"var": "age"}, 18]}, "Adult", "Minor"]}`,
		`{"+": []}`,
		`42`,
		`"text"`,
		`null`,
		`[1, {"var": "a"}]`,
		`{"missing_some": ""}`,
		`{"map": [{"var": "items"}, {"*": [{"var": ""}, 2]}]}`,
	} {
		t.Run(src, func(t *testing.T) {
			result := v.Validate(mustParse(t, src))
			assert.True(t, result.Valid(), "errors: %v", result.Errors)
			assert.Empty(t, result.Warnings)
		})
	}
}

func TestValidate_MultiKeyObject(t *testing.T) {
	result := newValidator(t).Validate(mustParse(t, `{"a": 1, "b": 2}`))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "/", result.Errors[0].Path)
	assert.Equal(t, schema.ErrCodeMalformedTree, result.Errors[0].Code)
}

func TestValidate_EmptyTree(t *testing.T) {
	v := newValidator(t)
	assert.False(t, v.IsValid(tree.Empty()))
	assert.False(t, v.IsValid(nil))
}

func TestValidate_UnknownOperation(t *testing.T) {
	result := newValidator(t).Validate(mustParse(t, `{"foo": []}`))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, schema.ErrCodeUnknownOperation, result.Errors[0].Code)
	assert.Equal(t, "/", result.Errors[0].Path)
	assert.Contains(t, result.Errors[0].Message, "foo")
}

func TestValidate_CollectsEveryIssue(t *testing.T) {
	root := mustParse(t, `{"and": [{"foo": [1]}, {"a": 1, "b": {"bar": []}}, {"var": "ok"}]}`)
	result := newValidator(t).Validate(root)

	require.Len(t, result.Errors, 3)
	assert.Equal(t, schema.ValidationIssue{
		Path: "/and/0", Code: schema.ErrCodeUnknownOperation,
		Message: `unknown operation "foo"`, Severity: schema.SeverityError,
	}, result.Errors[0])
	assert.Equal(t, "/and/1", result.Errors[1].Path)
	assert.Equal(t, schema.ErrCodeMalformedTree, result.Errors[1].Code)
	assert.Equal(t, "/and/1/b", result.Errors[2].Path)
	assert.Equal(t, schema.ErrCodeUnknownOperation, result.Errors[2].Code)
}

func TestValidate_UnknownOperationPayloadStillWalked(t *testing.T) {
	result := newValidator(t).Validate(mustParse(t, `{"foo": [{"bar": 1}]}`))
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "/foo/0", result.Errors[1].Path)
}

func TestValidate_ShapeWarnings(t *testing.T) {
	tests := []struct {
		src  string
		path string
	}{
		{`{"==": [1]}`, "/"},
		{`{"!": []}`, "/"},
		{`{"/": [1, 2, 3]}`, "/"},
		{`{"and": [true, {"length": [1, 2]}]}`, "/and/1"},
		{`{"missing_some": ["a", ["x", "y"]]}`, "/missing_some/0"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			result := newValidator(t).Validate(mustParse(t, tt.src))
			assert.True(t, result.Valid(), "shape problems are warnings only")
			require.Len(t, result.Warnings, 1)
			assert.Equal(t, schema.ErrCodeShapeMismatch, result.Warnings[0].Code)
			assert.Equal(t, tt.path, result.Warnings[0].Path)
		})
	}
}

func TestValidate_MissingSomeWithComputedMinimum(t *testing.T) {
	result := newValidator(t).Validate(mustParse(t, `{"missing_some": [{"var": "n"}, ["a"]]}`))
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
}

func TestValidate_CustomLookup(t *testing.T) {
	v, err := NewTreeValidator(mockLookup{
		"upper": {Tag: "upper", MinArgs: 1, MaxArgs: 1},
	})
	require.NoError(t, err)

	assert.True(t, v.IsValid(mustParse(t, `{"upper": ["abc"]}`)))
	assert.False(t, v.IsValid(mustParse(t, `{"var": "x"}`)))
}

func TestValidate_ToError(t *testing.T) {
	result := newValidator(t).Validate(mustParse(t, `{"foo": []}`))
	err := result.ToError()
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))
	assert.Contains(t, err.Error(), "foo")
}

// --- Raw JSON pipeline ---

func TestValidateJSON_Valid(t *testing.T) {
	result := newValidator(t).ValidateJSON([]byte(`{"if": [true, "a", "b"]}`))
	assert.True(t, result.Valid())
}

func TestValidateJSON_SyntaxError(t *testing.T) {
	result := newValidator(t).ValidateJSON([]byte(`{"if": [true,`))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, schema.ErrCodeParse, result.Errors[0].Code)
}

func TestValidateJSON_StructuralReportsMalformedOnce(t *testing.T) {
	result := newValidator(t).ValidateJSON([]byte(`{"a": 1, "b": 2}`))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, schema.ErrCodeMalformedTree, result.Errors[0].Code)
	assert.Equal(t, "/", result.Errors[0].Path)
}

func TestValidateJSON_MergesSemanticIssues(t *testing.T) {
	result := newValidator(t).ValidateJSON([]byte(`{"and": [{"a": 1, "b": 2}, {"foo": []}]}`))
	require.Len(t, result.Errors, 2)

	byCode := map[string]string{}
	for _, issue := range result.Errors {
		byCode[issue.Code] = issue.Path
	}
	assert.Equal(t, "/and/0", byCode[schema.ErrCodeMalformedTree])
	assert.Equal(t, "/and/1", byCode[schema.ErrCodeUnknownOperation])
}

func TestValidateJSON_EmptyObject(t *testing.T) {
	result := newValidator(t).ValidateJSON([]byte(`{}`))
	assert.False(t, result.Valid())
	assert.True(t, result.HasCode(schema.ErrCodeMalformedTree))
}
