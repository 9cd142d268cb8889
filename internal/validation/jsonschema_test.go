package validation

import (
	"sync"
	"testing"

	"github.com/rendis/logictree/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ageSchema = `{
  "type": "object",
  "required": ["age"],
  "properties": {
    "age": {"type": "number", "minimum": 0},
    "name": {"type": "string"}
  }
}`

func TestNewJSONSchemaValidator(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)
	assert.NotNil(t, v.treeSchema)
}

func TestValidateStructure_NestedViolation(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	result := v.ValidateStructure([]byte(`{"if": [true, {}, {"var": "x"}]}`))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "/if/1", result.Errors[0].Path)
	assert.Equal(t, schema.ErrCodeMalformedTree, result.Errors[0].Code)
}

func TestValidateStructure_Scalars(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	for _, src := range []string{`1`, `"x"`, `true`, `null`, `[]`, `[1, [2, {"var": "a"}]]`} {
		assert.True(t, v.ValidateStructure([]byte(src)).Valid(), src)
	}
}

func TestValidateContext_Valid(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	data := mustParse(t, `{"age": 30, "name": "ana"}`)
	assert.NoError(t, v.ValidateContext(data, []byte(ageSchema)))
}

func TestValidateContext_SingleKeyDocument(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	data := mustParse(t, `{"age": 30}`)
	assert.NoError(t, v.ValidateContext(data, []byte(ageSchema)))
}

func TestValidateContext_Violations(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	err = v.ValidateContext(mustParse(t, `{"age": -1, "name": 3}`), []byte(ageSchema))
	require.Error(t, err)

	var le *schema.LogicError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, schema.ErrCodeValidation, le.Code)
	violations, ok := le.Details["violations"].([]string)
	require.True(t, ok)
	assert.Len(t, violations, 2)
}

func TestValidateContext_MissingRequired(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	err = v.ValidateContext(mustParse(t, `{"name": "ana", "city": "x"}`), []byte(ageSchema))
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))
}

func TestValidateContext_NoSchema(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)
	assert.NoError(t, v.ValidateContext(mustParse(t, `{"a": 1, "b": 2}`), nil))
}

func TestValidateContext_InvalidSchema(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	err = v.ValidateContext(mustParse(t, `{"a": 1, "b": 2}`), []byte(`{not json`))
	require.Error(t, err)
	var le *schema.LogicError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Message, "invalid context schema")
}

func TestValidateContext_CachesCompiledSchema(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	data := mustParse(t, `{"age": 1, "name": "x"}`)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, v.ValidateContext(data, []byte(ageSchema)))
		}()
	}
	wg.Wait()

	v.mu.RLock()
	defer v.mu.RUnlock()
	assert.Len(t, v.cache, 1)
}
