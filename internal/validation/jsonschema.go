package validation

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const treeSchemaURL = "https://logictree.dev/schemas/tree.json"

// treeSchemaJSON asserts the structural shape of a logic tree: every object at
// any depth carries exactly one key. Embedded as a constant to avoid
// filesystem dependencies.
const treeSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://logictree.dev/schemas/tree.json",
  "$ref": "#/$defs/node",
  "$defs": {
    "node": {
      "type": ["null", "boolean", "number", "string", "array", "object"],
      "items": { "$ref": "#/$defs/node" },
      "minProperties": 1,
      "maxProperties": 1,
      "additionalProperties": { "$ref": "#/$defs/node" }
    }
  }
}`

// JSONSchemaValidator runs the structural tree schema and validates context
// documents against caller-supplied schemas. It is safe for concurrent use.
type JSONSchemaValidator struct {
	treeSchema *jsonschema.Schema

	// mu guards the cache of compiled context schemas.
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator creates a JSONSchemaValidator with the tree schema pre-compiled.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := newCompiler()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(treeSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal tree schema: %w", err)
	}
	if err := c.AddResource(treeSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add tree schema resource: %w", err)
	}
	compiled, err := c.Compile(treeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile tree schema: %w", err)
	}

	return &JSONSchemaValidator{
		treeSchema: compiled,
		cache:      make(map[string]*jsonschema.Schema),
	}, nil
}

// ValidateStructure checks raw JSON against the tree schema and reports each
// violation at its instance location.
func (v *JSONSchemaValidator) ValidateStructure(raw []byte) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		result.AddError("/", schema.ErrCodeParse, fmt.Sprintf("invalid JSON: %s", err.Error()))
		return result
	}

	err = v.treeSchema.Validate(doc)
	if err == nil {
		return result
	}

	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.AddError("/", schema.ErrCodeMalformedTree, err.Error())
		return result
	}
	for _, leaf := range leafErrors(verr) {
		result.AddError(instancePath(leaf.InstanceLocation).String(), schema.ErrCodeMalformedTree, describeViolation(leaf))
	}
	return result
}

// ValidateContext validates a context document against a JSON Schema provided
// as raw bytes. The schema is compiled and cached for subsequent calls with
// the same schema text.
func (v *JSONSchemaValidator) ValidateContext(data tree.Value, contextSchema []byte) error {
	if len(contextSchema) == 0 {
		return nil // no schema means no validation needed
	}

	compiled, err := v.getOrCompile(contextSchema)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "invalid context schema").WithCause(err)
	}

	raw, err := tree.Marshal(tree.OrNull(data))
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize context").WithCause(err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to decode context").WithCause(err)
	}

	if err := compiled.Validate(doc); err != nil {
		return toLogicError(err)
	}
	return nil
}

// getOrCompile returns a cached compiled schema or compiles and caches a new one.
func (v *JSONSchemaValidator) getOrCompile(schemaBytes []byte) (*jsonschema.Schema, error) {
	key := string(schemaBytes)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Double-check after acquiring write lock.
	if cached, ok := v.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Each dynamic schema gets a unique URL and a fresh compiler to avoid
	// resource collisions.
	url := fmt.Sprintf("logictree://context-schema/%d", len(v.cache))
	c := newCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

func newCompiler() *jsonschema.Compiler {
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	return c
}

// toLogicError converts a jsonschema.ValidationError into a LogicError listing
// every violation.
func toLogicError(err error) *schema.LogicError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	leaves := leafErrors(verr)
	violations := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		violations = append(violations,
			fmt.Sprintf("%s: %s", instancePath(leaf.InstanceLocation), lastLine(leaf.Error())))
	}
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}
	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("context validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// leafErrors flattens a ValidationError tree into its leaves.
func leafErrors(verr *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(verr.Causes) == 0 {
		return []*jsonschema.ValidationError{verr}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range verr.Causes {
		out = append(out, leafErrors(cause)...)
	}
	return out
}

func instancePath(loc []string) tree.Path {
	p := make(tree.Path, len(loc))
	for i, seg := range loc {
		p[i] = tree.Key(seg)
	}
	return p
}

func describeViolation(leaf *jsonschema.ValidationError) string {
	if leaf.ErrorKind != nil {
		switch strings.Join(leaf.ErrorKind.KeywordPath(), "/") {
		case "minProperties":
			return "empty object: expected a single operation key"
		case "maxProperties":
			return "object has more than one key: expected a single operation key"
		}
	}
	return lastLine(leaf.Error())
}

// lastLine strips the library's multi-line preamble and keeps the message.
func lastLine(msg string) string {
	msg = strings.TrimSpace(msg)
	if i := strings.LastIndex(msg, "\n"); i >= 0 {
		msg = msg[i+1:]
	}
	if i := strings.Index(msg, "': "); strings.HasPrefix(msg, "- at '") && i >= 0 {
		msg = msg[i+3:]
	}
	return msg
}
