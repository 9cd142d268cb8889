package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rendis/logictree/pkg/schema"
)

// Parse decodes JSON text into a Value. Object key order is kept; a key that
// appears twice keeps its first position and its last value.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeParse, "invalid JSON: %s", err.Error()).WithCause(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, schema.NewError(schema.ErrCodeParse, "invalid JSON: unexpected data after top-level value")
	}
	return v, nil
}

// ParseString is Parse for string input.
func ParseString(s string) (Value, error) {
	return Parse([]byte(s))
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return parseNumber(t)
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			arr := Array{}
			for dec.More() {
				el, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, el)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, want string", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				fields = setField(fields, key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return NewObject(fields), nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// parseNumber maps literals beyond the float64 range to ±Infinity, as
// JSON.parse does.
func parseNumber(n json.Number) (Value, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, err
	}
	return Number(f), nil
}

func setField(fields []Field, key string, val Value) []Field {
	for i := range fields {
		if fields[i].Key == key {
			fields[i].Value = val
			return fields
		}
	}
	return append(fields, Field{Key: key, Value: val})
}

// FromAny converts a decoded Go value (as produced by encoding/json, YAML
// decoders or gojq) into a Value. Map keys are sorted so the result is
// deterministic.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case float64:
		return Number(val), nil
	case float32:
		return Number(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case int32:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeParse, "invalid number %q", val.String()).WithCause(err)
		}
		return Number(f), nil
	case string:
		return String(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, item := range val {
			el, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			arr[i] = el
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fv, err := FromAny(val[k])
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Key: k, Value: fv})
		}
		return NewObject(fields), nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeParse, "unsupported value type %T", v)
	}
}

// ToAny converts a Value into plain Go values (nil, bool, float64, string,
// []any, map[string]any).
func ToAny(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Number:
		return float64(val)
	case String:
		return string(val)
	case Array:
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = ToAny(el)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for _, f := range val {
			out[f.Key] = ToAny(f.Value)
		}
		return out
	case Operation:
		return map[string]any{val.Tag: ToAny(val.Args)}
	}
	return nil
}

// Marshal renders v as compact JSON in document key order.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, OrNull(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent renders v as two-space indented JSON, the preview format of
// the builder.
func MarshalIndent(v Value) ([]byte, error) {
	compact, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (b Bool) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatBool(bool(b))), nil
}

func (n Number) MarshalJSON() ([]byte, error) { return Marshal(n) }
func (s String) MarshalJSON() ([]byte, error) { return Marshal(s) }
func (a Array) MarshalJSON() ([]byte, error)  { return Marshal(a) }
func (o Object) MarshalJSON() ([]byte, error) { return Marshal(o) }

func (op Operation) MarshalJSON() ([]byte, error) { return Marshal(op) }

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Number:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString("null")
		} else {
			buf.WriteString(FormatNumber(f))
		}
	case String:
		return writeString(buf, string(val))
	case Array:
		buf.WriteByte('[')
		for i, el := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, f := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, f.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeValue(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case Operation:
		buf.WriteByte('{')
		if err := writeString(buf, val.Tag); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, val.Args); err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot marshal %T", v)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline.
	return nil
}

// FormatNumber renders f the way JavaScript's Number#toString does: shortest
// round-tripping digits, exponent form outside [1e-6, 1e21).
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		digits := strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + exp[:1] + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
