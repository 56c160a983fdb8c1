// Package codec implements the bidirectional JSON↔Go value conversion used
// to move request params and procedure results on and off the wire.
//
// Conversion follows widening-only rules for numeric kinds: a JSON number
// decoded into an integer destination must itself be an integer literal (no
// fractional part), matching the strict is_int64()-style checks the
// reference converter performs per type; a float destination accepts either
// an integer or a floating-point JSON number, since widening an integer into
// a float never loses information. Composite destinations (structs, and
// anything implementing json.Unmarshaler) fall back to encoding/json, which
// already does the right thing for tagged fields.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/hashicorp/go-jsonrpc2/code"
)

// A Converter supplies custom JSON conversion for a registered Go type,
// overriding the reflective default for that exact type.
type Converter interface {
	ToJSON(v interface{}) (json.RawMessage, error)
	FromJSON(raw json.RawMessage, v interface{}) error
}

var (
	mu         sync.RWMutex
	converters = map[reflect.Type]Converter{}
)

// paramError is a minimal error carrying a code.Code, so that failures
// raised here classify as code.InvalidParams when they bubble up through
// code.FromError, without this package importing the root jsonrpc2 package
// (which itself depends on codec for param extraction).
type paramError struct {
	code code.Code
	msg  string
}

func (e *paramError) Error() string    { return e.msg }
func (e *paramError) Code() code.Code  { return e.code }

func errParams(format string, args ...interface{}) error {
	return &paramError{code: code.InvalidParams, msg: fmt.Sprintf(format, args...)}
}

// RegisterType installs a custom Converter for values of typ, overriding the
// reflective conversion this package would otherwise apply. Registering the
// same type twice replaces the previous converter.
func RegisterType(typ reflect.Type, c Converter) {
	mu.Lock()
	defer mu.Unlock()
	converters[typ] = c
}

func lookup(typ reflect.Type) (Converter, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := converters[typ]
	return c, ok
}

// ToJSON marshals v to its wire representation, consulting any registered
// Converter for v's concrete type before falling back to encoding/json.
func ToJSON(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	if c, ok := lookup(reflect.TypeOf(v)); ok {
		return c.ToJSON(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// FromJSON decodes raw into the value pointed to by v, applying the
// widening-only numeric rules described in the package doc. v must be a
// non-nil pointer.
func FromJSON(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return fmt.Errorf("codec: destination must be a non-nil pointer, got %T", v)
	}
	if c, ok := lookup(ptr.Type().Elem()); ok {
		return c.FromJSON(raw, v)
	}
	if _, ok := v.(json.Unmarshaler); ok {
		return json.Unmarshal(raw, v)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return errParams("malformed value: %v", err)
	}
	return assign(ptr.Elem(), generic)
}

// assign converts a value decoded with json.Decoder.UseNumber (so JSON
// numbers arrive as json.Number, not float64) into dst, applying the
// widening rules for numeric kinds and recursing into slices, arrays, maps,
// and pointers. Structs are delegated back to encoding/json, which already
// understands field tags.
func assign(dst reflect.Value, src interface{}) error {
	switch dst.Kind() {
	case reflect.Ptr:
		if src == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assign(dst.Elem(), src)

	case reflect.Interface:
		if dst.NumMethod() == 0 {
			dst.Set(reflect.ValueOf(normalizeNumbers(src)))
			return nil
		}
		return errParams("cannot decode into interface %s", dst.Type())

	case reflect.Bool:
		b, ok := src.(bool)
		if !ok {
			return errParams("expected bool, got %s", describe(src))
		}
		dst.SetBool(b)
		return nil

	case reflect.String:
		s, ok := src.(string)
		if !ok {
			return errParams("expected string, got %s", describe(src))
		}
		dst.SetString(s)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := src.(json.Number)
		if !ok {
			return errParams("expected integer, got %s", describe(src))
		}
		i, err := integerValue(n)
		if err != nil {
			return err
		}
		if dst.OverflowInt(i) {
			return errParams("integer %s overflows %s", n, dst.Type())
		}
		dst.SetInt(i)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := src.(json.Number)
		if !ok {
			return errParams("expected integer, got %s", describe(src))
		}
		i, err := integerValue(n)
		if err != nil {
			return err
		}
		if i < 0 {
			return errParams("integer %s is negative, cannot assign to %s", n, dst.Type())
		}
		if dst.OverflowUint(uint64(i)) {
			return errParams("integer %s overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(i))
		return nil

	case reflect.Float32, reflect.Float64:
		n, ok := src.(json.Number)
		if !ok {
			return errParams("expected number, got %s", describe(src))
		}
		f, err := n.Float64()
		if err != nil {
			return errParams("malformed number %s", n)
		}
		dst.SetFloat(f)
		return nil

	case reflect.Slice:
		if src == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		arr, ok := src.([]interface{})
		if !ok {
			return errParams("expected array, got %s", describe(src))
		}
		out := reflect.MakeSlice(dst.Type(), len(arr), len(arr))
		for i, elt := range arr {
			if err := assign(out.Index(i), elt); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil

	case reflect.Array:
		arr, ok := src.([]interface{})
		if !ok {
			return errParams("expected array, got %s", describe(src))
		}
		if len(arr) != dst.Len() {
			return errParams("array has %d elements, want %d", len(arr), dst.Len())
		}
		for i, elt := range arr {
			if err := assign(dst.Index(i), elt); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		obj, ok := src.(map[string]interface{})
		if !ok {
			return errParams("expected object, got %s", describe(src))
		}
		if dst.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("codec: unsupported map key type %s", dst.Type().Key())
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(obj))
		for k, v := range obj {
			elt := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(elt, v); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), elt)
		}
		dst.Set(out)
		return nil

	case reflect.Struct:
		raw, err := json.Marshal(normalizeNumbers(src))
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dst.Addr().Interface())

	default:
		return fmt.Errorf("codec: unsupported destination kind %s", dst.Kind())
	}
}

// integerValue parses n as an integer, rejecting any fractional or
// exponential literal the way the original type converter's is_int64()
// guard did: a widening target accepts only values that were already whole
// numbers on the wire.
func integerValue(n json.Number) (int64, error) {
	s := n.String()
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return 0, errParams("expected integer, got fractional number %s", s)
		}
	}
	i, err := n.Int64()
	if err != nil {
		return 0, errParams("malformed integer %s", s)
	}
	return i, nil
}

// normalizeNumbers recursively replaces json.Number leaves with float64 or
// int64, for callers that want a plain interface{} tree (e.g. re-marshaling
// through encoding/json, which does not know about json.Number unless told).
func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeNumbers(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalizeNumbers(e)
		}
		return out
	default:
		return v
	}
}

func describe(v interface{}) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ExtractParams decodes a fixed-arity params array into dests, matching the
// reference extract_args<Args...> behavior: with no destinations, params
// must be absent, JSON null, or an empty array; otherwise params must be a
// JSON array of exactly len(dests) elements, decoded positionally.
func ExtractParams(params json.RawMessage, dests ...interface{}) error {
	trimmed := bytes.TrimSpace(params)
	isAbsentOrNull := len(trimmed) == 0 || string(trimmed) == "null"

	if len(dests) == 0 {
		if isAbsentOrNull {
			return nil
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil || len(arr) != 0 {
			return errParams("method takes no parameters")
		}
		return nil
	}

	if isAbsentOrNull {
		return errParams("expected %d parameters, got none", len(dests))
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(trimmed, &arr); err != nil {
		return errParams("params must be an array")
	}
	if len(arr) != len(dests) {
		return errParams("expected %d parameters, got %d", len(dests), len(arr))
	}
	for i, dest := range dests {
		if dest == nil {
			continue
		}
		if err := FromJSON(arr[i], dest); err != nil {
			return fmt.Errorf("parameter %d: %w", i+1, err)
		}
	}
	return nil
}
