package codec

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-jsonrpc2/code"
)

func TestFromJSON_integers(t *testing.T) {
	var i int
	if err := FromJSON(json.RawMessage("42"), &i); err != nil {
		t.Fatalf("FromJSON(42, &int) = %v", err)
	}
	if i != 42 {
		t.Errorf("i = %d, want 42", i)
	}

	var f float64
	if err := FromJSON(json.RawMessage("42"), &f); err != nil {
		t.Fatalf("FromJSON(42, &float64) = %v", err)
	}
	if f != 42 {
		t.Errorf("f = %v, want 42", f)
	}

	var i2 int
	if err := FromJSON(json.RawMessage("1.5"), &i2); err == nil {
		t.Error("FromJSON(1.5, &int) = nil, want error (fractional literal must not widen into an int)")
	}

	var u uint
	if err := FromJSON(json.RawMessage("-1"), &u); err == nil {
		t.Error("FromJSON(-1, &uint) = nil, want error")
	}
}

func TestFromJSON_floatAcceptsFractionalLiteral(t *testing.T) {
	var f float64
	if err := FromJSON(json.RawMessage("3.25"), &f); err != nil {
		t.Fatalf("FromJSON(3.25, &float64) = %v", err)
	}
	if f != 3.25 {
		t.Errorf("f = %v, want 3.25", f)
	}
}

func TestFromJSON_sliceAndMap(t *testing.T) {
	var nums []int
	if err := FromJSON(json.RawMessage("[1,2,3]"), &nums); err != nil {
		t.Fatalf("FromJSON slice: %v", err)
	}
	if want := []int{1, 2, 3}; !cmp.Equal(nums, want) {
		t.Errorf("nums mismatch:\n%s", cmp.Diff(want, nums))
	}

	var m map[string]int
	if err := FromJSON(json.RawMessage(`{"a":1,"b":2}`), &m); err != nil {
		t.Fatalf("FromJSON map: %v", err)
	}
	if want := map[string]int{"a": 1, "b": 2}; !cmp.Equal(m, want) {
		t.Errorf("m mismatch:\n%s", cmp.Diff(want, m))
	}
}

func TestFromJSON_struct(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	var p point
	if err := FromJSON(json.RawMessage(`{"x":1,"y":2}`), &p); err != nil {
		t.Fatalf("FromJSON struct: %v", err)
	}
	if p != (point{1, 2}) {
		t.Errorf("p = %+v, want {1 2}", p)
	}
}

func TestFromJSON_requiresNonNilPointer(t *testing.T) {
	var notAPointer int
	if err := FromJSON(json.RawMessage("1"), notAPointer); err == nil {
		t.Error("FromJSON(1, int) = nil, want error")
	}
}

func TestFromJSON_typeMismatchIsInvalidParams(t *testing.T) {
	var s string
	err := FromJSON(json.RawMessage("42"), &s)
	if err == nil {
		t.Fatal("expected error decoding a number into a string")
	}
	if code.FromError(err) != code.InvalidParams {
		t.Errorf("code.FromError(err) = %v, want %v", code.FromError(err), code.InvalidParams)
	}
}

type upperCaseConverter struct{}

func (upperCaseConverter) ToJSON(v interface{}) (json.RawMessage, error) {
	s := reflect.ValueOf(v).String()
	return json.Marshal(s + "!")
}

func (upperCaseConverter) FromJSON(raw json.RawMessage, v interface{}) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	reflect.ValueOf(v).Elem().SetString(s)
	return nil
}

func TestRegisterType(t *testing.T) {
	type shoutString string
	RegisterType(reflect.TypeOf(shoutString("")), upperCaseConverter{})

	raw, err := ToJSON(shoutString("hi"))
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if string(raw) != `"hi!"` {
		t.Errorf("ToJSON = %s, want %q", raw, `"hi!"`)
	}
}

func TestExtractParams_noParams(t *testing.T) {
	cases := []json.RawMessage{nil, json.RawMessage("null"), json.RawMessage("[]"), json.RawMessage("")}
	for _, params := range cases {
		if err := ExtractParams(params); err != nil {
			t.Errorf("ExtractParams(%s) = %v, want nil", params, err)
		}
	}

	if err := ExtractParams(json.RawMessage("[1]")); err == nil {
		t.Error("ExtractParams([1]) with no dests = nil, want error")
	}
}

func TestExtractParams_fixedArity(t *testing.T) {
	var a, b int
	if err := ExtractParams(json.RawMessage("[1,2]"), &a, &b); err != nil {
		t.Fatalf("ExtractParams: %v", err)
	}
	if a != 1 || b != 2 {
		t.Errorf("a, b = %d, %d, want 1, 2", a, b)
	}

	if err := ExtractParams(json.RawMessage("[1]"), &a, &b); err == nil {
		t.Error("ExtractParams with wrong arity = nil, want error")
	}
	if err := ExtractParams(nil, &a, &b); err == nil {
		t.Error("ExtractParams(nil, ...) with non-zero dests = nil, want error")
	}
}

func TestExtractParams_skipsNilDest(t *testing.T) {
	var b int
	if err := ExtractParams(json.RawMessage(`[1,2]`), nil, &b); err != nil {
		t.Fatalf("ExtractParams: %v", err)
	}
	if b != 2 {
		t.Errorf("b = %d, want 2", b)
	}
}

func TestExtractParams_errorIsInvalidParams(t *testing.T) {
	var a int
	err := ExtractParams(json.RawMessage(`["not a number"]`), &a)
	if err == nil {
		t.Fatal("expected error")
	}
	var c code.Coder
	if !errors.As(err, &c) {
		t.Fatalf("err does not satisfy code.Coder: %v", err)
	}
	if c.Code() != code.InvalidParams {
		t.Errorf("code = %v, want %v", c.Code(), code.InvalidParams)
	}
}
