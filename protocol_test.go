package jsonrpc2

import (
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-jsonrpc2/code"
)

func TestIsBatch(t *testing.T) {
	tests := []struct {
		data string
		want bool
	}{
		{`{"jsonrpc":"2.0","method":"ping"}`, false},
		{`[{"jsonrpc":"2.0","method":"ping"}]`, true},
		{`  [1,2,3]`, true},
	}
	for _, tt := range tests {
		got, err := IsBatch([]byte(tt.data))
		if err != nil {
			t.Fatalf("IsBatch(%q): %v", tt.data, err)
		}
		if got != tt.want {
			t.Errorf("IsBatch(%q) = %v, want %v", tt.data, got, tt.want)
		}
	}

	if _, err := IsBatch([]byte("  ")); err == nil {
		t.Error("IsBatch of empty body = nil error, want error")
	}
}

func TestParseRequests_singleton(t *testing.T) {
	reqs, batch, err := ParseRequests([]byte(`{"jsonrpc":"2.0","method":"echo","params":[1],"id":1}`))
	if err != nil {
		t.Fatalf("ParseRequests: %v", err)
	}
	if batch {
		t.Error("batch = true, want false for a singleton object")
	}
	if len(reqs) != 1 {
		t.Fatalf("len(reqs) = %d, want 1", len(reqs))
	}
	r := reqs[0]
	if r.ParseError() != nil {
		t.Fatalf("unexpected parse error: %v", r.ParseError())
	}
	if r.Method() != "echo" {
		t.Errorf("Method() = %q, want %q", r.Method(), "echo")
	}
	if !r.HasID() {
		t.Error("HasID() = false, want true")
	}
}

func TestParseRequests_notificationHasNoID(t *testing.T) {
	reqs, _, err := ParseRequests([]byte(`{"jsonrpc":"2.0","method":"log"}`))
	if err != nil {
		t.Fatalf("ParseRequests: %v", err)
	}
	if !reqs[0].IsNotification() {
		t.Error("expected a notification when \"id\" is entirely absent")
	}
}

func TestParseRequests_explicitNullIDIsStillARequest(t *testing.T) {
	reqs, _, err := ParseRequests([]byte(`{"jsonrpc":"2.0","method":"log","id":null}`))
	if err != nil {
		t.Fatalf("ParseRequests: %v", err)
	}
	if reqs[0].IsNotification() {
		t.Error(`"id": null must still count as HasID == true, not a notification`)
	}
}

func TestParseRequests_batchSoftFailsBadElements(t *testing.T) {
	body := `[
		{"jsonrpc":"2.0","method":"ok","id":1},
		{"jsonrpc":"1.0","method":"bad-version","id":2},
		{"jsonrpc":"2.0","id":3},
		"not an object"
	]`
	reqs, batch, err := ParseRequests([]byte(body))
	if err != nil {
		t.Fatalf("ParseRequests: %v", err)
	}
	if !batch {
		t.Error("batch = false, want true")
	}
	if len(reqs) != 4 {
		t.Fatalf("len(reqs) = %d, want 4", len(reqs))
	}
	if reqs[0].ParseError() != nil {
		t.Errorf("reqs[0].ParseError() = %v, want nil", reqs[0].ParseError())
	}
	for i, want := range []code.Code{code.NoError, code.InvalidRequest, code.InvalidRequest, code.InvalidRequest} {
		if i == 0 {
			continue
		}
		perr := reqs[i].ParseError()
		if perr == nil {
			t.Errorf("reqs[%d].ParseError() = nil, want %v", i, want)
			continue
		}
		if perr.Code() != want {
			t.Errorf("reqs[%d].ParseError().Code() = %v, want %v", i, perr.Code(), want)
		}
	}
}

func TestParseRequests_hardFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"jsonrpc":`},
		{"empty batch", `[]`},
		{"top level scalar", `42`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseRequests([]byte(tt.body)); err == nil {
				t.Errorf("ParseRequests(%q) = nil error, want error", tt.body)
			}
		})
	}
}

func TestParseRequests_invalidParamsShape(t *testing.T) {
	reqs, _, err := ParseRequests([]byte(`{"jsonrpc":"2.0","method":"x","params":"not array or object"}`))
	if err != nil {
		t.Fatalf("ParseRequests: %v", err)
	}
	if reqs[0].ParseError() == nil {
		t.Fatal("expected a parse error for a scalar params value")
	}
}

func TestSerializeRequest_roundTrip(t *testing.T) {
	req, err := NewRequest("add", []int{1, 2}, 7)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	data, err := SerializeRequest(req)
	if err != nil {
		t.Fatalf("SerializeRequest: %v", err)
	}

	reqs, batch, err := ParseRequests(data)
	if err != nil {
		t.Fatalf("ParseRequests(serialized): %v", err)
	}
	if batch {
		t.Error("batch = true, want false")
	}
	if reqs[0].Method() != "add" {
		t.Errorf("Method() = %q, want %q", reqs[0].Method(), "add")
	}
	var params []int
	if err := reqs[0].UnmarshalParams(&params); err != nil {
		t.Fatalf("UnmarshalParams: %v", err)
	}
	if len(params) != 2 || params[0] != 1 || params[1] != 2 {
		t.Errorf("params = %v, want [1 2]", params)
	}
}

func TestSerializeResponses_alwaysArray(t *testing.T) {
	resp, err := NewResultResponse(json.RawMessage("1"), 42)
	if err != nil {
		t.Fatalf("NewResultResponse: %v", err)
	}
	data, err := SerializeResponses([]*Response{resp})
	if err != nil {
		t.Fatalf("SerializeResponses: %v", err)
	}
	if data[0] != '[' {
		t.Errorf("SerializeResponses of one response = %s, want to start with '['", data)
	}
}

func TestParseResponses_successAndError(t *testing.T) {
	body := `[
		{"jsonrpc":"2.0","result":42,"id":1},
		{"jsonrpc":"2.0","error":{"code":-32601,"message":"method not found"},"id":2}
	]`
	resps, batch, err := ParseResponses([]byte(body))
	if err != nil {
		t.Fatalf("ParseResponses: %v", err)
	}
	if !batch {
		t.Error("batch = false, want true")
	}
	if resps[0].IsError() {
		t.Error("resps[0].IsError() = true, want false")
	}
	var n int
	if err := resps[0].UnmarshalResult(&n); err != nil || n != 42 {
		t.Errorf("resps[0].UnmarshalResult: n=%d err=%v, want 42, nil", n, err)
	}
	if !resps[1].IsError() {
		t.Fatal("resps[1].IsError() = false, want true")
	}
	if resps[1].Err().Code() != code.MethodNotFound {
		t.Errorf("resps[1].Err().Code() = %v, want %v", resps[1].Err().Code(), code.MethodNotFound)
	}
}

func TestParseResponses_rejectsBothResultAndError(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"result":1,"error":{"code":-32603,"message":"x"}}`
	if _, _, err := ParseResponses([]byte(body)); err == nil {
		t.Error("ParseResponses with both result and error = nil, want error")
	}
}
