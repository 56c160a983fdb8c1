package jsonrpc2

import (
	"encoding/json"
	"strconv"
)

// Version is the JSON-RPC version marker required on every envelope.
const Version = "2.0"

// A Request is an immutable JSON-RPC 2.0 request or notification. The
// distinction between the two is carried by HasID: a notification is a
// request whose wire form omitted the "id" field entirely. A request whose
// "id" is present and set to JSON null is still a request, not a
// notification (see Request.HasID).
type Request struct {
	method string
	params json.RawMessage
	id     json.RawMessage // nil only when HasID is false
	hasID  bool

	// parseErr is set by parseOneRequest when the wire envelope itself was
	// structurally invalid (bad version marker, missing method, and so on).
	// Registry.Invoke checks this before attempting to look up method, so a
	// malformed batch element still produces its own error response instead
	// of aborting the whole batch.
	parseErr *Error
}

// NewRequest builds a request with the given id. params may be nil, or any
// value marshalable as a JSON array or object. id may be any JSON-marshalable
// scalar permitted by the spec (string, integer, or null) — passing nil
// records an explicit "id": null, which HasID reports as true.
func NewRequest(method string, params interface{}, id interface{}) (*Request, error) {
	p, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	idBytes, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	return &Request{method: method, params: p, id: idBytes, hasID: true}, nil
}

// NewNotification builds a request with no id, i.e. a notification: the
// server must never produce a response for it.
func NewNotification(method string, params interface{}) (*Request, error) {
	p, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Request{method: method, params: p, hasID: false}, nil
}

func marshalParams(params interface{}) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	return json.Marshal(params)
}

// Method returns the request's method name.
func (r *Request) Method() string { return r.method }

// Params returns the raw JSON params value, or nil if params were absent or
// null.
func (r *Request) Params() json.RawMessage { return r.params }

// HasParams reports whether the request carried a non-null params value.
func (r *Request) HasParams() bool { return len(r.params) != 0 && !isJSONNull(r.params) }

// UnmarshalParams decodes the request's params into v.
func (r *Request) UnmarshalParams(v interface{}) error {
	if !r.HasParams() {
		return json.Unmarshal([]byte("null"), v)
	}
	return json.Unmarshal(r.params, v)
}

// ID returns the raw JSON id value and whether the request carried one at
// all. When HasID is false, the returned value is nil: the request is a
// notification.
func (r *Request) ID() (json.RawMessage, bool) { return r.id, r.hasID }

// HasID reports whether this request expects a response. It is false only
// when the "id" field was altogether absent from the wire form; a request
// that explicitly set "id": null still reports true, matching the source
// system's pedantic reading of the spec (see DESIGN.md).
func (r *Request) HasID() bool { return r.hasID }

// IsNotification is the complement of HasID.
func (r *Request) IsNotification() bool { return !r.hasID }

// ParseError returns the envelope-level validation failure recorded for this
// request by the protocol engine, or nil if the envelope was well-formed.
func (r *Request) ParseError() *Error { return r.parseErr }

// IDString renders the id as a comparison/map key. Notifications render as
// the empty string.
func (r *Request) IDString() string {
	if !r.hasID {
		return ""
	}
	return string(r.id)
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 4 && string(raw) == "null"
}

// idForDisplay renders a raw id for inclusion in human-facing error text.
func idForDisplay(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	if s, err := strconv.Unquote(string(raw)); err == nil {
		return s
	}
	return string(raw)
}
