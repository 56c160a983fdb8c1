package jsonrpc2

import "encoding/json"

// A Response is an immutable tagged variant: exactly one of Result() / Err()
// is set, matching the invariant in spec.md §3. Id is whatever the protocol
// engine read from the corresponding request, or JSON null when no id could
// be recovered (e.g. a parse failure).
type Response struct {
	id     json.RawMessage
	result json.RawMessage
	err    *Error
}

// NewResultResponse builds a success response.
func NewResultResponse(id json.RawMessage, result interface{}) (*Response, error) {
	r, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Response{id: normalizeID(id), result: r}, nil
}

// NewRawResultResponse builds a success response from an already-encoded
// result value, skipping a redundant marshal/unmarshal round trip.
func NewRawResultResponse(id json.RawMessage, result json.RawMessage) *Response {
	return &Response{id: normalizeID(id), result: result}
}

// NewErrorResponse builds an error response.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{id: normalizeID(id), err: err}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// ID returns the response's id, as literal JSON bytes.
func (r *Response) ID() json.RawMessage { return r.id }

// IsError reports whether r carries an error.
func (r *Response) IsError() bool { return r.err != nil }

// Result returns the raw result bytes. It is only meaningful when
// !r.IsError().
func (r *Response) Result() json.RawMessage { return r.result }

// UnmarshalResult decodes the response's result into v. It returns the
// response's error, unmodified, if the response is an error response.
func (r *Response) UnmarshalResult(v interface{}) error {
	if r.err != nil {
		return r.err
	}
	if len(r.result) == 0 {
		return json.Unmarshal([]byte("null"), v)
	}
	return json.Unmarshal(r.result, v)
}

// Err returns the response's error, or nil for a success response.
func (r *Response) Err() *Error { return r.err }
