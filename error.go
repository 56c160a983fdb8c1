package jsonrpc2

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-jsonrpc2/code"
)

// Error is the concrete error type carried by a JSON-RPC 2.0 error response.
// It satisfies code.Coder so that code.FromError recovers its Code.
type Error struct {
	code    code.Code
	message string
	data    json.RawMessage
}

// Error implements the standard error interface.
func (e *Error) Error() string { return fmt.Sprintf("[%d] %s", e.code, e.message) }

// Code returns the error's code.Code value.
func (e *Error) Code() code.Code { return e.code }

// Message returns the error's human-readable message.
func (e *Error) Message() string { return e.message }

// HasData reports whether e carries error data to unmarshal.
func (e *Error) HasData() bool { return len(e.data) != 0 && !isJSONNull(e.data) }

// UnmarshalData decodes e.Data into v. It returns ErrNoData without
// modifying v if there was no data attached.
func (e *Error) UnmarshalData(v interface{}) error {
	if !e.HasData() {
		return ErrNoData
	}
	return json.Unmarshal(e.data, v)
}

// wireError is the JSON shape of an Error object on the wire.
type wireError struct {
	Code    int32           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireError{Code: int32(e.code), Message: e.message, Data: e.data})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var w wireError
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.code = code.Code(w.Code)
	e.message = w.Message
	e.data = w.Data
	return nil
}

// ErrNoData indicates an Error carried no data payload.
var ErrNoData = errors.New("no data to unmarshal")

// Errorf builds an *Error with the given code and a formatted message. It is
// shorthand for DataErrorf(c, nil, format, args...).
func Errorf(c code.Code, format string, args ...interface{}) *Error {
	return DataErrorf(c, nil, format, args...)
}

// DataErrorf builds an *Error with the given code, formatted message, and
// (if v != nil and marshals cleanly) error data.
func DataErrorf(c code.Code, v interface{}, format string, args ...interface{}) *Error {
	e := &Error{code: c, message: fmt.Sprintf(format, args...)}
	if v != nil {
		if data, err := json.Marshal(v); err == nil {
			e.data = data
		}
	}
	return e
}

// asError recovers a *jsonrpc2.Error from err verbatim, classifies any other
// Coder-satisfying error (e.g. codec.ExtractParams's InvalidParams failures)
// by its own code, and only falls back to InternalError for an error that
// carries no classification at all. This is the categorization rule of
// spec.md §4.1/§4.3/§7: a procedure that raises a protocol error, directly
// or through a lower layer like codec, passes its code through unchanged;
// only a genuinely opaque failure becomes InternalError.
func asError(prefix string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	c := code.FromError(err)
	if c == code.SystemError {
		c = code.InternalError
	}
	return Errorf(c, "%s%v", prefix, err)
}
