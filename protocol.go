package jsonrpc2

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/hashicorp/go-jsonrpc2/code"
)

// IsBatch reports whether the top-level JSON value in data is an array, per
// spec.md §4.2's is_batch_request. It does not otherwise validate data.
func IsBatch(data []byte) (bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return false, Errorf(code.ParseError, "empty body")
	}
	return trimmed[0] == '[', nil
}

// ParseRequests decodes data into a list of requests, detecting whether the
// top-level value was a batch (JSON array) or a singleton (JSON object).
//
// The returned error is non-nil only for failures that make it impossible to
// recover any request at all: malformed JSON (code.ParseError) or a
// top-level value that is neither an object nor a non-empty array
// (code.InvalidRequest). Once the top-level shape is valid, structural
// problems with an individual element (bad version marker, missing method,
// and so on) are recorded on that element's *Request instead of aborting the
// whole batch — Registry.Invoke surfaces them as that request's response,
// exactly as a method-not-found or invalid-params failure would be.
func ParseRequests(data []byte) (reqs []*Request, batch bool, err error) {
	if !json.Valid(data) {
		return nil, false, Errorf(code.ParseError, "request body is not valid JSON")
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, Errorf(code.ParseError, "empty request body")
	}
	switch trimmed[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, true, Errorf(code.ParseError, "invalid JSON array: %v", err)
		}
		if len(raws) == 0 {
			return nil, true, Errorf(code.InvalidRequest, "batch must not be empty")
		}
		reqs = make([]*Request, len(raws))
		for i, raw := range raws {
			reqs[i] = parseOneRequest(raw)
		}
		return reqs, true, nil
	case '{':
		return []*Request{parseOneRequest(trimmed)}, false, nil
	default:
		return nil, false, Errorf(code.InvalidRequest, "top-level JSON value must be an object or array")
	}
}

// parseOneRequest never fails outright: a structurally invalid element is
// returned as a *Request carrying a non-nil parseErr, with as much of
// method/id recovered as possible so the caller can still report a
// best-effort id, per spec.md §7 ("id is the best-effort id recovered from
// the envelope, or JSON null if none could be recovered").
func parseOneRequest(raw json.RawMessage) *Request {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return &Request{id: json.RawMessage("null"), hasID: true, parseErr: Errorf(code.InvalidRequest, "request is not a JSON object")}
	}

	id, hasID := m["id"]
	if hasID && !isValidIDShape(id) {
		return &Request{id: json.RawMessage("null"), hasID: true, parseErr: Errorf(code.InvalidRequest, "\"id\" must be a string, integer, or null")}
	}

	v, ok := m["jsonrpc"]
	if !ok {
		return &Request{id: id, hasID: hasID, parseErr: Errorf(code.InvalidRequest, "missing %q version marker", "jsonrpc")}
	}
	var vs string
	if err := json.Unmarshal(v, &vs); err != nil || vs != Version {
		return &Request{id: id, hasID: hasID, parseErr: Errorf(code.InvalidRequest, "invalid %q version marker", "jsonrpc")}
	}

	mv, ok := m["method"]
	if !ok {
		return &Request{id: id, hasID: hasID, parseErr: Errorf(code.InvalidRequest, "missing %q", "method")}
	}
	var method string
	if err := json.Unmarshal(mv, &method); err != nil {
		return &Request{id: id, hasID: hasID, parseErr: Errorf(code.InvalidRequest, "%q is not a string", "method")}
	}
	if method == "" {
		return &Request{id: id, hasID: hasID, parseErr: Errorf(code.InvalidRequest, "empty method name")}
	}

	var params json.RawMessage
	if pv, ok := m["params"]; ok {
		if !isValidParamsShape(pv) {
			return &Request{method: method, id: id, hasID: hasID, parseErr: Errorf(code.InvalidRequest, "%q must be an array, object, or null", "params")}
		}
		if !isJSONNull(pv) {
			params = pv
		}
	}

	return &Request{method: method, params: params, id: id, hasID: hasID}
}

func isValidParamsShape(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	return trimmed[0] == '[' || trimmed[0] == '{' || isJSONNull(trimmed)
}

func isValidIDShape(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if isJSONNull(trimmed) {
		return true
	}
	var s string
	if json.Unmarshal(trimmed, &s) == nil {
		return true
	}
	return isIntegerJSON(trimmed)
}

func isIntegerJSON(raw json.RawMessage) bool {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return false
	}
	return !strings.ContainsAny(n.String(), ".eE")
}

// wireRequestOut is the JSON shape written for a Request.
type wireRequestOut struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

func (r *Request) wireOut() wireRequestOut {
	out := wireRequestOut{JSONRPC: Version, Method: r.method, Params: r.params}
	if r.hasID {
		out.ID = normalizeID(r.id)
	}
	return out
}

// SerializeRequest encodes a single request (or notification) envelope.
func SerializeRequest(r *Request) ([]byte, error) {
	return json.Marshal(r.wireOut())
}

// SerializeRequests encodes a batch of requests as a JSON array, regardless
// of length — callers that want singleton framing should call
// SerializeRequest instead.
func SerializeRequests(rs []*Request) ([]byte, error) {
	outs := make([]wireRequestOut, len(rs))
	for i, r := range rs {
		outs[i] = r.wireOut()
	}
	return json.Marshal(outs)
}

// wireResponseOut is the JSON shape written for a Response.
type wireResponseOut struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func (r *Response) wireOut() wireResponseOut {
	out := wireResponseOut{JSONRPC: Version, ID: normalizeID(r.id)}
	if r.err != nil {
		out.Error = r.err
		return out
	}
	out.Result = r.result
	if len(out.Result) == 0 {
		out.Result = json.RawMessage("null")
	}
	return out
}

// SerializeResponse encodes a single response envelope.
func SerializeResponse(r *Response) ([]byte, error) {
	return json.Marshal(r.wireOut())
}

// SerializeResponses encodes a batch of responses as a JSON array, even for
// a batch of exactly one — this is the "batch containing only one
// non-notification still serializes as an array of one" rule of spec.md
// §4.5.
func SerializeResponses(rs []*Response) ([]byte, error) {
	outs := make([]wireResponseOut, len(rs))
	for i, r := range rs {
		outs[i] = r.wireOut()
	}
	return json.Marshal(outs)
}

// ParseResponses decodes data (a server reply body) into a list of
// responses, reporting whether the top-level value was a batch.
func ParseResponses(data []byte) (rsps []*Response, batch bool, err error) {
	if !json.Valid(data) {
		return nil, false, Errorf(code.ParseError, "response body is not valid JSON")
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, Errorf(code.ParseError, "empty response body")
	}
	switch trimmed[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, true, Errorf(code.ParseError, "invalid JSON array: %v", err)
		}
		rsps = make([]*Response, len(raws))
		for i, raw := range raws {
			r, err := parseOneResponse(raw)
			if err != nil {
				return nil, true, err
			}
			rsps[i] = r
		}
		return rsps, true, nil
	case '{':
		r, err := parseOneResponse(trimmed)
		if err != nil {
			return nil, false, err
		}
		return []*Response{r}, false, nil
	default:
		return nil, false, Errorf(code.InvalidRequest, "top-level JSON value must be an object or array")
	}
}

func parseOneResponse(raw json.RawMessage) (*Response, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, Errorf(code.InvalidRequest, "response is not a JSON object")
	}

	v, ok := m["jsonrpc"]
	if !ok {
		return nil, Errorf(code.InvalidRequest, "missing %q version marker", "jsonrpc")
	}
	var vs string
	if err := json.Unmarshal(v, &vs); err != nil || vs != Version {
		return nil, Errorf(code.InvalidRequest, "invalid %q version marker", "jsonrpc")
	}

	id, hasID := m["id"]
	if !hasID {
		return nil, Errorf(code.InvalidRequest, "missing %q", "id")
	}
	if !isValidIDShape(id) {
		return nil, Errorf(code.InvalidRequest, "\"id\" must be a string, integer, or null")
	}

	result, hasResult := m["result"]
	errv, hasError := m["error"]
	switch {
	case hasResult && hasError:
		return nil, Errorf(code.InvalidRequest, "response has both %q and %q", "result", "error")
	case !hasResult && !hasError:
		return nil, Errorf(code.InvalidRequest, "response has neither %q nor %q", "result", "error")
	case hasError:
		var e Error
		if err := json.Unmarshal(errv, &e); err != nil {
			return nil, Errorf(code.InvalidRequest, "invalid %q object: %v", "error", err)
		}
		return &Response{id: id, err: &e}, nil
	default:
		return &Response{id: id, result: result}, nil
	}
}
