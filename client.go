package jsonrpc2

import (
	"context"
	"encoding/json"
	"fmt"

	uuid "github.com/hashicorp/go-uuid"

	"github.com/hashicorp/go-jsonrpc2/code"
	"github.com/hashicorp/go-jsonrpc2/reactor"
)

// A Client issues JSON-RPC 2.0 requests to a single HTTP/1.1 server address.
// Every call opens its own connection through a clientSession; a Client
// holds no mutable per-connection state of its own, so it is safe for
// concurrent use by multiple goroutines, matching the reference
// ClientSession's contract once request/response framing is no longer
// shared mutable state.
type Client struct {
	addr string
	opts *ClientOptions
	log  logger
}

// NewClient returns a Client that dials addr (host:port) for every call.
func NewClient(addr string, opts *ClientOptions) *Client {
	return &Client{addr: addr, opts: opts, log: opts.logger()}
}

// nextID produces a request id. UUIDs keep concurrent callers of the same
// Client from ever colliding, which a simple counter could not guarantee
// without additional synchronization.
func nextID() (json.RawMessage, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Call sends method(params) and blocks for the matching response. A
// non-nil error (an *Error, recoverable via errors.As) reports a failure to
// build the request, reach the server, or read and parse its reply; an error
// the server reports for the call itself is carried by the returned
// Response (see Response.IsError).
func (c *Client) Call(ctx context.Context, method string, params interface{}) (*Response, error) {
	id, err := nextID()
	if err != nil {
		return nil, Errorf(code.InternalError, "generating request id: %v", err)
	}
	req, err := NewRequest(method, params, json.RawMessage(id))
	if err != nil {
		return nil, Errorf(code.InvalidParams, "encoding params: %v", err)
	}

	sess := newClientSession(c.addr, c.opts)
	resps, err := sess.roundTrip(ctx, []*Request{req}, false)
	if err != nil {
		return nil, err
	}
	if len(resps) != 1 {
		return nil, Errorf(code.InternalError, "server returned %d responses for one request", len(resps))
	}
	return resps[0], nil
}

// CallResult is Call, followed by decoding a successful result into v.
func (c *Client) CallResult(ctx context.Context, method string, params interface{}, v interface{}) error {
	resp, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	return resp.UnmarshalResult(v)
}

// Notify sends method(params) as a notification and reports nothing: no
// response is expected from the server, and any transport failure is
// swallowed, exactly as spec.md §4.6 requires ("Notify... swallows all
// errors") — a notification is fire-and-forget by definition, so there is
// nothing a caller could usefully do with a failure here beyond what Call
// already offers.
func (c *Client) Notify(ctx context.Context, method string, params interface{}) {
	req, err := NewNotification(method, params)
	if err != nil {
		c.log("Notify %q: encoding params: %v", method, err)
		return
	}
	sess := newClientSession(c.addr, c.opts)
	if _, err := sess.roundTrip(ctx, []*Request{req}, false); err != nil {
		c.log("Notify %q: %v", method, err)
	}
}

// Batch sends reqs together as a single JSON-RPC batch and returns the
// responses the server sent, which may number fewer than len(reqs) if any
// of reqs were notifications.
func (c *Client) Batch(ctx context.Context, reqs []*Request) ([]*Response, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("jsonrpc2: empty batch")
	}
	sess := newClientSession(c.addr, c.opts)
	return sess.roundTrip(ctx, reqs, true)
}

// AsyncResult is delivered to a CallAsync callback.
type AsyncResult struct {
	Response *Response
	Err      error
}

// CallAsync starts a call without blocking the caller, delivering its
// outcome through done, run on r's driving goroutine via reactor.Spawn. This
// is how a ServerSession's own handler can issue a nested outbound call
// without blocking the reactor that is driving it: the actual network I/O
// happens on a fresh background goroutine, and only the (cheap) delivery of
// the final result is funneled back through r.
func (c *Client) CallAsync(r *reactor.Reactor, ctx context.Context, method string, params interface{}, done func(AsyncResult)) {
	go func() {
		resp, err := c.Call(ctx, method, params)
		r.Spawn(func() { done(AsyncResult{Response: resp, Err: err}) })
	}()
}
