package jsonrpc2

import (
	"context"
	"sync"

	"bitbucket.org/creachadair/stringset"
	"github.com/hashicorp/go-jsonrpc2/code"
)

// A Handler answers a single request. Implementations that want the
// positional-argument extraction or widening-integer rules of the codec
// package should call codec.ExtractParams or req.UnmarshalParams themselves;
// Handler is deliberately as thin as the C++ MethodWrapperBase it replaces.
type Handler func(ctx context.Context, req *Request) (interface{}, error)

// A Registry maps method names to Handlers. The zero value is a usable,
// empty Registry. Registration is last-write-wins: registering a name that
// already exists silently replaces the previous Handler, matching
// method_registry.hpp's plain std::map::operator[] semantics rather than
// rejecting the second registration.
type Registry struct {
	mu      sync.Mutex
	methods map[string]Handler
}

// NewRegistry returns an empty Registry ready for use.
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]Handler)}
}

// Register installs fn under name, replacing any previous handler for that
// name. It is safe to call concurrently with Invoke and with other calls to
// Register.
func (r *Registry) Register(name string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.methods == nil {
		r.methods = make(map[string]Handler)
	}
	r.methods[name] = fn
}

// Unregister removes name, if present. It is a no-op otherwise.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.methods, name)
}

// Names reports the currently registered method names, in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return stringset.FromKeys(r.methods).Elements()
}

func (r *Registry) lookup(name string) (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn, ok := r.methods[name]
	return fn, ok
}

// Invoke runs the handler for req and returns the Response to send, or nil
// if req is a notification (no response is ever sent for a notification,
// successful or not, per spec.md §4.3).
//
// The lock guarding the method table is released before the handler runs —
// a long-running or blocking procedure must never stall Register or
// Unregister calls from other goroutines, mirroring the "invocation happens
// outside the lock" discipline of (*jrpc2.Server).invoke.
func (r *Registry) Invoke(ctx context.Context, req *Request) *Response {
	if err := req.ParseError(); err != nil {
		return r.errorOrNil(req, err)
	}

	fn, ok := r.lookup(req.Method())
	if !ok {
		err := Errorf(code.MethodNotFound, "method %q is not registered", req.Method())
		return r.errorOrNil(req, err)
	}

	result, err := fn(ctx, req)
	if err != nil {
		return r.errorOrNil(req, asError("", err))
	}
	if req.IsNotification() {
		return nil
	}
	resp, err := NewResultResponse(rawID(req), result)
	if err != nil {
		return NewErrorResponse(rawID(req), Errorf(code.InternalError, "encoding result: %v", err))
	}
	return resp
}

// errorOrNil builds an error Response for req, unless req is a notification,
// in which case the error is dropped silently: spec.md §4.3's "the caller is
// never told" rule for notifications applies to handler errors exactly as it
// does to method-not-found and invalid-params failures.
func (r *Registry) errorOrNil(req *Request, err *Error) *Response {
	if req.IsNotification() {
		return nil
	}
	return NewErrorResponse(rawID(req), err)
}

func rawID(req *Request) []byte {
	id, _ := req.ID()
	return id
}
