package commands

import (
	"context"
	"time"

	jsonrpc2 "github.com/hashicorp/go-jsonrpc2"
	"github.com/hashicorp/go-jsonrpc2/codec"
)

// registerDemoMethods installs a small fixed set of procedures used to
// exercise the server from the "call" command and from manual testing —
// the rpc equivalent of the reference server.hpp doc comment's add/subtract
// example.
func registerDemoMethods(reg *jsonrpc2.Registry) {
	reg.Register("echo", func(_ context.Context, req *jsonrpc2.Request) (interface{}, error) {
		var v interface{}
		if req.HasParams() {
			if err := req.UnmarshalParams(&v); err != nil {
				return nil, err
			}
		}
		return v, nil
	})

	reg.Register("add", func(_ context.Context, req *jsonrpc2.Request) (interface{}, error) {
		var a, b float64
		if err := codec.ExtractParams(req.Params(), &a, &b); err != nil {
			return nil, err
		}
		return a + b, nil
	})

	reg.Register("time.now", func(context.Context, *jsonrpc2.Request) (interface{}, error) {
		return time.Now().UTC().Format(time.RFC3339Nano), nil
	})
}
