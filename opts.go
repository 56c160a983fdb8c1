package jsonrpc2

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	multierror "github.com/hashicorp/go-multierror"
)

type logger = func(string, ...interface{})

// An RPCLogger receives callbacks recording the receipt of requests and the
// delivery of responses. Callbacks run synchronously with request
// processing, exactly as in (*jrpc2.Server)'s RPCLogger.
type RPCLogger interface {
	LogRequest(ctx context.Context, req *Request)
	LogResponse(ctx context.Context, rsp *Response)
}

type nullRPCLogger struct{}

func (nullRPCLogger) LogRequest(context.Context, *Request)   {}
func (nullRPCLogger) LogResponse(context.Context, *Response) {}

// ServerOptions control the behavior of a ServerSession. A nil
// *ServerOptions provides sensible defaults.
type ServerOptions struct {
	// If not nil, send debug logs here.
	Logger *log.Logger

	// If not nil, the methods of this value are called to log each request
	// received and each response returned.
	RPCLog RPCLogger

	// Bounds how many batch members run concurrently. A value less than 1
	// uses the larger of 2 and runtime.NumCPU().
	Concurrency int

	// How long a connection may sit idle between requests before the server
	// closes it. Zero uses a 30 second default, matching the reference
	// server_session's inactivity timeout.
	IdleTimeout time.Duration

	// How long the server will wait to finish reading a request body or
	// writing a response before giving up on the connection. Zero uses a 30
	// second default.
	RequestTimeout time.Duration

	// If set, this function is called with the context and the decoded
	// request before it is dispatched. If it reports a non-nil error, the
	// request fails with that error without invoking its handler.
	CheckRequest func(ctx context.Context, req *Request) error
}

// Validate reports a descriptive error if o sets any field to a value the
// server cannot operate with. It aggregates every problem found, rather than
// stopping at the first, using go-multierror the way the reference CLI
// aggregates flag validation failures.
func (o *ServerOptions) Validate() error {
	if o == nil {
		return nil
	}
	var result *multierror.Error
	if o.Concurrency < 0 {
		result = multierror.Append(result, fmt.Errorf("concurrency must not be negative, got %d", o.Concurrency))
	}
	if o.IdleTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("idle timeout must not be negative, got %v", o.IdleTimeout))
	}
	if o.RequestTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("request timeout must not be negative, got %v", o.RequestTimeout))
	}
	return result.ErrorOrNil()
}

func (o *ServerOptions) logger() logger {
	if o == nil || o.Logger == nil {
		return func(string, ...interface{}) {}
	}
	l := o.Logger
	return func(msg string, args ...interface{}) { l.Output(2, fmt.Sprintf(msg, args...)) }
}

func (o *ServerOptions) rpcLog() RPCLogger {
	if o == nil || o.RPCLog == nil {
		return nullRPCLogger{}
	}
	return o.RPCLog
}

func (o *ServerOptions) concurrency() int {
	if o == nil || o.Concurrency < 1 {
		return max(2, runtime.NumCPU())
	}
	return o.Concurrency
}

func (o *ServerOptions) idleTimeout() time.Duration {
	if o == nil || o.IdleTimeout <= 0 {
		return 30 * time.Second
	}
	return o.IdleTimeout
}

func (o *ServerOptions) requestTimeout() time.Duration {
	if o == nil || o.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return o.RequestTimeout
}

func (o *ServerOptions) checkRequest() func(context.Context, *Request) error {
	if o == nil || o.CheckRequest == nil {
		return func(context.Context, *Request) error { return nil }
	}
	return o.CheckRequest
}

// ClientOptions control the behavior of a ClientSession. A nil
// *ClientOptions provides sensible defaults.
type ClientOptions struct {
	// If not nil, send debug logs here.
	Logger *log.Logger

	// How long Dial may take to establish the underlying connection. Zero
	// uses a 10 second default.
	DialTimeout time.Duration

	// How long a single Call or Notify may take end to end, including
	// connect, write, and read. Zero uses a 30 second default.
	RequestTimeout time.Duration

	// Sent as the User-Agent header on every request. Empty uses a default
	// identifying this module.
	UserAgent string
}

// Validate reports a descriptive error if o sets any field to a value the
// client cannot operate with.
func (o *ClientOptions) Validate() error {
	if o == nil {
		return nil
	}
	var result *multierror.Error
	if o.DialTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("dial timeout must not be negative, got %v", o.DialTimeout))
	}
	if o.RequestTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("request timeout must not be negative, got %v", o.RequestTimeout))
	}
	return result.ErrorOrNil()
}

func (o *ClientOptions) logger() logger {
	if o == nil || o.Logger == nil {
		return func(string, ...interface{}) {}
	}
	l := o.Logger
	return func(msg string, args ...interface{}) { l.Output(2, fmt.Sprintf(msg, args...)) }
}

func (o *ClientOptions) dialTimeout() time.Duration {
	if o == nil || o.DialTimeout <= 0 {
		return 10 * time.Second
	}
	return o.DialTimeout
}

func (o *ClientOptions) requestTimeout() time.Duration {
	if o == nil || o.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return o.RequestTimeout
}

const defaultUserAgent = "go-jsonrpc2-client/1.0"

func (o *ClientOptions) userAgent() string {
	if o == nil || o.UserAgent == "" {
		return defaultUserAgent
	}
	return o.UserAgent
}
