package jsonrpc2

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/hashicorp/go-jsonrpc2/code"
)

// clientSessionState mirrors client_session.hpp's lifecycle, made explicit
// here because Go's net/http gives no state callbacks of its own — the
// blocking calls below simply are the Resolving/Connecting/Writing/Reading
// steps, and state records which of them a call has reached. Nothing outside
// the session reads it.
type clientSessionState int32

const (
	stateIdle clientSessionState = iota
	stateResolving
	stateConnecting
	stateWritingRequest
	stateReadingResponse
	stateClosing
)

type clientSession struct {
	addr  string
	opts  *ClientOptions
	state clientSessionState
}

func newClientSession(addr string, opts *ClientOptions) *clientSession {
	return &clientSession{addr: addr, opts: opts}
}

// roundTrip sends reqs as a single HTTP/1.1 POST and parses the server's
// reply. batch controls only how the request body is framed (array vs.
// object); whether the *response* body turns out to be an array is
// determined by what the server actually sent, per ParseResponses.
func (s *clientSession) roundTrip(ctx context.Context, reqs []*Request, batch bool) ([]*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.requestTimeout())
	defer cancel()

	var body []byte
	var err error
	if batch {
		body, err = SerializeRequests(reqs)
	} else {
		body, err = SerializeRequest(reqs[0])
	}
	if err != nil {
		return nil, Errorf(code.InvalidParams, "encoding request: %v", err)
	}

	s.state = stateResolving
	host, port, err := net.SplitHostPort(s.addr)
	if err != nil {
		return nil, Errorf(code.InvalidParams, "invalid server address %q: %v", s.addr, err)
	}
	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		return nil, classifyNetError("resolving %q: %v", host, err)
	}

	dialCtx, cancel := s.dialContext(ctx)
	defer cancel()

	s.state = stateConnecting
	conn, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, classifyNetError("connecting to %q: %v", s.addr, err)
	}
	defer func() {
		s.state = stateClosing
		conn.Close()
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+s.addr+"/", bytes.NewReader(body))
	if err != nil {
		return nil, Errorf(code.InternalError, "building HTTP request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", s.opts.userAgent())
	httpReq.ContentLength = int64(len(body))

	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	}

	s.state = stateWritingRequest
	if err := httpReq.Write(conn); err != nil {
		return nil, classifyNetError("writing request: %v", err)
	}

	s.state = stateReadingResponse
	httpResp, err := http.ReadResponse(bufio.NewReader(conn), httpReq)
	if err != nil {
		return nil, classifyNetError("reading response: %v", err)
	}
	defer httpResp.Body.Close()

	respBody, err := readAllLimited(httpResp.Body)
	if err != nil {
		return nil, classifyNetError("reading response body: %v", err)
	}

	if httpResp.StatusCode == http.StatusNoContent || len(strings.TrimSpace(string(respBody))) == 0 {
		return nil, nil
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, Errorf(code.InternalError, "server returned HTTP status %d", httpResp.StatusCode)
	}

	rsps, _, err := ParseResponses(respBody)
	if err != nil {
		return nil, err
	}
	return rsps, nil
}

func (s *clientSession) dialContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.dialTimeout() <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.dialTimeout())
}

// classifyNetError builds an *Error from a transport failure, preserving a
// context-derived code.Cancelled/code.DeadlineExceeded where net/http
// already surfaces one (resolve and dial respect ctx directly), and
// otherwise falling back to code.InternalError — the same "opaque failure"
// rule asError applies — rather than the non-standard code.SystemError, so
// that a write/read-phase timeout bounded only by conn.SetDeadline (which
// surfaces as a plain net.Error, not a context error) still reports as
// InternalError with the underlying timeout message attached.
func classifyNetError(format string, args ...interface{}) *Error {
	err := args[len(args)-1].(error)
	c := code.FromError(err)
	if c == code.SystemError {
		c = code.InternalError
	}
	return Errorf(c, format, args...)
}

// readAllLimited caps how much of a response body we buffer, so a server
// that streams an unbounded or malformed body cannot run a client out of
// memory. 64 MiB comfortably exceeds any reasonable JSON-RPC payload.
func readAllLimited(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, 64<<20))
}
