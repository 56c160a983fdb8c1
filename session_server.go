package jsonrpc2

import (
	"bufio"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
)

// serverSessionState tracks the state machine of one accepted connection,
// grounded in server_session.hpp's do_read/process_request/do_write/
// do_close sequence. Unlike the reference implementation, there is no
// separate on_read/on_write callback split: net/http's blocking
// ReadRequest/Write calls play that role, with the session's goroutine
// standing in for the single-threaded continuation chain.
type serverSessionState int32

const (
	stateReading serverSessionState = iota
	stateProcessing
	stateWriting
	stateClosed
)

type serverSession struct {
	conn net.Conn
	br   *bufio.Reader
	reg  *Registry
	pool *Pool
	opts *ServerOptions
	log  logger

	state serverSessionState
}

func newServerSession(conn net.Conn, reg *Registry, pool *Pool, opts *ServerOptions, log logger) *serverSession {
	return &serverSession{
		conn: conn,
		br:   bufio.NewReader(conn),
		reg:  reg,
		pool: pool,
		opts: opts,
		log:  log,
	}
}

// run drives the session until the connection closes, either because the
// peer disconnected, asked for a non-keep-alive close, or sat idle past
// ServerOptions.IdleTimeout.
func (s *serverSession) run() {
	defer s.conn.Close()
	for {
		s.state = stateReading
		s.conn.SetReadDeadline(time.Now().Add(s.opts.idleTimeout()))
		req, err := http.ReadRequest(s.br)
		if err != nil {
			s.state = stateClosed
			return
		}

		s.state = stateProcessing
		resp, keepAlive := s.process(req)

		s.state = stateWriting
		s.conn.SetWriteDeadline(time.Now().Add(s.opts.requestTimeout()))
		if err := resp.Write(s.conn); err != nil {
			s.state = stateClosed
			return
		}
		if !keepAlive {
			s.state = stateClosed
			return
		}
	}
}

// process implements the HTTP-level contract of spec.md §4.5: only POST
// with an application/json body is accepted; everything else is rejected
// before the body is even parsed as JSON-RPC.
func (s *serverSession) process(req *http.Request) (*http.Response, bool) {
	keepAlive := !req.Close && req.ProtoAtLeast(1, 1)
	if v := req.Header.Get("Connection"); strings.EqualFold(v, "close") {
		keepAlive = false
	} else if strings.EqualFold(v, "keep-alive") {
		keepAlive = true
	}

	if req.Method != http.MethodPost {
		s.log("rejecting %s request: method not allowed", req.Method)
		return s.plainResponse(req, http.StatusMethodNotAllowed, keepAlive), keepAlive
	}
	if ct := req.Header.Get("Content-Type"); !isJSONContentType(ct) {
		s.log("rejecting request with Content-Type %q", ct)
		return s.plainResponse(req, http.StatusUnsupportedMediaType, keepAlive), keepAlive
	}

	s.conn.SetReadDeadline(time.Now().Add(s.opts.requestTimeout()))
	body, err := io.ReadAll(req.Body)
	if err != nil {
		// The client went away mid-body; there is no well-formed response to
		// send, so the caller should simply drop the connection.
		s.log("reading request body: %v", err)
		return s.plainResponse(req, http.StatusBadRequest, false), false
	}

	reqs, batch, perr := ParseRequests(body)
	if perr != nil {
		s.log("parsing request body: %v", perr)
		out, _ := SerializeResponse(NewErrorResponse(nil, asError("", perr)))
		return s.jsonResponse(req, http.StatusOK, out, keepAlive), keepAlive
	}

	ctx := req.Context()
	rpcLog := s.opts.rpcLog()
	for _, r := range reqs {
		rpcLog.LogRequest(ctx, r)
	}
	s.applyCheckRequest(ctx, reqs)
	resps := Dispatch(ctx, s.reg, s.pool, reqs)
	for _, r := range resps {
		rpcLog.LogResponse(ctx, r)
	}
	return s.responseFor(req, batch, resps, keepAlive), keepAlive
}

// applyCheckRequest runs ServerOptions.CheckRequest against every request
// that parsed cleanly, short-circuiting its dispatch with the check's error
// exactly as a method-not-found or invalid-params failure would, matching
// the reference setContext/ckreq gate that runs before a handler is ever
// assigned.
func (s *serverSession) applyCheckRequest(ctx context.Context, reqs []*Request) {
	check := s.opts.checkRequest()
	for _, req := range reqs {
		if req.parseErr != nil {
			continue
		}
		if err := check(ctx, req); err != nil {
			req.parseErr = asError("", err)
		}
	}
}

func (s *serverSession) responseFor(req *http.Request, batch bool, resps []*Response, keepAlive bool) *http.Response {
	if len(resps) == 0 {
		return s.plainResponse(req, http.StatusNoContent, keepAlive)
	}
	var body []byte
	var err error
	if batch {
		body, err = SerializeResponses(resps)
	} else {
		body, err = SerializeResponse(resps[0])
	}
	if err != nil {
		return s.plainResponse(req, http.StatusInternalServerError, false)
	}
	return s.jsonResponse(req, http.StatusOK, body, keepAlive)
}

func isJSONContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}

func (s *serverSession) jsonResponse(req *http.Request, status int, body []byte, keepAlive bool) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Request:    req,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(string(body))),
		Close:      !keepAlive,
	}
	resp.ContentLength = int64(len(body))
	return resp
}

func (s *serverSession) plainResponse(req *http.Request, status int, keepAlive bool) *http.Response {
	resp := &http.Response{
		StatusCode:    status,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Request:       req,
		Header:        http.Header{},
		Body:          http.NoBody,
		ContentLength: 0,
		Close:         !keepAlive,
	}
	return resp
}
