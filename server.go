package jsonrpc2

import (
	"net"
	"sync"
)

// A Server accepts HTTP/1.1 connections and, for each one, drives a
// ServerSession that reads JSON-RPC 2.0 request envelopes from the request
// body and dispatches them against a Registry. It plays the role Loop plays
// in the reference server package: one goroutine per accepted connection,
// tracked so Close can wait for them to finish.
type Server struct {
	reg  *Registry
	pool *Pool
	opts *ServerOptions
	log  logger

	mu      sync.Mutex
	lst     net.Listener
	wg      sync.WaitGroup
	closing bool
}

// NewServer returns a Server that dispatches to reg, running up to
// opts.Concurrency batch members concurrently (see ServerOptions).
func NewServer(reg *Registry, opts *ServerOptions) *Server {
	return &Server{
		reg:  reg,
		pool: NewPool(opts.concurrency()),
		opts: opts,
		log:  opts.logger(),
	}
}

// Serve accepts connections from lst until it is closed or Close is called,
// dispatching each to its own ServerSession. It blocks until accepting
// stops; the error it returns is nil if that happened because of Close.
func (s *Server) Serve(lst net.Listener) error {
	s.mu.Lock()
	s.lst = lst
	s.mu.Unlock()

	s.pool.setRunning(true)
	defer s.pool.setRunning(false)

	for {
		conn, err := lst.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			s.wg.Wait()
			if closing {
				return nil
			}
			return err
		}
		sess := newServerSession(conn, s.reg, s.pool, s.opts, s.log)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.run()
		}()
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(addr string) error {
	lst, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(lst)
}

// Close stops accepting new connections and waits for every session already
// accepted to end (including keep-alive sessions waiting for their next
// request) before returning. It does not
// forcibly terminate an in-flight session; ServerOptions.IdleTimeout and
// RequestTimeout bound how long that can take.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closing = true
	lst := s.lst
	s.mu.Unlock()

	var err error
	if lst != nil {
		err = lst.Close()
	}
	s.wg.Wait()
	if perr := s.pool.Close(); err == nil {
		err = perr
	}
	return err
}

// Registry returns the method registry this server dispatches to, so
// callers can register methods after construction.
func (s *Server) Registry() *Registry { return s.reg }

// Pool returns the batch worker pool this server dispatches through, so
// callers can Resize it while the server is not serving (Resize fails while
// Serve is running; see Pool.Resize).
func (s *Server) Pool() *Pool { return s.pool }
