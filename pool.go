package jsonrpc2

import (
	"context"
	"fmt"
	"sync"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/hashicorp/go-jsonrpc2/code"
)

// A Pool is a bounded, resizable worker pool used to run the members of a
// batch concurrently. It replaces the boost::asio::thread_pool the reference
// registry lazily recreated on every concurrency change; here a resize is
// refused outright while a batch is in flight, rather than swapping the
// pool out from underneath running work.
type Pool struct {
	mu       sync.Mutex
	size     int
	sem      chan struct{}
	inflight int  // number of Dispatch calls currently using this pool
	running  bool // whether the Server owning this pool is between Serve and Close

	wg   sync.WaitGroup
	errs *multierror.Error
}

// NewPool returns a Pool that runs up to size tasks concurrently. A size
// less than 1 is treated as 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size, sem: make(chan struct{}, size)}
}

// Size reports the pool's current concurrency bound.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Resize changes the pool's concurrency bound. It fails with
// code.IllegalState while the owning Server is between Serve and Close, or
// while any Dispatch call is currently using the pool — an embedder must
// Close the server, resize, and Serve again rather than resize a pool live
// work is being scheduled against.
func (p *Pool) Resize(size int) error {
	if size < 1 {
		return Errorf(code.InvalidParams, "pool size must be at least 1, got %d", size)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return Errorf(code.IllegalState, "cannot resize pool while its server is running")
	}
	if p.inflight > 0 {
		return Errorf(code.IllegalState, "cannot resize pool while %d batch dispatch(es) are running", p.inflight)
	}
	p.size = size
	p.sem = make(chan struct{}, size)
	return nil
}

// setRunning records whether the Server owning this pool is currently
// between Serve and Close, so Resize can refuse to run underneath it.
func (p *Pool) setRunning(running bool) {
	p.mu.Lock()
	p.running = running
	p.mu.Unlock()
}

func (p *Pool) beginDispatch() {
	p.mu.Lock()
	p.inflight++
	p.mu.Unlock()
}

func (p *Pool) endDispatch() {
	p.mu.Lock()
	p.inflight--
	p.mu.Unlock()
}

func (p *Pool) acquire(ctx context.Context) (chan struct{}, error) {
	p.mu.Lock()
	sem := p.sem
	p.mu.Unlock()
	select {
	case sem <- struct{}{}:
		return sem, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Go runs fn in a goroutine bounded by the pool's concurrency limit,
// blocking until a slot is available or ctx is done. A panic inside fn is
// recovered and folded into the error Close() reports, so that one runaway
// task cannot take the whole pool down.
func (p *Pool) Go(ctx context.Context, fn func()) error {
	sem, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-sem }()
		defer func() {
			if r := recover(); r != nil {
				p.mu.Lock()
				p.errs = multierror.Append(p.errs, fmt.Errorf("panic in pooled task: %v", r))
				p.mu.Unlock()
			}
		}()
		fn()
	}()
	return nil
}

// Close drains the pool, waiting for every task already started to finish,
// and returns the aggregated panics (if any) recovered along the way. It
// does not prevent new calls to Go; callers that want a hard stop should
// stop calling Go first (e.g. by shutting down the server that feeds it).
func (p *Pool) Close() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs.ErrorOrNil()
}
