// Package reactor drives the single logical thread of control that client
// and server sessions use to sequence their state machines.
//
// Go has no equivalent of a cooperative, single-threaded io_context: every
// goroutine that touches the network runs concurrently by default. Reactor
// reproduces the *observable* contract of the reference event loop —
// Run/Start/Stop/Poll/RunFor/RunUntilIdle/IsRunning — by funneling all state
// transitions through a single completion queue that exactly one driving
// goroutine consumes at a time. Background goroutines that perform actual
// blocking I/O (accepting a connection, reading a response) never touch
// session state directly; they compute a result and hand the continuation
// that applies it to Spawn, which is the only method safe to call
// concurrently with a driver.
package reactor

import (
	"sync"
	"time"

	"github.com/hashicorp/go-jsonrpc2/code"
)

// idleGrace is how long RunUntilIdle waits for a just-Spawned continuation
// to land before concluding the queue is genuinely empty. Background I/O
// goroutines typically post within microseconds of completing; this is
// generous enough to absorb scheduler jitter without making callers wait
// noticeably in the common case where nothing more is coming.
const idleGrace = 5 * time.Millisecond

// A Reactor is a single-consumer queue of continuations ("completions" in
// the reference implementation's vocabulary). The zero value is not usable;
// construct one with New.
type Reactor struct {
	queue chan func()

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	stopped chan struct{} // closed by the loop goroutine when Start's loop exits
}

// New returns a Reactor with the given completion queue depth. A depth of 0
// is valid: Spawn will then block the poster until the driver catches up,
// which is a reasonable default for a reactor meant to run continuously.
func New(queueDepth int) *Reactor {
	return &Reactor{queue: make(chan func(), queueDepth)}
}

// IsRunning reports whether the reactor is currently being driven by Run or
// Start. It is also true while Poll, RunFor, or RunUntilIdle is executing,
// since those one-shot drives claim the same running flag for their duration.
func (r *Reactor) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Spawn enqueues fn to run on the reactor's driving goroutine. It is safe to
// call from any goroutine, running or not; if nothing is currently driving
// the reactor, fn waits in the queue until Run, Start, Poll, RunFor, or
// RunUntilIdle next consumes it.
func (r *Reactor) Spawn(fn func()) {
	r.queue <- fn
}

func (r *Reactor) beginRun() (chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil, code.IllegalState.Err()
	}
	r.running = true
	r.stop = make(chan struct{})
	return r.stop, nil
}

func (r *Reactor) endRun() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// Run drives the reactor on the calling goroutine until Stop is called. It
// returns code.IllegalState if the reactor is already running.
func (r *Reactor) Run() error {
	stop, err := r.beginRun()
	if err != nil {
		return err
	}
	defer r.endRun()
	r.loop(stop)
	return nil
}

// Start drives the reactor on a new goroutine and returns immediately. It
// returns code.IllegalState if the reactor is already running.
func (r *Reactor) Start() error {
	stop, err := r.beginRun()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.stopped = make(chan struct{})
	stopped := r.stopped
	r.mu.Unlock()
	go func() {
		defer close(stopped)
		defer r.endRun()
		r.loop(stop)
	}()
	return nil
}

func (r *Reactor) loop(stop chan struct{}) {
	for {
		select {
		case fn := <-r.queue:
			fn()
		case <-stop:
			return
		}
	}
}

// Stop ends a running Run or Start drive. If the reactor was driven by
// Start, Stop blocks until that goroutine has actually exited, so that
// IsRunning is guaranteed false by the time Stop returns. It is a no-op if
// the reactor is not running.
func (r *Reactor) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	stop, stopped := r.stop, r.stopped
	r.mu.Unlock()

	close(stop)
	if stopped != nil {
		<-stopped
	}
}

// Poll runs every completion currently queued, without blocking for more to
// arrive, and reports how many it ran. It returns code.IllegalState if the
// reactor is being driven by Run or Start.
func (r *Reactor) Poll() (int, error) {
	if _, err := r.beginRun(); err != nil {
		return 0, err
	}
	defer r.endRun()

	n := 0
	for {
		select {
		case fn := <-r.queue:
			fn()
			n++
		default:
			return n, nil
		}
	}
}

// RunFor drives the reactor, blocking to wait for and run completions, for
// at most d. It returns the number of completions run. It returns
// code.IllegalState if the reactor is being driven by Run or Start.
func (r *Reactor) RunFor(d time.Duration) (int, error) {
	if _, err := r.beginRun(); err != nil {
		return 0, err
	}
	defer r.endRun()

	deadline := time.NewTimer(d)
	defer deadline.Stop()
	n := 0
	for {
		select {
		case fn := <-r.queue:
			fn()
			n++
		case <-deadline.C:
			return n, nil
		}
	}
}

// RunUntilIdle drains the queue, including completions posted by the
// handlers it runs, until idleGrace elapses with nothing new arriving. It
// returns code.IllegalState if the reactor is being driven by Run or Start.
//
// This is necessarily a heuristic: Go gives no authoritative signal that a
// background goroutine will never post again. It is intended for test and
// diagnostic code that wants to wait for in-flight async work to settle, not
// as a substitute for an explicit completion signal in production code.
func (r *Reactor) RunUntilIdle() (int, error) {
	if _, err := r.beginRun(); err != nil {
		return 0, err
	}
	defer r.endRun()

	n := 0
	for {
		select {
		case fn := <-r.queue:
			fn()
			n++
		case <-time.After(idleGrace):
			return n, nil
		}
	}
}
