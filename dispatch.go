package jsonrpc2

import (
	"context"
	"sync"

	"github.com/hashicorp/go-jsonrpc2/code"
)

// Dispatch runs every request in reqs against reg, using pool to bound how
// many run concurrently, and returns the responses in the same order the
// requests were given. Notifications never contribute an entry to the
// result — neither a successful result nor an error is ever reported for
// one, per spec.md §4.3/§4.4 — so the returned slice may be shorter than
// reqs.
//
// Dispatch blocks Pool.Resize for its own duration: resizing a pool that is
// mid-dispatch would either starve already-acquired slots or silently widen
// concurrency for work that had already committed to the old bound.
func Dispatch(ctx context.Context, reg *Registry, pool *Pool, reqs []*Request) []*Response {
	pool.beginDispatch()
	defer pool.endDispatch()

	slots := make([]*Response, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		i, req := i, req
		wg.Add(1)
		if err := pool.Go(ctx, func() {
			defer wg.Done()
			slots[i] = reg.Invoke(ctx, req)
		}); err != nil {
			wg.Done()
			slots[i] = reg.errorOrNil(req, Errorf(code.FromError(err), "dispatch: %v", err))
		}
	}
	wg.Wait()

	out := make([]*Response, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
