package jsonrpc2

import (
	"context"
	"testing"
)

func TestDispatch_preservesOrderAndDropsNotifications(t *testing.T) {
	reg := NewRegistry()
	reg.Register("square", func(_ context.Context, req *Request) (interface{}, error) {
		var n int
		if err := req.UnmarshalParams(&n); err != nil {
			return nil, err
		}
		return n * n, nil
	})

	var reqs []*Request
	for i, n := range []int{2, 3, 4} {
		if i == 1 {
			notif, err := NewNotification("square", n)
			if err != nil {
				t.Fatalf("NewNotification: %v", err)
			}
			reqs = append(reqs, notif)
			continue
		}
		req := mustRequest(t, "square", n, i+1)
		reqs = append(reqs, req)
	}

	pool := NewPool(4)
	resps := Dispatch(context.Background(), reg, pool, reqs)
	if err := pool.Close(); err != nil {
		t.Fatalf("pool.Close: %v", err)
	}

	if len(resps) != 2 {
		t.Fatalf("len(resps) = %d, want 2 (the notification contributes nothing)", len(resps))
	}
	var a, b int
	if err := resps[0].UnmarshalResult(&a); err != nil {
		t.Fatalf("resps[0]: %v", err)
	}
	if err := resps[1].UnmarshalResult(&b); err != nil {
		t.Fatalf("resps[1]: %v", err)
	}
	if a != 4 || b != 16 {
		t.Errorf("a, b = %d, %d, want 4, 16", a, b)
	}
}

func TestDispatch_empty(t *testing.T) {
	reg := NewRegistry()
	pool := NewPool(2)
	resps := Dispatch(context.Background(), reg, pool, nil)
	if len(resps) != 0 {
		t.Errorf("Dispatch(nil) = %v, want empty", resps)
	}
}
