package reactor

import (
	"testing"
	"time"

	"github.com/hashicorp/go-jsonrpc2/code"
)

func TestReactor_poll(t *testing.T) {
	r := New(4)
	var ran []int
	r.Spawn(func() { ran = append(ran, 1) })
	r.Spawn(func() { ran = append(ran, 2) })

	n, err := r.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if n != 2 {
		t.Errorf("Poll ran %d completions, want 2", n)
	}
	if len(ran) != 2 || ran[0] != 1 || ran[1] != 2 {
		t.Errorf("ran = %v, want [1 2] in order", ran)
	}
}

func TestReactor_startStop(t *testing.T) {
	r := New(4)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}

	done := make(chan struct{})
	r.Spawn(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("spawned completion never ran")
	}

	r.Stop()
	if r.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestReactor_runAlreadyRunningIsIllegalState(t *testing.T) {
	r := New(1)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	err := r.Run()
	if err == nil {
		t.Fatal("Run() on an already-running reactor = nil, want error")
	}
	if code.FromError(err) != code.IllegalState {
		t.Errorf("code = %v, want %v", code.FromError(err), code.IllegalState)
	}
}

func TestReactor_runFor(t *testing.T) {
	r := New(4)
	r.Spawn(func() {})
	r.Spawn(func() {})
	n, err := r.RunFor(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("RunFor: %v", err)
	}
	if n != 2 {
		t.Errorf("RunFor ran %d completions, want 2", n)
	}
}

func TestReactor_runUntilIdleDrainsChainedCompletions(t *testing.T) {
	r := New(4)
	count := 0
	var step func()
	step = func() {
		count++
		if count < 3 {
			r.Spawn(step)
		}
	}
	r.Spawn(step)

	n, err := r.RunUntilIdle()
	if err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
	if n != 3 {
		t.Errorf("RunUntilIdle ran %d completions, want 3", n)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}
