package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestExecutorRunsAllNodes(t *testing.T) {
	g := NewGraph()
	g.MustAdd(&Node{
		ID: "src",
		Run: func(ctx context.Context, in Results) (any, error) {
			return 10, nil
		},
	})
	g.MustAdd(&Node{
		ID:    "double",
		Needs: []NodeID{"src"},
		Run: func(ctx context.Context, in Results) (any, error) {
			v, err := Output[int](in, "src")
			if err != nil {
				return nil, err
			}
			return v * 2, nil
		},
	})
	g.MustAdd(&Node{
		ID:    "triple",
		Needs: []NodeID{"src"},
		Run: func(ctx context.Context, in Results) (any, error) {
			v, err := Output[int](in, "src")
			if err != nil {
				return nil, err
			}
			return v * 3, nil
		},
	})

	exec := Executor{}
	res, err := exec.Execute(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	d, _ := Output[int](res, "double")
	tr, _ := Output[int](res, "triple")
	if d != 20 || tr != 30 {
		t.Fatalf("got double=%d triple=%d", d, tr)
	}
}

func TestExecutorRetriesTransientFailure(t *testing.T) {
	var attempts atomic.Int32
	g := NewGraph()
	g.MustAdd(&Node{
		ID: "flaky",
		Run: func(ctx context.Context, in Results) (any, error) {
			if attempts.Add(1) < 3 {
				return nil, fmt.Errorf("transient")
			}
			return "ok", nil
		},
	})
	exec := Executor{Retries: 2}
	res, err := exec.Execute(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := Output[string](res, "flaky"); v != "ok" {
		t.Fatalf("got %q", v)
	}
	if attempts.Load() != 3 {
		t.Fatalf("got %d attempts, want 3", attempts.Load())
	}
}

func TestExecutorExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	g := NewGraph()
	g.MustAdd(&Node{
		ID: "broken",
		Run: func(ctx context.Context, in Results) (any, error) {
			attempts.Add(1)
			return nil, fmt.Errorf("still broken")
		},
	})
	exec := Executor{Retries: 2}
	if _, err := exec.Execute(context.Background(), g); err == nil {
		t.Fatal("expected error")
	}
	if attempts.Load() != 3 {
		t.Fatalf("got %d attempts, want 3", attempts.Load())
	}
}

func TestExecutorDoesNotRetryAbort(t *testing.T) {
	sentinel := errors.New("terminal condition")
	var attempts atomic.Int32
	g := NewGraph()
	g.MustAdd(&Node{
		ID: "aborting",
		Run: func(ctx context.Context, in Results) (any, error) {
			attempts.Add(1)
			return nil, Abort(sentinel)
		},
	})
	exec := Executor{Retries: 5}
	_, err := exec.Execute(context.Background(), g)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("sentinel lost in %v", err)
	}
	if attempts.Load() != 1 {
		t.Fatalf("got %d attempts, want 1", attempts.Load())
	}
}

func TestOutputTypeMismatch(t *testing.T) {
	res := Results{"n": "a string"}
	if _, err := Output[int](res, "n"); err == nil {
		t.Fatal("expected type mismatch error")
	}
	if _, err := Output[string](res, "missing"); err == nil {
		t.Fatal("expected missing node error")
	}
}
