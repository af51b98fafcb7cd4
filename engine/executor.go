package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// StageObserver receives stage lifecycle events, e.g. for metrics.
// Implementations must be safe for concurrent use: independent branches
// of the graph execute at the same time.
type StageObserver interface {
	StageStarted(id NodeID)
	StageFinished(id NodeID, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) StageStarted(NodeID)                        {}
func (nopObserver) StageFinished(NodeID, time.Duration, error) {}

// Executor runs a validated dataflow graph. A node starts only after all
// nodes it needs have finished (every shuffle is a full barrier), but
// independent branches run concurrently. A failing node is retried up to
// Retries times from its unchanged inputs; a run is all-or-nothing.
type Executor struct {
	// Retries is the number of re-executions allowed per node after its
	// first failed attempt.
	Retries int
	// Observer may be nil.
	Observer StageObserver
}

// Execute runs every node of g and returns all node outputs. On failure
// the partial results must be discarded by the caller.
func (e *Executor) Execute(ctx context.Context, g *Graph) (Results, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataflow graph: %w", err)
	}
	order, err := g.topoOrder()
	if err != nil {
		return nil, err
	}
	obs := e.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	results := make(Results, len(order))
	var mu sync.Mutex
	done := make(map[NodeID]chan struct{}, len(order))
	for _, n := range order {
		done[n.ID] = make(chan struct{})
	}

	group, gctx := errgroupWithLimit(ctx, len(order))
	for _, n := range order {
		n := n
		group.Go(func() error {
			for _, dep := range n.Needs {
				select {
				case <-done[dep]:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			mu.Lock()
			in := make(Results, len(n.Needs))
			for _, dep := range n.Needs {
				in[dep] = results[dep]
			}
			mu.Unlock()

			out, err := e.runNode(gctx, n, in, obs)
			if err != nil {
				return err
			}
			mu.Lock()
			results[n.ID] = out
			mu.Unlock()
			close(done[n.ID])
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Executor) runNode(ctx context.Context, n *Node, in Results, obs StageObserver) (any, error) {
	attempts := e.Retries + 1
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Tracef("[Executor] run node %s (attempt %d/%d)", n.ID, attempt, attempts)
		obs.StageStarted(n.ID)
		started := time.Now()
		out, err := n.Run(ctx, in)
		obs.StageFinished(n.ID, time.Since(started), err)
		if err == nil {
			log.Tracef("[Executor] node %s done in %s", n.ID, time.Since(started))
			return out, nil
		}
		lastErr = err
		if isAbort(err) {
			log.Errorf("[Executor] node %s aborted the run: %v", n.ID, err)
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		log.Warnf("[Executor] node %s attempt %d failed: %v", n.ID, attempt, err)
	}
	return nil, fmt.Errorf("node %s failed after %d attempts: %w", n.ID, attempts, lastErr)
}

// Abort marks err as terminal: the executor fails the run immediately
// instead of retrying the node. Retrying only helps transient task
// failures; corpus-level conditions stay wrong on every attempt.
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return abortError{err: err}
}

type abortError struct{ err error }

func (e abortError) Error() string { return e.err.Error() }
func (e abortError) Unwrap() error { return e.err }

func isAbort(err error) bool {
	var ae abortError
	return errors.As(err, &ae)
}

// Output fetches a typed node result from an Execute call.
func Output[T any](res Results, id NodeID) (T, error) {
	var zero T
	v, ok := res[id]
	if !ok {
		return zero, fmt.Errorf("no result for node %s", id)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("node %s produced %T, not %T", id, v, zero)
	}
	return typed, nil
}
