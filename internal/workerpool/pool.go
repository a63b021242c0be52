// Package workerpool runs blocking calls on a bounded set of goroutines so the
// caller can stop waiting on context cancellation.
package workerpool

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of blocking calls in flight.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New creates a pool with size workers. Sizes below 1 are treated as 1.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the worker bound.
func (p *Pool) Size() int { return p.size }

type result[T any] struct {
	val T
	err error
}

// Do waits for a free worker, runs fn on it and waits for the result. If ctx
// ends first Do returns ctx.Err(); fn keeps its worker until it returns, so a
// hung call can never push the pool past its bound. A panic in fn is returned
// as an error.
func Do[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, eris.Wrap(err, "workerpool: acquire")
	}

	done := make(chan result[T], 1)
	go func() {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: eris.New(fmt.Sprintf("workerpool: panic: %v", r))}
			}
		}()
		val, err := fn(ctx)
		done <- result[T]{val: val, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
