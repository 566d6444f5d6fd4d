package concurrent

import (
	"context"
	"sync"
)

// WorkerPool bounds the number of goroutines that may run a task at once.
type WorkerPool struct {
	sem chan struct{}
}

// NewWorkerPool creates a pool that admits at most maxWorkers concurrent tasks.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &WorkerPool{sem: make(chan struct{}, maxWorkers)}
}

// Do runs fn once a worker slot is free, or returns early if ctx is done.
func (wp *WorkerPool) Do(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.sem <- struct{}{}:
	}
	defer func() { <-wp.sem }()
	return fn()
}

// Go schedules fn on the pool without waiting for it to finish. The returned
// channel receives the result exactly once.
func (wp *WorkerPool) Go(ctx context.Context, fn func() error) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- wp.Do(ctx, fn)
	}()
	return done
}

// ParallelMap applies fn to every item concurrently and returns the results
// in input order. Each goroutine writes only its own slot, so the output is
// index-aligned with items no matter in which order the calls finish. The
// first non-nil error is returned alongside the (possibly partial) results.
func ParallelMap[T, R any](ctx context.Context, items []T, fn func(T) (R, error), maxConcurrency int) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = len(items)
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))
	sem := make(chan struct{}, maxConcurrency)

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i := range items {
		go func(idx int) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()
			results[idx], errs[idx] = fn(items[idx])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// ParallelForEach runs fn over every item concurrently and reports the first
// error encountered.
func ParallelForEach[T any](ctx context.Context, items []T, fn func(T) error, maxConcurrency int) error {
	_, err := ParallelMap(ctx, items, func(item T) (struct{}, error) {
		return struct{}{}, fn(item)
	}, maxConcurrency)
	return err
}
