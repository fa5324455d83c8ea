// Package worker provides bounded-concurrency helpers for the pure retrieval
// stages and the rate-limited generation calls.
package worker

import (
	"context"
	"sync"
)

// RunOrdered executes jobs concurrently with at most workers in flight and
// returns results in job order. Retrieval jobs are pure functions over
// immutable snapshots, so parallelism never changes the output: position i of
// the result slice always belongs to jobs[i].
func RunOrdered[T any](ctx context.Context, workers int, jobs []func(ctx context.Context) (T, error)) ([]T, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]T, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, fn func(ctx context.Context) (T, error)) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx], errs[idx] = fn(ctx)
		}(i, job)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
