package util

import (
	"context"
	"errors"
	"sync"
)

// Parallel runs fn over inputs with at most limit workers. Every input is
// visited unless ctx is cancelled first. Errors from fn are joined.
func Parallel[T any](ctx context.Context, inputs []T, limit int, fn func(context.Context, T) error) error {
	if len(inputs) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > len(inputs) {
		limit = len(inputs)
	}

	tasks := make(chan T)

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				if err := fn(ctx, item); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, item := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case tasks <- item:
		}
	}
	close(tasks)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
