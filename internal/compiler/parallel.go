package compiler

import "sync"

type settled[R any] struct {
	Value R
	Err   error
}

// runSettled calls fn for every item with at most concurrency calls in flight
// and waits for all of them. Results keep the order of items; one failure does
// not stop the others.
func runSettled[T any, R any](items []T, concurrency int, fn func(T) (R, error)) []settled[R] {
	if len(items) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	sem := make(chan struct{}, concurrency)
	results := make([]settled[R], len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			v, err := fn(item)
			results[i] = settled[R]{Value: v, Err: err}
		}(i, item)
	}
	wg.Wait()
	return results
}
