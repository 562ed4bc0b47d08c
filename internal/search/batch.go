package search

import (
	"context"
	"sync"

	"github.com/aria-lang/cuba-go/internal/fmindex"
	"github.com/aria-lang/cuba-go/internal/sequence"
)

// SearchBatch runs Search for every query on a pool of threads workers
// sharing idx. Results are returned in query order. The first error cancels
// the remaining work and is returned.
func SearchBatch(ctx context.Context, idx fmindex.Index, queries [][]sequence.Symbol, cfg Config, threads int) ([][]Hit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if threads < 1 {
		threads = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]Hit, len(queries))
	jobs := make(chan int, threads*2)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case i, ok := <-jobs:
					if !ok {
						return
					}
					hits, err := Search(ctx, idx, queries[i], cfg)
					if err != nil {
						errOnce.Do(func() {
							firstErr = err
							cancel()
						})
						return
					}
					results[i] = hits
				}
			}
		}()
	}

feed:
	for i := range queries {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
