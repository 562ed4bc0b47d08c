package alignment

import (
	"context"
	"sync"

	"github.com/aria-lang/cuba-go/internal/search"
	"github.com/aria-lang/cuba-go/internal/sequence"
)

// Realignment is a search hit re-scored against its reference window.
// RefBegin and RefEnd locate the aligned span in the reference sequence.
type Realignment struct {
	Hit       search.Hit `json:"hit"`
	Alignment *Alignment `json:"alignment"`
	RefBegin  int        `json:"ref_begin"`
	RefEnd    int        `json:"ref_end"`
}

// RealignOptions configures RealignHits.
type RealignOptions struct {
	Scoring Scoring
	// Pad widens the reference window on both sides of the hit.
	Pad     int
	Threads int
}

// RealignHits aligns query against the reference window of every hit in
// parallel. The window starts Pad symbols before the hit offset and spans
// the query length plus the hit distance plus Pad. Overhangs of the window
// are free, the query is aligned end to end. Results follow hit order.
func RealignHits(ctx context.Context, coll *sequence.Collection, query []sequence.Symbol, hits []search.Hit, opts RealignOptions) ([]Realignment, error) {
	cfg := DefaultConfig()
	cfg.Scoring = opts.Scoring
	cfg.FreeEnds = FreeEndGaps{Seq1Leading: true, Seq1Trailing: true}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Pad < 0 {
		return nil, &ConfigError{Reason: "window padding must be non-negative"}
	}
	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]Realignment, len(hits))
	jobs := make(chan int, threads*2)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

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
					r, err := realign(ctx, coll, query, hits[i], cfg, opts.Pad)
					if err != nil {
						fail(err)
						return
					}
					out[i] = r
				}
			}
		}()
	}

feed:
	for i := range hits {
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
	return out, nil
}

func realign(ctx context.Context, coll *sequence.Collection, query []sequence.Symbol, hit search.Hit, cfg Config, pad int) (Realignment, error) {
	ref, err := coll.At(hit.SeqID)
	if err != nil {
		return Realignment{}, err
	}
	if hit.Offset < 0 || hit.Offset >= ref.Len() {
		return Realignment{}, &sequence.OutOfRangeError{Start: hit.Offset, End: hit.Offset + len(query), Length: ref.Len()}
	}
	window, start, err := coll.Window(hit.SeqID, hit.Offset-pad, hit.Offset+len(query)+hit.Distance+pad)
	if err != nil {
		return Realignment{}, err
	}
	aln, err := AlignContext(ctx, query, window, cfg)
	if err != nil {
		return Realignment{}, err
	}
	return Realignment{
		Hit:       hit,
		Alignment: aln,
		RefBegin:  start + aln.Begin2,
		RefEnd:    start + aln.End2,
	}, nil
}
