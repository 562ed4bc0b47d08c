// Package search enumerates approximate occurrences of a query in an
// FM-index under a bounded edit model.
//
// The exploration is a branch-and-bound over the suffix intervals of the
// index, driven by an explicit stack of frames. On a unidirectional index
// the query is matched right to left. On a bidirectional index the query is
// split into MaxErrors+1 pieces; at least one piece of any qualifying
// occurrence matches exactly, so every piece is used as an exact seed that
// is then extended rightwards and leftwards with errors.
//
// Deletions (reference symbols absent from the query) are only placed
// between two query symbols. Occurrences are keyed by (sequence, start) and
// keep the cheapest distance at which they were reached.
package search

import (
	"context"

	"github.com/aria-lang/cuba-go/internal/fmindex"
	"github.com/aria-lang/cuba-go/internal/sequence"
)

// cancelCheckInterval is the number of frames processed between context
// checks.
const cancelCheckInterval = 1024

// Hit is one occurrence of a query. The end of the matched region is not
// reported; it depends on the edits and is recovered by alignment.
type Hit struct {
	SeqID    int `json:"seq_id"`
	Offset   int `json:"offset"`
	Distance int `json:"distance"`
}

// Search returns the hits of query in idx under cfg. An empty query or an
// index without matching text yields an empty result.
func Search(ctx context.Context, idx fmindex.Index, query []sequence.Symbol, cfg Config) ([]Hit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(query) == 0 || idx.TextLen() == 0 {
		return nil, nil
	}

	bounds := newLowerBounds(idx, query)

	if cfg.Policy == AllHits {
		return run(ctx, idx, query, cfg, bounds)
	}
	for d := 0; d <= cfg.MaxErrors; d++ {
		hits, err := run(ctx, idx, query, cfg.capped(d), bounds)
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			return hits, nil
		}
	}
	return nil, nil
}

type phase uint8

const (
	extendLeft phase = iota
	extendRight
)

// frame is one pending state of the exploration. The interval matches the
// reference text aligned so far against query[left:right].
type frame struct {
	iv          fmindex.Interval
	left, right int
	subs        int
	ins         int
	dels        int
	depth       int
	phase       phase
}

func (f *frame) cost() int {
	return f.subs + f.ins + f.dels
}

type engine struct {
	idx    fmindex.Index
	query  []sequence.Symbol
	cfg    Config
	bounds *lowerBounds
	stack  []frame
	hits   *collector
}

func run(ctx context.Context, idx fmindex.Index, query []sequence.Symbol, cfg Config, bounds *lowerBounds) ([]Hit, error) {
	e := &engine{
		idx:    idx,
		query:  query,
		cfg:    cfg,
		bounds: bounds,
		hits:   newCollector(),
	}

	m := len(query)
	pieces := cfg.MaxErrors + 1
	if idx.Kind() == fmindex.Bidirectional && m >= pieces {
		e.seed(pieces)
	} else {
		e.stack = append(e.stack, frame{iv: idx.Root(), left: m, right: m, phase: extendLeft})
	}

	if err := e.drain(ctx); err != nil {
		return nil, err
	}
	return e.hits.list(), nil
}

// seed pushes one exact match per query piece. Pieces are pushed last to
// first so the first piece is explored first.
func (e *engine) seed(pieces int) {
	m := len(e.query)
	for j := pieces - 1; j >= 0; j-- {
		lo, hi := j*m/pieces, (j+1)*m/pieces
		iv := e.idx.Root()
		for i := hi - 1; i >= lo && !iv.Empty(); i-- {
			iv = e.idx.ExtendLeft(iv, e.query[i])
		}
		if iv.Empty() {
			continue
		}
		e.stack = append(e.stack, frame{iv: iv, left: lo, right: hi, depth: hi - lo, phase: extendRight})
	}
}

func (e *engine) drain(ctx context.Context) error {
	for pops := 0; len(e.stack) > 0; pops++ {
		if pops%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		f := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]

		if f.cost()+e.bounds.prefix[f.left]+e.bounds.suffix[f.right] > e.cfg.MaxErrors {
			continue
		}
		if f.phase == extendRight && f.right == len(e.query) {
			f.phase = extendLeft
		}
		if f.phase == extendRight {
			e.stepRight(f)
			continue
		}
		if f.left == 0 {
			if f.depth > 0 {
				e.hits.add(e.idx.Locate(f.iv), f.cost())
			}
			continue
		}
		e.stepLeft(f)
	}
	return nil
}

// stepLeft branches on query[f.left-1]. Children are pushed so that the
// exact extension is explored first.
func (e *engine) stepLeft(f frame) {
	q := e.query[f.left-1]
	spare := f.cost() < e.cfg.MaxErrors

	if spare && f.dels < e.cfg.MaxDeletions && f.left < f.right {
		for s := sequence.Symbol(0); s < sequence.AlphabetSize; s++ {
			if iv := e.idx.ExtendLeft(f.iv, s); !iv.Empty() {
				c := f
				c.iv, c.dels, c.depth = iv, f.dels+1, f.depth+1
				e.stack = append(e.stack, c)
			}
		}
	}
	if spare && f.ins < e.cfg.MaxInsertions {
		c := f
		c.left, c.ins = f.left-1, f.ins+1
		e.stack = append(e.stack, c)
	}
	var exact fmindex.Interval
	for s := sequence.Symbol(0); s < sequence.AlphabetSize; s++ {
		iv := e.idx.ExtendLeft(f.iv, s)
		if iv.Empty() {
			continue
		}
		if s == q {
			exact = iv
			continue
		}
		if spare && f.subs < e.cfg.MaxSubstitutions {
			c := f
			c.iv, c.left, c.subs, c.depth = iv, f.left-1, f.subs+1, f.depth+1
			e.stack = append(e.stack, c)
		}
	}
	if !exact.Empty() {
		c := f
		c.iv, c.left, c.depth = exact, f.left-1, f.depth+1
		e.stack = append(e.stack, c)
	}
}

// stepRight branches on query[f.right].
func (e *engine) stepRight(f frame) {
	q := e.query[f.right]
	spare := f.cost() < e.cfg.MaxErrors

	if spare && f.dels < e.cfg.MaxDeletions && f.left < f.right {
		for s := sequence.Symbol(0); s < sequence.AlphabetSize; s++ {
			if iv, ok := e.idx.ExtendRight(f.iv, s); ok && !iv.Empty() {
				c := f
				c.iv, c.dels, c.depth = iv, f.dels+1, f.depth+1
				e.stack = append(e.stack, c)
			}
		}
	}
	if spare && f.ins < e.cfg.MaxInsertions {
		c := f
		c.right, c.ins = f.right+1, f.ins+1
		e.stack = append(e.stack, c)
	}
	var exact fmindex.Interval
	for s := sequence.Symbol(0); s < sequence.AlphabetSize; s++ {
		iv, ok := e.idx.ExtendRight(f.iv, s)
		if !ok || iv.Empty() {
			continue
		}
		if s == q {
			exact = iv
			continue
		}
		if spare && f.subs < e.cfg.MaxSubstitutions {
			c := f
			c.iv, c.right, c.subs, c.depth = iv, f.right+1, f.subs+1, f.depth+1
			e.stack = append(e.stack, c)
		}
	}
	if !exact.Empty() {
		c := f
		c.iv, c.right, c.depth = exact, f.right+1, f.depth+1
		e.stack = append(e.stack, c)
	}
}

// lowerBounds holds, for every split point of the query, a lower bound on
// the errors needed to place the unmatched prefix and suffix. Each bound
// counts disjoint chunks of the query that occur nowhere in the index.
type lowerBounds struct {
	prefix []int // prefix[i] bounds query[:i]
	suffix []int // suffix[i] bounds query[i:]
}

func newLowerBounds(idx fmindex.Index, query []sequence.Symbol) *lowerBounds {
	m := len(query)
	b := &lowerBounds{prefix: make([]int, m+1), suffix: make([]int, m+1)}

	for end := 1; end <= m; end++ {
		b.prefix[end] = absentChunks(idx, query[:end])
	}

	iv := idx.Root()
	failures := 0
	for i := m - 1; i >= 0; i-- {
		iv = idx.ExtendLeft(iv, query[i])
		if iv.Empty() {
			failures++
			iv = idx.Root()
		}
		b.suffix[i] = failures
	}
	return b
}

// absentChunks scans seg right to left, counting each maximal chunk whose
// extension leaves the index.
func absentChunks(idx fmindex.Index, seg []sequence.Symbol) int {
	iv := idx.Root()
	failures := 0
	for i := len(seg) - 1; i >= 0; i-- {
		iv = idx.ExtendLeft(iv, seg[i])
		if iv.Empty() {
			failures++
			iv = idx.Root()
		}
	}
	return failures
}

// collector deduplicates positions, keeping the minimal distance and the
// order of first discovery.
type collector struct {
	at   map[fmindex.Position]int
	hits []Hit
}

func newCollector() *collector {
	return &collector{at: make(map[fmindex.Position]int)}
}

func (c *collector) add(positions []fmindex.Position, distance int) {
	for _, p := range positions {
		if i, ok := c.at[p]; ok {
			if distance < c.hits[i].Distance {
				c.hits[i].Distance = distance
			}
			continue
		}
		c.at[p] = len(c.hits)
		c.hits = append(c.hits, Hit{SeqID: p.SeqID, Offset: p.Offset, Distance: distance})
	}
}

func (c *collector) list() []Hit {
	return c.hits
}
