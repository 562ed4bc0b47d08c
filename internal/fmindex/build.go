package fmindex

import (
	"sync"

	"github.com/aria-lang/cuba-go/internal/sequence"
)

type buildOptions struct {
	sampleRate int
}

// Option customizes Build.
type Option func(*buildOptions)

// WithSampleRate sets the suffix array sampling distance. Smaller values
// make Locate faster and the index larger. Values below 1 are ignored.
func WithSampleRate(rate int) Option {
	return func(o *buildOptions) {
		if rate >= 1 {
			o.sampleRate = rate
		}
	}
}

// Build indexes coll. The result depends only on the collection contents and
// order. An empty collection, or one holding only empty sequences, yields an
// index that matches nothing.
func Build(coll *sequence.Collection, kind Kind, opts ...Option) Index {
	o := buildOptions{sampleRate: DefaultSampleRate}
	for _, opt := range opts {
		opt(&o)
	}

	meta := newMeta(coll)
	numSeqs := coll.Len()

	if kind != Bidirectional {
		text := concat(coll, false)
		return &FMIndex{
			Fwd:  newTable(text, suffixArray(text), numSeqs, true, o.sampleRate),
			Meta: meta,
		}
	}

	var fwd, rev *Table
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		text := concat(coll, false)
		fwd = newTable(text, suffixArray(text), numSeqs, true, o.sampleRate)
	}()
	go func() {
		defer wg.Done()
		text := concat(coll, true)
		rev = newTable(text, suffixArray(text), numSeqs, false, 0)
	}()
	wg.Wait()

	return &BiFMIndex{Fwd: fwd, Rev: rev, Meta: meta}
}

// concat lays out the text to index. Separator i has value i and symbol s
// has value numSeqs+s, which gives every separator its own rank below all
// symbols.
func concat(coll *sequence.Collection, reversed bool) []int32 {
	numSeqs := coll.Len()
	text := make([]int32, 0, coll.TotalLength()+numSeqs)
	for id := 0; id < numSeqs; id++ {
		syms := coll.Symbols(id)
		if reversed {
			for i := len(syms) - 1; i >= 0; i-- {
				text = append(text, int32(numSeqs+int(syms[i])))
			}
		} else {
			for _, s := range syms {
				text = append(text, int32(numSeqs+int(s)))
			}
		}
		text = append(text, int32(id))
	}
	return text
}

// suffixArray sorts the suffixes of text by prefix doubling, with one
// pair of counting sorts per round, in O(n log n). The text must end with a
// character that occurs nowhere else and hold no negative values.
func suffixArray(text []int32) []int32 {
	n := len(text)
	sa := make([]int32, n)
	if n == 0 {
		return sa
	}
	rank := make([]int32, n)
	copy(rank, text)
	classes := 0
	for _, c := range text {
		classes = max(classes, int(c)+1)
	}
	count := make([]int32, max(classes, n))
	order := make([]int32, n)
	tmp := make([]int32, n)
	for i := range order {
		order[i] = int32(i)
	}
	countingSort(order, rank, classes, count, sa)

	for k := 1; ; k <<= 1 {
		second := func(i int32) int32 {
			if j := int(i) + k; j < n {
				return rank[j]
			}
			return -1
		}
		// Order by the rank k symbols on, suffixes running off the end first,
		// then stably by the own rank.
		p := 0
		for i := max(n-k, 0); i < n; i++ {
			order[p] = int32(i)
			p++
		}
		for _, s := range sa {
			if int(s) >= k {
				order[p] = s - int32(k)
				p++
			}
		}
		countingSort(order, rank, classes, count, sa)

		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			prev, cur := sa[i-1], sa[i]
			tmp[cur] = tmp[prev]
			if rank[prev] != rank[cur] || second(prev) != second(cur) {
				tmp[cur]++
			}
		}
		copy(rank, tmp)
		classes = int(rank[sa[n-1]]) + 1
		if classes == n {
			break
		}
	}
	return sa
}

// countingSort writes in to out, stably ordered by key.
func countingSort(in, key []int32, classes int, count, out []int32) {
	for c := 0; c < classes; c++ {
		count[c] = 0
	}
	for _, i := range in {
		count[key[i]]++
	}
	var sum int32
	for c := 0; c < classes; c++ {
		sum, count[c] = sum+count[c], sum
	}
	for _, i := range in {
		out[count[key[i]]] = i
		count[key[i]]++
	}
}
