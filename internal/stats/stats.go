// Package stats summarizes the sequence collections an index is built from.
package stats

import (
	"fmt"
	"sort"

	"github.com/aria-lang/cuba-go/internal/sequence"
)

// Summary holds aggregate figures for a collection.
type Summary struct {
	Count          int     `json:"count"`
	Empty          int     `json:"empty"`
	TotalBases     int     `json:"total_bases"`
	MinLength      int     `json:"min_length"`
	MaxLength      int     `json:"max_length"`
	MeanLength     float64 `json:"mean_length"`
	MedianLength   int     `json:"median_length"`
	N50            int     `json:"n50"`
	GCContent      float64 `json:"gc_content"`
	TotalAmbiguous int     `json:"ambiguous_bases"`
}

// Summarize computes the summary of coll. An empty collection yields the
// zero summary.
func Summarize(coll *sequence.Collection) Summary {
	var s Summary
	s.Count = coll.Len()
	if s.Count == 0 {
		return s
	}

	lengths := coll.Lengths()
	var gc, canonical int
	for id := 0; id < s.Count; id++ {
		counts := baseCounts(coll.Symbols(id))
		gc += counts.G + counts.C
		canonical += counts.A + counts.C + counts.G + counts.T
		s.TotalAmbiguous += counts.N
		if lengths[id] == 0 {
			s.Empty++
		}
	}

	sorted := append([]int(nil), lengths...)
	sort.Ints(sorted)
	s.MinLength = sorted[0]
	s.MaxLength = sorted[len(sorted)-1]
	for _, l := range sorted {
		s.TotalBases += l
	}
	s.MeanLength = float64(s.TotalBases) / float64(s.Count)

	mid := s.Count / 2
	if s.Count%2 == 0 {
		s.MedianLength = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		s.MedianLength = sorted[mid]
	}
	s.N50 = n50(sorted, s.TotalBases)

	// Wildcards are excluded from the GC denominator.
	if canonical > 0 {
		s.GCContent = float64(gc) / float64(canonical)
	}
	return s
}

// n50 returns the length L such that sequences of length >= L hold at least
// half of the bases. sorted must be ascending.
func n50(sorted []int, total int) int {
	if total == 0 {
		return 0
	}
	running := 0
	for i := len(sorted) - 1; i >= 0; i-- {
		running += sorted[i]
		if 2*running >= total {
			return sorted[i]
		}
	}
	return 0
}

func baseCounts(symbols []sequence.Symbol) sequence.BaseCounts {
	return (&sequence.Sequence{Symbols: symbols}).BaseCounts()
}

func (s Summary) String() string {
	return fmt.Sprintf("%d sequences (%d empty), %d bases, length %d-%d (mean %.1f, median %d, N50 %d), GC %.1f%%, %d ambiguous",
		s.Count, s.Empty, s.TotalBases, s.MinLength, s.MaxLength, s.MeanLength,
		s.MedianLength, s.N50, s.GCContent*100, s.TotalAmbiguous)
}

// LengthHistogram buckets sequence lengths into equal-width bins.
type LengthHistogram struct {
	Min    int   `json:"min"`
	Max    int   `json:"max"`
	Width  int   `json:"width"`
	Counts []int `json:"counts"`
}

// NewLengthHistogram builds a histogram over the lengths in coll.
func NewLengthHistogram(coll *sequence.Collection, bins int) (*LengthHistogram, error) {
	if bins < 1 {
		return nil, fmt.Errorf("number of bins must be positive, got %d", bins)
	}
	h := &LengthHistogram{Counts: make([]int, bins), Width: 1}
	lengths := coll.Lengths()
	if len(lengths) == 0 {
		return h, nil
	}

	h.Min, h.Max = lengths[0], lengths[0]
	for _, l := range lengths {
		h.Min = min(h.Min, l)
		h.Max = max(h.Max, l)
	}
	h.Width = max(1, (h.Max-h.Min+bins)/bins)
	for _, l := range lengths {
		bin := min((l-h.Min)/h.Width, bins-1)
		h.Counts[bin]++
	}
	return h, nil
}
