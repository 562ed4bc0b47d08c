package fmindex

import (
	"math/bits"

	"github.com/aria-lang/cuba-go/internal/sequence"
)

// Separator marks a sequence boundary in the BWT.
const Separator uint8 = 0xFF

const (
	checkpointInterval = 64
	// DefaultSampleRate is the suffix array sampling distance.
	DefaultSampleRate = 16
)

// Table is one direction of an FM-index: the BWT, its rank checkpoints and,
// for the forward direction, a sampled suffix array.
type Table struct {
	BWT []uint8
	// Checkpoints[k*AlphabetSize+s] counts s in BWT[:k*checkpointInterval].
	Checkpoints []uint32
	// C[s] is the number of text characters smaller than s; C[AlphabetSize]
	// is the text length.
	C [sequence.AlphabetSize + 1]int

	SampleRate int
	// Marked has one bit per row whose suffix array value is sampled.
	Marked     []uint64
	MarkedRank []uint32
	Samples    []uint32
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.BWT)
}

func newTable(text []int32, sa []int32, numSeqs int, sampled bool, rate int) *Table {
	n := len(text)
	t := &Table{BWT: make([]uint8, n)}
	var counts [sequence.AlphabetSize]int
	for i, p := range sa {
		prev := int32(n - 1)
		if p > 0 {
			prev = p - 1
		}
		c := text[prev]
		if int(c) < numSeqs {
			t.BWT[i] = Separator
		} else {
			s := uint8(int(c) - numSeqs)
			t.BWT[i] = s
			counts[s]++
		}
	}

	t.Checkpoints = make([]uint32, (n/checkpointInterval+1)*sequence.AlphabetSize)
	var running [sequence.AlphabetSize]uint32
	for i := 0; i <= n; i++ {
		if i%checkpointInterval == 0 {
			base := (i / checkpointInterval) * sequence.AlphabetSize
			copy(t.Checkpoints[base:base+sequence.AlphabetSize], running[:])
		}
		if i < n && t.BWT[i] != Separator {
			running[t.BWT[i]]++
		}
	}

	acc := numSeqs
	for s := 0; s < sequence.AlphabetSize; s++ {
		t.C[s] = acc
		acc += counts[s]
	}
	t.C[sequence.AlphabetSize] = acc

	if sampled {
		t.sample(sa, rate)
	}
	return t
}

// sample keeps SA values that are multiples of rate and every sequence start,
// so that LF walks never cross a separator.
func (t *Table) sample(sa []int32, rate int) {
	n := len(sa)
	t.SampleRate = rate
	words := (n + 63) / 64
	t.Marked = make([]uint64, words)
	t.MarkedRank = make([]uint32, words+1)
	for row, p := range sa {
		if int(p)%rate == 0 || t.BWT[row] == Separator {
			t.Marked[row/64] |= 1 << (uint(row) % 64)
			t.Samples = append(t.Samples, uint32(p))
		}
	}
	for w := 0; w < words; w++ {
		t.MarkedRank[w+1] = t.MarkedRank[w] + uint32(bits.OnesCount64(t.Marked[w]))
	}
}

// occ counts s in BWT[:i].
func (t *Table) occ(s sequence.Symbol, i int) int {
	k := i / checkpointInterval
	count := int(t.Checkpoints[k*sequence.AlphabetSize+int(s)])
	for j := k * checkpointInterval; j < i; j++ {
		if t.BWT[j] == uint8(s) {
			count++
		}
	}
	return count
}

// occAll counts every symbol in BWT[:i].
func (t *Table) occAll(i int) [sequence.AlphabetSize]int {
	var out [sequence.AlphabetSize]int
	k := i / checkpointInterval
	base := k * sequence.AlphabetSize
	for s := range out {
		out[s] = int(t.Checkpoints[base+s])
	}
	for j := k * checkpointInterval; j < i; j++ {
		if c := t.BWT[j]; c != Separator {
			out[c]++
		}
	}
	return out
}

func (t *Table) backward(lo, hi int, s sequence.Symbol) (int, int) {
	if hi <= lo {
		return 0, 0
	}
	base := t.C[s]
	return base + t.occ(s, lo), base + t.occ(s, hi)
}

// split performs a backward step with s on [lo, hi) and also returns how
// many rows of the range are preceded by a character smaller than s,
// separators included.
func (t *Table) split(lo, hi int, s sequence.Symbol) (int, int, int) {
	if hi <= lo {
		return 0, 0, 0
	}
	occLo, occHi := t.occAll(lo), t.occAll(hi)
	less := hi - lo
	for b := 0; b < sequence.AlphabetSize; b++ {
		less -= occHi[b] - occLo[b]
	}
	for b := 0; b < int(s); b++ {
		less += occHi[b] - occLo[b]
	}
	nlo := t.C[s] + occLo[s]
	return nlo, nlo + occHi[s] - occLo[s], less
}

func (t *Table) marked(row int) bool {
	return t.Marked[row/64]&(1<<(uint(row)%64)) != 0
}

func (t *Table) markedRank(row int) int {
	w := row / 64
	mask := uint64(1)<<(uint(row)%64) - 1
	return int(t.MarkedRank[w]) + bits.OnesCount64(t.Marked[w]&mask)
}

// suffixAt recovers SA[row] by LF-walking to the nearest sampled row.
func (t *Table) suffixAt(row int) int {
	steps := 0
	for !t.marked(row) {
		c := sequence.Symbol(t.BWT[row])
		row = t.C[c] + t.occ(c, row)
		steps++
	}
	return int(t.Samples[t.markedRank(row)]) + steps
}
