// Package sequence provides the five-letter DNA alphabet, encoded sequences
// and the immutable sequence collections that indexes are built from.
//
// Encoding never rejects input. Characters outside A, C, G, T (and U, read
// as T) collapse to the wildcard symbol so that downstream structures can
// take any FASTA/FASTQ payload as is.
package sequence

import "fmt"

// Sequence is an encoded nucleotide sequence with optional metadata.
type Sequence struct {
	ID          string
	Description string
	Symbols     []Symbol
}

// New encodes bases into a sequence. Empty input yields an empty sequence.
func New(bases string) *Sequence {
	return &Sequence{Symbols: EncodeString(bases)}
}

// FromSymbols wraps already encoded symbols. The slice is copied.
func FromSymbols(id string, symbols []Symbol) *Sequence {
	cp := make([]Symbol, len(symbols))
	copy(cp, symbols)
	return &Sequence{ID: id, Symbols: cp}
}

// Len returns the length of the sequence.
func (s *Sequence) Len() int {
	return len(s.Symbols)
}

// Bases returns the decoded sequence.
func (s *Sequence) Bases() string {
	return DecodeSymbols(s.Symbols)
}

// ReverseComplement returns the reverse complement of the sequence.
func (s *Sequence) ReverseComplement() *Sequence {
	n := len(s.Symbols)
	rc := make([]Symbol, n)
	for i, b := range s.Symbols {
		rc[n-1-i] = ComplementSymbol(b)
	}
	return &Sequence{ID: s.ID, Description: s.Description, Symbols: rc}
}

// GCContent calculates the proportion of G and C symbols.
func (s *Sequence) GCContent() float64 {
	if len(s.Symbols) == 0 {
		return 0.0
	}
	counts := s.BaseCounts()
	return float64(counts.G+counts.C) / float64(len(s.Symbols))
}

// BaseCounts holds per-symbol counts.
type BaseCounts struct {
	A int
	C int
	G int
	T int
	N int
}

// BaseCounts returns the count of each symbol.
func (s *Sequence) BaseCounts() BaseCounts {
	counts := BaseCounts{}
	for _, b := range s.Symbols {
		switch b {
		case A:
			counts.A++
		case C:
			counts.C++
		case G:
			counts.G++
		case T:
			counts.T++
		default:
			counts.N++
		}
	}
	return counts
}

func (s *Sequence) String() string {
	if s.ID != "" {
		return fmt.Sprintf(">%s\n%s", s.ID, s.Bases())
	}
	return s.Bases()
}

// Equal checks that two sequences carry the same symbols.
func (s *Sequence) Equal(other *Sequence) bool {
	if other == nil || len(s.Symbols) != len(other.Symbols) {
		return false
	}
	for i := range s.Symbols {
		if s.Symbols[i] != other.Symbols[i] {
			return false
		}
	}
	return true
}
