// Package fmindex builds FM-indexes over sequence collections.
//
// The indexed text is every sequence of a collection followed by its own
// separator. Separators sort before all symbols and among themselves by
// sequence identity, so each suffix of the concatenation is unique and a
// match can never run across a sequence boundary.
//
// Two shapes are provided behind the Index interface: FMIndex supports
// extension to the left only, BiFMIndex keeps a second table over the
// reversed sequences and supports extension on both ends of a match.
// Indexes are immutable after Build and safe for concurrent readers.
package fmindex

import (
	"fmt"
	"sort"

	"github.com/aria-lang/cuba-go/internal/sequence"
)

// Kind selects the index shape.
type Kind int

const (
	// Unidirectional supports backward (leftward) extension only.
	Unidirectional Kind = iota
	// Bidirectional supports extension on both ends of a match.
	Bidirectional
)

func (k Kind) String() string {
	switch k {
	case Unidirectional:
		return "unidirectional"
	case Bidirectional:
		return "bidirectional"
	default:
		return "unknown"
	}
}

// ParseKind parses "unidirectional"/"fmi" or "bidirectional"/"bifmi".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "unidirectional", "uni", "fmi":
		return Unidirectional, nil
	case "bidirectional", "bi", "bifmi":
		return Bidirectional, nil
	default:
		return 0, fmt.Errorf("unknown index kind %q", s)
	}
}

// Interval is a range of suffix array rows matching the current pattern.
// RevLo is the first row of the reversed pattern in the reverse table and is
// only meaningful for bidirectional indexes.
type Interval struct {
	Lo    int
	Hi    int
	RevLo int
}

// Size returns the number of rows in the interval.
func (iv Interval) Size() int {
	if iv.Hi < iv.Lo {
		return 0
	}
	return iv.Hi - iv.Lo
}

// Empty reports whether the interval has no rows.
func (iv Interval) Empty() bool {
	return iv.Hi <= iv.Lo
}

// Position identifies an occurrence: a sequence identity and a 0-based offset.
type Position struct {
	SeqID  int
	Offset int
}

// Index is the capability shared by both index shapes.
type Index interface {
	Kind() Kind
	// Root is the interval of the empty pattern.
	Root() Interval
	// ExtendLeft prepends s to the pattern of iv.
	ExtendLeft(iv Interval, s sequence.Symbol) Interval
	// ExtendRight appends s to the pattern of iv. It reports false on
	// unidirectional indexes.
	ExtendRight(iv Interval, s sequence.Symbol) (Interval, bool)
	// Locate resolves every row of iv to a position, in row order.
	Locate(iv Interval) []Position
	NumSequences() int
	Lengths() []int
	Fingerprint() uint64
	TextLen() int
}

// Meta translates text coordinates back to sequence coordinates.
type Meta struct {
	Lengths     []int
	Starts      []int
	Fingerprint uint64
}

func newMeta(coll *sequence.Collection) Meta {
	lengths := coll.Lengths()
	starts := make([]int, len(lengths))
	pos := 0
	for i, l := range lengths {
		starts[i] = pos
		pos += l + 1
	}
	return Meta{Lengths: lengths, Starts: starts, Fingerprint: coll.Fingerprint()}
}

func (m *Meta) resolve(textPos int) Position {
	id := sort.Search(len(m.Starts), func(i int) bool { return m.Starts[i] > textPos }) - 1
	return Position{SeqID: id, Offset: textPos - m.Starts[id]}
}

func (m *Meta) textLen() int {
	n := len(m.Lengths)
	for _, l := range m.Lengths {
		n += l
	}
	return n
}

// FMIndex is the unidirectional index.
type FMIndex struct {
	Fwd  *Table
	Meta Meta
}

// BiFMIndex is the bidirectional index. Fwd indexes the collection, Rev the
// collection with every sequence reversed; both share identities.
type BiFMIndex struct {
	Fwd  *Table
	Rev  *Table
	Meta Meta
}

var (
	_ Index = (*FMIndex)(nil)
	_ Index = (*BiFMIndex)(nil)
)

func (x *FMIndex) Kind() Kind { return Unidirectional }

func (x *FMIndex) Root() Interval {
	return Interval{Lo: 0, Hi: x.Fwd.Len()}
}

func (x *FMIndex) ExtendLeft(iv Interval, s sequence.Symbol) Interval {
	lo, hi := x.Fwd.backward(iv.Lo, iv.Hi, s)
	return Interval{Lo: lo, Hi: hi}
}

func (x *FMIndex) ExtendRight(iv Interval, s sequence.Symbol) (Interval, bool) {
	return Interval{}, false
}

func (x *FMIndex) Locate(iv Interval) []Position {
	return locate(x.Fwd, &x.Meta, iv)
}

func (x *FMIndex) NumSequences() int   { return len(x.Meta.Lengths) }
func (x *FMIndex) Lengths() []int      { return x.Meta.Lengths }
func (x *FMIndex) Fingerprint() uint64 { return x.Meta.Fingerprint }
func (x *FMIndex) TextLen() int        { return x.Fwd.Len() }

func (x *BiFMIndex) Kind() Kind { return Bidirectional }

func (x *BiFMIndex) Root() Interval {
	return Interval{Lo: 0, Hi: x.Fwd.Len(), RevLo: 0}
}

// ExtendLeft runs a backward step on the forward table. The reverse interval
// moves past the rows whose preceding character sorts before s.
func (x *BiFMIndex) ExtendLeft(iv Interval, s sequence.Symbol) Interval {
	lo, hi, less := x.Fwd.split(iv.Lo, iv.Hi, s)
	return Interval{Lo: lo, Hi: hi, RevLo: iv.RevLo + less}
}

// ExtendRight runs a backward step on the reverse table.
func (x *BiFMIndex) ExtendRight(iv Interval, s sequence.Symbol) (Interval, bool) {
	rlo, rhi, less := x.Rev.split(iv.RevLo, iv.RevLo+iv.Size(), s)
	lo := iv.Lo + less
	return Interval{Lo: lo, Hi: lo + (rhi - rlo), RevLo: rlo}, true
}

func (x *BiFMIndex) Locate(iv Interval) []Position {
	return locate(x.Fwd, &x.Meta, iv)
}

func (x *BiFMIndex) NumSequences() int   { return len(x.Meta.Lengths) }
func (x *BiFMIndex) Lengths() []int      { return x.Meta.Lengths }
func (x *BiFMIndex) Fingerprint() uint64 { return x.Meta.Fingerprint }
func (x *BiFMIndex) TextLen() int        { return x.Fwd.Len() }

func locate(t *Table, m *Meta, iv Interval) []Position {
	if iv.Empty() {
		return nil
	}
	out := make([]Position, 0, iv.Size())
	for row := iv.Lo; row < iv.Hi; row++ {
		out = append(out, m.resolve(t.suffixAt(row)))
	}
	return out
}
