package sequence

import (
	"encoding/binary"

	"github.com/zeebo/wyhash"
)

// Collection is an ordered, immutable set of sequences. The identity of a
// sequence is its insertion index.
type Collection struct {
	seqs []*Sequence
}

// NewCollection copies seqs into a new collection. Nil entries are stored
// as empty sequences so that identities stay dense.
func NewCollection(seqs ...*Sequence) *Collection {
	c := &Collection{seqs: make([]*Sequence, len(seqs))}
	for i, s := range seqs {
		if s == nil {
			c.seqs[i] = &Sequence{}
			continue
		}
		cp := FromSymbols(s.ID, s.Symbols)
		cp.Description = s.Description
		c.seqs[i] = cp
	}
	return c
}

// FromStrings encodes each string into a collection.
func FromStrings(bases ...string) *Collection {
	seqs := make([]*Sequence, len(bases))
	for i, b := range bases {
		seqs[i] = New(b)
	}
	return &Collection{seqs: seqs}
}

// Len returns the number of sequences.
func (c *Collection) Len() int {
	return len(c.seqs)
}

// At returns the sequence with identity id.
func (c *Collection) At(id int) (*Sequence, error) {
	if id < 0 || id >= len(c.seqs) {
		return nil, &IdentityError{ID: id, Count: len(c.seqs)}
	}
	return c.seqs[id], nil
}

// Symbols returns the encoded symbols of sequence id. The slice must not be
// modified.
func (c *Collection) Symbols(id int) []Symbol {
	return c.seqs[id].Symbols
}

// Lengths returns the length of every sequence in identity order.
func (c *Collection) Lengths() []int {
	out := make([]int, len(c.seqs))
	for i, s := range c.seqs {
		out[i] = s.Len()
	}
	return out
}

// TotalLength returns the sum of all sequence lengths.
func (c *Collection) TotalLength() int {
	total := 0
	for _, s := range c.seqs {
		total += s.Len()
	}
	return total
}

// Names returns the sequence identifiers in identity order.
func (c *Collection) Names() []string {
	out := make([]string, len(c.seqs))
	for i, s := range c.seqs {
		out[i] = s.ID
	}
	return out
}

// Window returns the symbols of sequence id in [start, end), clamped to the
// sequence bounds, together with the clamped start.
func (c *Collection) Window(id, start, end int) ([]Symbol, int, error) {
	if id < 0 || id >= len(c.seqs) {
		return nil, 0, &IdentityError{ID: id, Count: len(c.seqs)}
	}
	syms := c.seqs[id].Symbols
	if start < 0 {
		start = 0
	}
	if start > len(syms) {
		start = len(syms)
	}
	if end > len(syms) {
		end = len(syms)
	}
	if end < start {
		end = start
	}
	return syms[start:end:end], start, nil
}

// Fingerprint digests the identity order, lengths and symbols of the
// collection. Indexes record it so a co-loaded collection can be checked.
func (c *Collection) Fingerprint() uint64 {
	return Fingerprint(c.seqs)
}

// Fingerprint digests seqs the same way Collection.Fingerprint does.
func Fingerprint(seqs []*Sequence) uint64 {
	var (
		h      uint64
		lenBuf [8]byte
		buf    []byte
	)
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(seqs)))
	h = wyhash.Hash(lenBuf[:], h)
	for _, s := range seqs {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(s.Len()))
		h = wyhash.Hash(lenBuf[:], h)
		buf = buf[:0]
		for _, b := range s.Symbols {
			buf = append(buf, byte(b))
		}
		h = wyhash.Hash(buf, h)
	}
	return h
}

// Sequences returns the underlying sequences. The result must not be
// modified.
func (c *Collection) Sequences() []*Sequence {
	return c.seqs
}
