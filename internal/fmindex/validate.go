package fmindex

import (
	"fmt"
	"math/bits"

	"github.com/aria-lang/cuba-go/internal/sequence"
)

// Validate checks the structural consistency of a decoded index.
func Validate(idx Index) error {
	switch x := idx.(type) {
	case *FMIndex:
		if err := x.Meta.validate(); err != nil {
			return err
		}
		return x.Fwd.validate("forward", &x.Meta, true)
	case *BiFMIndex:
		if err := x.Meta.validate(); err != nil {
			return err
		}
		if err := x.Fwd.validate("forward", &x.Meta, true); err != nil {
			return err
		}
		return x.Rev.validate("reverse", &x.Meta, false)
	case nil:
		return fmt.Errorf("nil index")
	default:
		return fmt.Errorf("unsupported index type %T", idx)
	}
}

func (m *Meta) validate() error {
	if len(m.Starts) != len(m.Lengths) {
		return fmt.Errorf("boundary table has %d entries for %d sequences", len(m.Starts), len(m.Lengths))
	}
	pos := 0
	for i, l := range m.Lengths {
		if l < 0 {
			return fmt.Errorf("sequence %d has negative length", i)
		}
		if m.Starts[i] != pos {
			return fmt.Errorf("sequence %d starts at %d, expected %d", i, m.Starts[i], pos)
		}
		pos += l + 1
	}
	return nil
}

func (t *Table) validate(name string, m *Meta, sampled bool) error {
	if t == nil {
		return fmt.Errorf("%s table missing", name)
	}
	n := len(t.BWT)
	if n != m.textLen() {
		return fmt.Errorf("%s table has %d rows, metadata describes %d", name, n, m.textLen())
	}
	if len(t.Checkpoints) != (n/checkpointInterval+1)*sequence.AlphabetSize {
		return fmt.Errorf("%s table has %d checkpoints", name, len(t.Checkpoints))
	}
	seps := 0
	var running [sequence.AlphabetSize]uint32
	for i := 0; i <= n; i++ {
		if i%checkpointInterval == 0 {
			base := (i / checkpointInterval) * sequence.AlphabetSize
			for s := range running {
				if t.Checkpoints[base+s] != running[s] {
					return fmt.Errorf("%s table checkpoint %d disagrees with the BWT", name, i/checkpointInterval)
				}
			}
		}
		if i == n {
			break
		}
		switch c := t.BWT[i]; {
		case c == Separator:
			seps++
		case int(c) >= sequence.AlphabetSize:
			return fmt.Errorf("%s table holds invalid symbol %d", name, c)
		default:
			running[c]++
		}
	}
	if seps != len(m.Lengths) {
		return fmt.Errorf("%s table has %d separators for %d sequences", name, seps, len(m.Lengths))
	}
	acc := seps
	for s := 0; s < sequence.AlphabetSize; s++ {
		if t.C[s] != acc {
			return fmt.Errorf("%s table has inconsistent C array at symbol %d", name, s)
		}
		acc += int(running[s])
	}
	if t.C[sequence.AlphabetSize] != acc {
		return fmt.Errorf("%s table has inconsistent C array", name)
	}
	if !sampled {
		return nil
	}

	if t.SampleRate < 1 {
		return fmt.Errorf("%s table has sample rate %d", name, t.SampleRate)
	}
	words := (n + 63) / 64
	if len(t.Marked) != words || len(t.MarkedRank) != words+1 {
		return fmt.Errorf("%s table has malformed sample bitmap", name)
	}
	total := 0
	for w, word := range t.Marked {
		if int(t.MarkedRank[w]) != total {
			return fmt.Errorf("%s table has malformed sample ranks", name)
		}
		total += bits.OnesCount64(word)
	}
	if int(t.MarkedRank[words]) != total || len(t.Samples) != total {
		return fmt.Errorf("%s table has %d samples for %d marked rows", name, len(t.Samples), total)
	}
	for row := 0; row < n; row++ {
		if t.BWT[row] == Separator && !t.marked(row) {
			return fmt.Errorf("%s table does not sample sequence start at row %d", name, row)
		}
	}
	for _, p := range t.Samples {
		if int(p) >= n {
			return fmt.Errorf("%s table sample %d out of range", name, p)
		}
	}
	return nil
}
