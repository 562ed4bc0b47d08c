package alignment

import (
	"fmt"
	"strings"
)

// GapChar marks a gap column in an aligned sequence.
const GapChar = '-'

// Alignment is the result of aligning two sequences. Begin and End offsets
// are 0-based and end-exclusive; unpenalized end gaps are excluded from both
// the offsets and the aligned strings.
type Alignment struct {
	AlignedSeq1 string  `json:"aligned_seq1"`
	AlignedSeq2 string  `json:"aligned_seq2"`
	Score       int     `json:"score"`
	Begin1      int     `json:"begin1"`
	End1        int     `json:"end1"`
	Begin2      int     `json:"begin2"`
	End2        int     `json:"end2"`
	Mode        Mode    `json:"-"`
	Identity    float64 `json:"identity"`
}

func newAlignment(aligned1, aligned2 string, score, begin1, end1, begin2, end2 int, mode Mode) *Alignment {
	a := &Alignment{
		AlignedSeq1: aligned1,
		AlignedSeq2: aligned2,
		Score:       score,
		Begin1:      begin1,
		End1:        end1,
		Begin2:      begin2,
		End2:        end2,
		Mode:        mode,
	}
	if len(aligned1) > 0 {
		a.Identity = float64(a.MatchCount()) / float64(len(aligned1))
	}
	return a
}

// Length returns the number of alignment columns.
func (a *Alignment) Length() int {
	return len(a.AlignedSeq1)
}

// MatchCount returns the number of identical columns.
func (a *Alignment) MatchCount() int {
	count := 0
	for i := 0; i < len(a.AlignedSeq1); i++ {
		if a.AlignedSeq1[i] == a.AlignedSeq2[i] && a.AlignedSeq1[i] != GapChar {
			count++
		}
	}
	return count
}

// MismatchCount returns the number of gap-free columns that differ.
func (a *Alignment) MismatchCount() int {
	count := 0
	for i := 0; i < len(a.AlignedSeq1); i++ {
		if a.AlignedSeq1[i] != a.AlignedSeq2[i] &&
			a.AlignedSeq1[i] != GapChar && a.AlignedSeq2[i] != GapChar {
			count++
		}
	}
	return count
}

// GapsSeq1 returns the number of gap columns in sequence 1.
func (a *Alignment) GapsSeq1() int {
	return strings.Count(a.AlignedSeq1, string(GapChar))
}

// GapsSeq2 returns the number of gap columns in sequence 2.
func (a *Alignment) GapsSeq2() int {
	return strings.Count(a.AlignedSeq2, string(GapChar))
}

// TotalGaps returns the number of gap columns.
func (a *Alignment) TotalGaps() int {
	return a.GapsSeq1() + a.GapsSeq2()
}

// GapOpenings counts maximal gap runs in either sequence.
func (a *Alignment) GapOpenings() int {
	openings := 0
	inGap1, inGap2 := false, false

	for i := 0; i < len(a.AlignedSeq1); i++ {
		if a.AlignedSeq1[i] == GapChar && !inGap1 {
			openings++
			inGap1 = true
		} else if a.AlignedSeq1[i] != GapChar {
			inGap1 = false
		}

		if a.AlignedSeq2[i] == GapChar && !inGap2 {
			openings++
			inGap2 = true
		} else if a.AlignedSeq2[i] != GapChar {
			inGap2 = false
		}
	}

	return openings
}

// EditDistance returns the number of mismatch and gap columns.
func (a *Alignment) EditDistance() int {
	return a.MismatchCount() + a.TotalGaps()
}

// CIGAR renders the alignment with sequence 2 as the reference: I for a
// symbol only in sequence 1, D for a symbol only in sequence 2, = and X for
// identical and differing columns.
func (a *Alignment) CIGAR() string {
	if len(a.AlignedSeq1) == 0 {
		return ""
	}

	var cigar strings.Builder
	currentOp := byte(0)
	count := 0
	flush := func() {
		if count > 0 {
			fmt.Fprintf(&cigar, "%d%c", count, currentOp)
		}
	}

	for i := 0; i < len(a.AlignedSeq1); i++ {
		var op byte
		switch {
		case a.AlignedSeq2[i] == GapChar:
			op = 'I'
		case a.AlignedSeq1[i] == GapChar:
			op = 'D'
		case a.AlignedSeq1[i] == a.AlignedSeq2[i]:
			op = '='
		default:
			op = 'X'
		}

		if op == currentOp {
			count++
			continue
		}
		flush()
		currentOp = op
		count = 1
	}
	flush()

	return cigar.String()
}

// Format returns a three-line rendering followed by summary lines.
func (a *Alignment) Format() string {
	var matchLine strings.Builder
	for i := 0; i < len(a.AlignedSeq1); i++ {
		switch {
		case a.AlignedSeq1[i] == GapChar || a.AlignedSeq2[i] == GapChar:
			matchLine.WriteByte(' ')
		case a.AlignedSeq1[i] == a.AlignedSeq2[i]:
			matchLine.WriteByte('|')
		default:
			matchLine.WriteByte('.')
		}
	}

	return fmt.Sprintf("Seq1: %s\n      %s\nSeq2: %s\nScore: %d\nSeq1 range: [%d, %d)\nSeq2 range: [%d, %d)\nIdentity: %.1f%%\nCIGAR: %s",
		a.AlignedSeq1, matchLine.String(), a.AlignedSeq2, a.Score,
		a.Begin1, a.End1, a.Begin2, a.End2,
		a.Identity*100, a.CIGAR())
}

func (a *Alignment) String() string {
	return fmt.Sprintf("Alignment { mode: %s, score: %d, identity: %.1f%%, length: %d }",
		a.Mode, a.Score, a.Identity*100, a.Length())
}
