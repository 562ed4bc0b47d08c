package alignment

import (
	"context"
	"math"

	"github.com/aria-lang/cuba-go/internal/sequence"
)

// negInf marks unreachable cells. It leaves room for repeated additions of
// small penalties without overflow.
const negInf = math.MinInt / 4

// ctxCheckRows is the number of matrix rows filled between context checks.
const ctxCheckRows = 64

// origin records which matrix a cell's optimum came from.
type origin uint8

const (
	fromM     origin = iota // match or mismatch column
	fromE                   // gap in sequence 1
	fromF                   // gap in sequence 2
	fromStart               // local alignment start
)

// best3 returns the largest of the three scores. Ties prefer a
// match/mismatch over a gap in sequence 1 over a gap in sequence 2.
func best3(m, e, f int) (int, origin) {
	best, from := m, fromM
	if e > best {
		best, from = e, fromE
	}
	if f > best {
		best, from = f, fromF
	}
	return best, from
}

// matrices holds the three Gotoh score matrices and their traceback origins,
// stored row-major with len(b)+1 columns.
type matrices struct {
	cols       int
	m, e, f    []int
	pm, pe, pf []origin
}

// Align computes an optimal alignment of a and b.
func Align(a, b []sequence.Symbol, cfg Config) (*Alignment, error) {
	return AlignContext(context.Background(), a, b, cfg)
}

// AlignContext is Align with cancellation checked while the matrices fill.
func AlignContext(ctx context.Context, a, b []sequence.Symbol, cfg Config) (*Alignment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	x, err := fill(ctx, a, b, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Mode == Local {
		return x.tracebackLocal(a, b), nil
	}
	return x.tracebackGlobal(a, b, cfg.FreeEnds), nil
}

// AlignPair aligns exactly two sequences.
func AlignPair(inputs [][]sequence.Symbol, cfg Config) (*Alignment, error) {
	if len(inputs) != 2 {
		return nil, &ConfigError{Reason: "pairwise alignment needs exactly two sequences"}
	}
	return Align(inputs[0], inputs[1], cfg)
}

// boundary returns the score of a leading gap run of length n.
func boundary(n int, free bool, sc Scoring) int {
	if free {
		return 0
	}
	return sc.GapCost(n)
}

func fill(ctx context.Context, a, b []sequence.Symbol, cfg Config) (*matrices, error) {
	rows, cols := len(a)+1, len(b)+1
	size := rows * cols
	x := &matrices{
		cols: cols,
		m:    make([]int, size),
		e:    make([]int, size),
		f:    make([]int, size),
		pm:   make([]origin, size),
		pe:   make([]origin, size),
		pf:   make([]origin, size),
	}
	for k := 0; k < size; k++ {
		x.m[k], x.e[k], x.f[k] = negInf, negInf, negInf
	}

	sc := cfg.Scoring
	local := cfg.Mode == Local
	if !local {
		x.m[0] = 0
		for j := 1; j < cols; j++ {
			x.e[j] = boundary(j, cfg.FreeEnds.Seq1Leading, sc)
		}
		for i := 1; i < rows; i++ {
			x.f[i*cols] = boundary(i, cfg.FreeEnds.Seq2Leading, sc)
		}
	}

	for i := 1; i < rows; i++ {
		if i%ctxCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for j := 1; j < cols; j++ {
			k := i*cols + j

			diag := k - cols - 1
			best, from := best3(x.m[diag], x.e[diag], x.f[diag])
			if local && best <= 0 {
				best, from = 0, fromStart
			}
			x.m[k], x.pm[k] = best+sc.Score(a[i-1], b[j-1]), from

			left := k - 1
			x.e[k], x.pe[k] = best3(x.m[left]+sc.GapOpen, x.e[left]+sc.GapExtend, x.f[left]+sc.GapOpen)

			up := k - cols
			x.f[k], x.pf[k] = best3(x.m[up]+sc.GapOpen, x.e[up]+sc.GapOpen, x.f[up]+sc.GapExtend)
		}
	}
	return x, nil
}

// tracebackGlobal picks the end cell allowed by the free trailing gaps,
// preferring the bottom-right corner, then the last row, then the last
// column, and walks back to the first row or column.
func (x *matrices) tracebackGlobal(a, b []sequence.Symbol, free FreeEndGaps) *Alignment {
	lastI, lastJ := len(a), len(b)

	endI, endJ := lastI, lastJ
	score, st := x.cell(lastI, lastJ)
	consider := func(i, j int) {
		if s, o := x.cell(i, j); s > score {
			score, st, endI, endJ = s, o, i, j
		}
	}
	if free.Seq1Trailing {
		for j := 0; j < lastJ; j++ {
			consider(lastI, j)
		}
	}
	if free.Seq2Trailing {
		for i := 0; i < lastI; i++ {
			consider(i, lastJ)
		}
	}

	var r1, r2 []byte
	i, j := endI, endJ
	for i > 0 || j > 0 {
		if i == 0 {
			if free.Seq1Leading {
				break
			}
			r1, r2 = append(r1, GapChar), append(r2, sequence.Decode(b[j-1]))
			j--
			continue
		}
		if j == 0 {
			if free.Seq2Leading {
				break
			}
			r1, r2 = append(r1, sequence.Decode(a[i-1])), append(r2, GapChar)
			i--
			continue
		}

		k := i*x.cols + j
		switch st {
		case fromM:
			r1, r2 = append(r1, sequence.Decode(a[i-1])), append(r2, sequence.Decode(b[j-1]))
			st = x.pm[k]
			i--
			j--
		case fromE:
			r1, r2 = append(r1, GapChar), append(r2, sequence.Decode(b[j-1]))
			st = x.pe[k]
			j--
		default:
			r1, r2 = append(r1, sequence.Decode(a[i-1])), append(r2, GapChar)
			st = x.pf[k]
			i--
		}
	}

	reverseBytes(r1)
	reverseBytes(r2)
	return newAlignment(string(r1), string(r2), score, i, endI, j, endJ, Global)
}

// tracebackLocal starts from the first maximal match cell in row-major
// order and stops at the cell where the segment started.
func (x *matrices) tracebackLocal(a, b []sequence.Symbol) *Alignment {
	rows := len(a) + 1
	best, endI, endJ := 0, 0, 0
	for i := 1; i < rows; i++ {
		for j := 1; j < x.cols; j++ {
			if s := x.m[i*x.cols+j]; s > best {
				best, endI, endJ = s, i, j
			}
		}
	}
	if best <= 0 {
		return newAlignment("", "", 0, 0, 0, 0, 0, Local)
	}

	var r1, r2 []byte
	i, j, st := endI, endJ, fromM
	for {
		k := i*x.cols + j
		if st == fromM {
			r1, r2 = append(r1, sequence.Decode(a[i-1])), append(r2, sequence.Decode(b[j-1]))
			st = x.pm[k]
			i--
			j--
			if st == fromStart {
				break
			}
			continue
		}
		if st == fromE {
			r1, r2 = append(r1, GapChar), append(r2, sequence.Decode(b[j-1]))
			st = x.pe[k]
			j--
			continue
		}
		r1, r2 = append(r1, sequence.Decode(a[i-1])), append(r2, GapChar)
		st = x.pf[k]
		i--
	}

	reverseBytes(r1)
	reverseBytes(r2)
	return newAlignment(string(r1), string(r2), best, i, endI, j, endJ, Local)
}

func (x *matrices) cell(i, j int) (int, origin) {
	k := i*x.cols + j
	return best3(x.m[k], x.e[k], x.f[k])
}

func reverseBytes(s []byte) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// ScoreOnly returns the optimal score without a traceback, keeping two rows
// of each matrix. It always equals Align(a, b, cfg).Score.
func ScoreOnly(a, b []sequence.Symbol, cfg Config) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	sc := cfg.Scoring
	free := cfg.FreeEnds
	local := cfg.Mode == Local
	lastI, lastJ := len(a), len(b)
	cols := lastJ + 1

	newRow := func() []int {
		r := make([]int, cols)
		for j := range r {
			r[j] = negInf
		}
		return r
	}
	pm, pe, pf := newRow(), newRow(), newRow()
	cm, ce, cf := newRow(), newRow(), newRow()

	best := negInf
	if local {
		best = 0
	} else {
		pm[0] = 0
		for j := 1; j < cols; j++ {
			pe[j] = boundary(j, free.Seq1Leading, sc)
		}
	}

	// candidates folds the end cells of row i into best.
	candidates := func(i int, m, e, f []int) {
		if local {
			return
		}
		from := lastJ
		if i == lastI && free.Seq1Trailing {
			from = 0
		}
		for j := from; j < cols; j++ {
			if j != lastJ || i == lastI || free.Seq2Trailing {
				s, _ := best3(m[j], e[j], f[j])
				best = max(best, s)
			}
		}
	}
	candidates(0, pm, pe, pf)

	for i := 1; i <= lastI; i++ {
		cm[0], ce[0], cf[0] = negInf, negInf, negInf
		if !local {
			cf[0] = boundary(i, free.Seq2Leading, sc)
		}
		for j := 1; j < cols; j++ {
			d, _ := best3(pm[j-1], pe[j-1], pf[j-1])
			if local && d <= 0 {
				d = 0
			}
			cm[j] = d + sc.Score(a[i-1], b[j-1])
			ce[j], _ = best3(cm[j-1]+sc.GapOpen, ce[j-1]+sc.GapExtend, cf[j-1]+sc.GapOpen)
			cf[j], _ = best3(pm[j]+sc.GapOpen, pe[j]+sc.GapOpen, pf[j]+sc.GapExtend)
			if local {
				best = max(best, cm[j])
			}
		}
		candidates(i, cm, ce, cf)
		pm, cm = cm, pm
		pe, ce = ce, pe
		pf, cf = cf, pf
	}
	return best, nil
}
