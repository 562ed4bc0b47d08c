package search

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/aria-lang/cuba-go/internal/fmindex"
	"github.com/aria-lang/cuba-go/internal/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inf = 1 << 30

// exact is a zero-error configuration.
var exact = NewConfig(0, 0, 0, 0, AllHits)

// editOracle computes, for every start position, the cheapest placement of
// query that begins there. Deletions must sit between two query symbols and
// at least one reference symbol must be covered.
func editOracle(seqs []string, query string, k int) map[fmindex.Position]int {
	out := make(map[fmindex.Position]int)
	m := len(query)
	for id, s := range seqs {
		for o := 0; o < len(s); o++ {
			maxLen := min(len(s)-o, m+k)
			t := s[o : o+maxLen]
			dp := make([][]int, m+1)
			for i := range dp {
				dp[i] = make([]int, maxLen+1)
			}
			for j := 1; j <= maxLen; j++ {
				dp[0][j] = inf
			}
			for i := 1; i <= m; i++ {
				dp[i][0] = i
				for j := 1; j <= maxLen; j++ {
					diag := dp[i-1][j-1]
					if query[i-1] != t[j-1] {
						diag++
					}
					dp[i][j] = min(diag, dp[i-1][j]+1, dp[i][j-1]+1)
				}
			}
			best := inf
			for j := 1; j <= maxLen; j++ {
				diag := dp[m-1][j-1]
				if query[m-1] != t[j-1] {
					diag++
				}
				best = min(best, diag, dp[m-1][j]+1)
			}
			if best <= k {
				out[fmindex.Position{SeqID: id, Offset: o}] = best
			}
		}
	}
	return out
}

func hammingOracle(seqs []string, query string, k int) map[fmindex.Position]int {
	out := make(map[fmindex.Position]int)
	for id, s := range seqs {
		for o := 0; o+len(query) <= len(s); o++ {
			d := 0
			for i := range query {
				if s[o+i] != query[i] {
					d++
				}
			}
			if d <= k {
				out[fmindex.Position{SeqID: id, Offset: o}] = d
			}
		}
	}
	return out
}

func asMap(hits []Hit) map[fmindex.Position]int {
	out := make(map[fmindex.Position]int, len(hits))
	for _, h := range hits {
		out[fmindex.Position{SeqID: h.SeqID, Offset: h.Offset}] = h.Distance
	}
	return out
}

func sortHits(hits []Hit) []Hit {
	out := append([]Hit(nil), hits...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeqID != out[j].SeqID {
			return out[i].SeqID < out[j].SeqID
		}
		return out[i].Offset < out[j].Offset
	})
	return out
}

func randomDNA(r *rand.Rand, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte("ACGT"[r.Intn(4)])
	}
	return sb.String()
}

// mutate applies n random edits to s.
func mutate(r *rand.Rand, s string, n int) string {
	b := []byte(s)
	for e := 0; e < n && len(b) > 1; e++ {
		pos := r.Intn(len(b))
		switch r.Intn(3) {
		case 0:
			b[pos] = "ACGT"[r.Intn(4)]
		case 1:
			b = append(b[:pos], append([]byte{"ACGT"[r.Intn(4)]}, b[pos:]...)...)
		default:
			b = append(b[:pos], b[pos+1:]...)
		}
	}
	return string(b)
}

func buildBoth(seqs ...string) map[string]fmindex.Index {
	coll := sequence.FromStrings(seqs...)
	return map[string]fmindex.Index{
		"unidirectional": fmindex.Build(coll, fmindex.Unidirectional, fmindex.WithSampleRate(4)),
		"bidirectional":  fmindex.Build(coll, fmindex.Bidirectional, fmindex.WithSampleRate(4)),
	}
}

func enc(s string) []sequence.Symbol {
	return sequence.EncodeString(s)
}

func TestExactOccurrences(t *testing.T) {
	for name, idx := range buildBoth("ACGTACGT") {
		t.Run(name, func(t *testing.T) {
			hits, err := Search(context.Background(), idx, enc("ACGT"), exact)
			require.NoError(t, err)
			assert.ElementsMatch(t, []Hit{{0, 0, 0}, {0, 4, 0}}, hits)
		})
	}
}

func TestSingleSubstitutionScenario(t *testing.T) {
	seqs := []string{"ACGTTTGT"}
	for name, idx := range buildBoth(seqs...) {
		t.Run(name, func(t *testing.T) {
			subsOnly := NewConfig(1, 1, 0, 0, AllHits)
			hits, err := Search(context.Background(), idx, enc("ACGT"), subsOnly)
			require.NoError(t, err)
			assert.Equal(t, []Hit{{SeqID: 0, Offset: 0, Distance: 0}}, hits)
			assert.Equal(t, hammingOracle(seqs, "ACGT", 1), asMap(hits))

			all := NewConfig(1, -1, -1, -1, AllHits)
			hits, err = Search(context.Background(), idx, enc("ACGT"), all)
			require.NoError(t, err)
			assert.Contains(t, hits, Hit{SeqID: 0, Offset: 0, Distance: 0})
			assert.Equal(t, editOracle(seqs, "ACGT", 1), asMap(hits))
		})
	}
}

func TestIndels(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		query string
		cfg   Config
		want  []Hit
	}{
		{"deletion inside", "ACGTTGCA", "ACGTGCA", NewConfig(1, 0, 0, 1, AllHits), []Hit{{0, 0, 1}}},
		{"insertion inside", "ACGTGCA", "ACGTTGCA", NewConfig(1, 0, 1, 0, AllHits), []Hit{{0, 0, 1}}},
		{"no leading deletion", "ACGT", "CGT", NewConfig(1, 0, 0, 1, AllHits), []Hit{{0, 1, 0}}},
		{"no trailing deletion", "ACGTA", "ACGT", NewConfig(1, 0, 0, 1, AllHits), []Hit{{0, 0, 0}}},
		{"indel needs budget", "ACGTTGCA", "ACGTGCA", exact, nil},
		{"leading insertion", "CCGTAAAA", "ACGT", NewConfig(1, 0, 1, 0, AllHits), []Hit{{0, 1, 1}}},
	}

	for _, tt := range tests {
		for name, idx := range buildBoth(tt.text) {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				hits, err := Search(context.Background(), idx, enc(tt.query), tt.cfg)
				require.NoError(t, err)
				assert.Equal(t, tt.want, sortHits(hits))
			})
		}
	}
}

func TestMatchesEditOracle(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	seqs := []string{randomDNA(r, 150), randomDNA(r, 90), "", randomDNA(r, 60)}
	indexes := buildBoth(seqs...)

	for trial := 0; trial < 30; trial++ {
		id := []int{0, 1, 3}[r.Intn(3)]
		start := r.Intn(len(seqs[id]) - 12)
		query := mutate(r, seqs[id][start:start+10], r.Intn(3))
		k := r.Intn(3)
		want := editOracle(seqs, query, k)

		for name, idx := range indexes {
			hits, err := Search(context.Background(), idx, enc(query), NewConfig(k, -1, -1, -1, AllHits))
			require.NoError(t, err)
			assert.Equal(t, want, asMap(hits), "%s query=%s k=%d", name, query, k)
			assert.Len(t, hits, len(asMap(hits)), "duplicate positions")
		}
	}
}

func TestMatchesHammingOracle(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	seqs := []string{randomDNA(r, 200), randomDNA(r, 80)}
	indexes := buildBoth(seqs...)

	for trial := 0; trial < 30; trial++ {
		query := randomDNA(r, 6+r.Intn(5))
		k := r.Intn(3)
		want := hammingOracle(seqs, query, k)
		for name, idx := range indexes {
			hits, err := Search(context.Background(), idx, enc(query), NewConfig(k, k, 0, 0, AllHits))
			require.NoError(t, err)
			assert.Equal(t, want, asMap(hits), "%s query=%s k=%d", name, query, k)
		}
	}
}

func TestUnidirectionalAndBidirectionalAgree(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	seqs := []string{randomDNA(r, 300), randomDNA(r, 120)}
	indexes := buildBoth(seqs...)

	for trial := 0; trial < 25; trial++ {
		query := mutate(r, seqs[0][trial*5:trial*5+12], 1)
		for _, cfg := range []Config{
			NewConfig(2, -1, -1, -1, AllHits),
			NewConfig(2, 1, 1, 1, AllHits),
			NewConfig(1, 0, -1, 0, AllHits),
			NewConfig(2, -1, -1, -1, BestHits),
		} {
			uni, err := Search(context.Background(), indexes["unidirectional"], enc(query), cfg)
			require.NoError(t, err)
			bi, err := Search(context.Background(), indexes["bidirectional"], enc(query), cfg)
			require.NoError(t, err)
			assert.Equal(t, sortHits(uni), sortHits(bi), "query=%s cfg=%+v", query, cfg)
		}
	}
}

func TestShortQueryFallsBackToBacktracking(t *testing.T) {
	// Two characters cannot be split into four pieces.
	for name, idx := range buildBoth("ACGTAGGT") {
		t.Run(name, func(t *testing.T) {
			hits, err := Search(context.Background(), idx, enc("GT"), NewConfig(3, 0, 0, 0, AllHits))
			require.NoError(t, err)
			assert.ElementsMatch(t, []Hit{{0, 2, 0}, {0, 6, 0}}, hits)
		})
	}
}

func TestMonotonicity(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	seqs := []string{randomDNA(r, 250)}
	for name, idx := range buildBoth(seqs...) {
		for trial := 0; trial < 10; trial++ {
			query := randomDNA(r, 8)
			prev := map[fmindex.Position]int{}
			for k := 0; k <= 2; k++ {
				hits, err := Search(context.Background(), idx, enc(query), NewConfig(k, -1, -1, -1, AllHits))
				require.NoError(t, err)
				cur := asMap(hits)
				for p, d := range prev {
					got, ok := cur[p]
					if assert.True(t, ok, "%s lost %v at k=%d", name, p, k) {
						assert.Equal(t, d, got)
					}
				}
				prev = cur
			}
		}
	}
}

func TestBestHitsAgreesWithAllHits(t *testing.T) {
	r := rand.New(rand.NewSource(21))
	seqs := []string{randomDNA(r, 200), randomDNA(r, 200)}
	for name, idx := range buildBoth(seqs...) {
		for trial := 0; trial < 15; trial++ {
			query := mutate(r, seqs[trial%2][trial*10:trial*10+10], r.Intn(3))
			all, err := Search(context.Background(), idx, enc(query), NewConfig(2, -1, -1, -1, AllHits))
			require.NoError(t, err)
			best, err := Search(context.Background(), idx, enc(query), NewConfig(2, -1, -1, -1, BestHits))
			require.NoError(t, err)

			if len(all) == 0 {
				assert.Empty(t, best)
				continue
			}
			lowest := inf
			for _, h := range all {
				lowest = min(lowest, h.Distance)
			}
			var want []Hit
			for _, h := range all {
				if h.Distance == lowest {
					want = append(want, h)
				}
			}
			assert.Equal(t, sortHits(want), sortHits(best), "%s query=%s", name, query)
		}
	}
}

func TestBestHitsReportsOnlyMinimum(t *testing.T) {
	for name, idx := range buildBoth("ACGTTTGT") {
		t.Run(name, func(t *testing.T) {
			hits, err := Search(context.Background(), idx, enc("ACGT"), NewConfig(2, -1, -1, -1, BestHits))
			require.NoError(t, err)
			assert.Equal(t, []Hit{{0, 0, 0}}, hits)
		})
	}
}

func TestEmptyResults(t *testing.T) {
	for name, idx := range buildBoth("AAAA") {
		t.Run(name, func(t *testing.T) {
			hits, err := Search(context.Background(), idx, enc("CCCC"), NewConfig(1, -1, -1, -1, BestHits))
			require.NoError(t, err)
			assert.Empty(t, hits)

			hits, err = Search(context.Background(), idx, nil, exact)
			require.NoError(t, err)
			assert.Empty(t, hits)
		})
	}

	empty := fmindex.Build(sequence.FromStrings("", ""), fmindex.Bidirectional)
	hits, err := Search(context.Background(), empty, enc("A"), NewConfig(1, -1, -1, -1, AllHits))
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestWildcardMatchesItself(t *testing.T) {
	for name, idx := range buildBoth("ACNNGT") {
		t.Run(name, func(t *testing.T) {
			hits, err := Search(context.Background(), idx, enc("CNNG"), exact)
			require.NoError(t, err)
			assert.Equal(t, []Hit{{0, 1, 0}}, hits)

			hits, err = Search(context.Background(), idx, enc("CAAG"), exact)
			require.NoError(t, err)
			assert.Empty(t, hits)
		})
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"negative total", Config{MaxErrors: -1}, "max_errors"},
		{"substitutions over total", Config{MaxErrors: 1, MaxSubstitutions: 2}, "max_substitutions"},
		{"insertions over total", Config{MaxErrors: 1, MaxInsertions: 2}, "max_insertions"},
		{"negative deletions", Config{MaxErrors: 1, MaxDeletions: -1}, "max_deletions"},
		{"unknown policy", Config{MaxErrors: 1, Policy: HitPolicy(7)}, "policy"},
	}

	idx := fmindex.Build(sequence.FromStrings("ACGT"), fmindex.Unidirectional)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Search(context.Background(), idx, enc("ACGT"), tt.cfg)
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}

	assert.NoError(t, NewConfig(3, -1, 1, -5, AllHits).Validate())
	assert.Equal(t, 3, NewConfig(3, -1, 1, -5, AllHits).MaxDeletions)
}

func TestParseHitPolicy(t *testing.T) {
	p, err := ParseHitPolicy("ALL")
	require.NoError(t, err)
	assert.Equal(t, AllHits, p)

	p, err = ParseHitPolicy("best")
	require.NoError(t, err)
	assert.Equal(t, BestHits, p)

	_, err = ParseHitPolicy("most")
	assert.Error(t, err)
}

func TestCancellation(t *testing.T) {
	idx := fmindex.Build(sequence.FromStrings("ACGTACGTACGT"), fmindex.Unidirectional)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Search(ctx, idx, enc("ACGT"), NewConfig(2, -1, -1, -1, AllHits))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = SearchBatch(ctx, idx, [][]sequence.Symbol{enc("ACGT")}, exact, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchBatch(t *testing.T) {
	r := rand.New(rand.NewSource(17))
	seqs := []string{randomDNA(r, 400)}
	idx := fmindex.Build(sequence.FromStrings(seqs...), fmindex.Bidirectional)

	queries := make([][]sequence.Symbol, 40)
	for i := range queries {
		queries[i] = enc(mutate(r, seqs[0][i*8:i*8+12], 1))
	}
	cfg := NewConfig(1, -1, -1, -1, BestHits)

	got, err := SearchBatch(context.Background(), idx, queries, cfg, 4)
	require.NoError(t, err)
	require.Len(t, got, len(queries))
	for i, q := range queries {
		want, err := Search(context.Background(), idx, q, cfg)
		require.NoError(t, err)
		assert.Equal(t, want, got[i], "query %d", i)
	}

	_, err = SearchBatch(context.Background(), idx, queries, Config{MaxErrors: -1}, 4)
	var cerr *ConfigError
	assert.True(t, errors.As(err, &cerr))
}

func BenchmarkSearchBidirectional(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	text := randomDNA(r, 50000)
	idx := fmindex.Build(sequence.FromStrings(text), fmindex.Bidirectional)
	query := enc(mutate(r, text[1000:1030], 2))
	cfg := NewConfig(2, -1, -1, -1, AllHits)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Search(context.Background(), idx, query, cfg)
	}
}
