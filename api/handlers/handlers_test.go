package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-lang/cuba-go/internal/config"
	"github.com/aria-lang/cuba-go/internal/fmindex"
	"github.com/aria-lang/cuba-go/internal/logging"
	"github.com/aria-lang/cuba-go/internal/sequence"
	"github.com/aria-lang/cuba-go/pkg/cuba"
)

func newRouter(t *testing.T, withSequences bool, conf *config.Conf) http.Handler {
	t.Helper()
	coll := sequence.FromStrings("ACGTACGTTTGCA", "GGGACGTCC")
	idx := fmindex.Build(coll, fmindex.Bidirectional)
	if !withSequences {
		coll = nil
	}
	eng, err := cuba.NewEngine(idx, coll, logging.Discard())
	require.NoError(t, err)

	r := chi.NewRouter()
	New(eng, conf, logging.Discard()).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func intp(v int) *int { return &v }

func TestHealth(t *testing.T) {
	rec := do(t, newRouter(t, false, nil), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestIndexInfo(t *testing.T) {
	rec := do(t, newRouter(t, true, nil), http.MethodGet, "/api/index", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info cuba.Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, "bidirectional", info.Kind)
	assert.Equal(t, 2, info.Sequences)
	require.NotNil(t, info.Summary)
	assert.Equal(t, 22, info.Summary.TotalBases)
	require.NotNil(t, info.Histogram)
	assert.Equal(t, 9, info.Histogram.Min)
	assert.Equal(t, 13, info.Histogram.Max)
	assert.Len(t, info.Histogram.Counts, 10)
	assert.Equal(t, 1, info.Histogram.Counts[0])
	assert.Equal(t, 1, info.Histogram.Counts[4])

	rec = do(t, newRouter(t, false, nil), http.MethodGet, "/api/index", nil)
	var bare cuba.Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&bare))
	assert.Nil(t, bare.Summary)
	assert.Nil(t, bare.Histogram)
}

func TestSearch(t *testing.T) {
	h := newRouter(t, true, nil)

	rec := do(t, h, http.MethodPost, "/api/search", SearchRequest{
		Query:         "ACGT",
		SearchOptions: SearchOptions{Policy: "all"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.ElementsMatch(t, []cuba.Hit{{SeqID: 0, Offset: 0, Distance: 0}, {SeqID: 0, Offset: 4, Distance: 0}, {SeqID: 1, Offset: 3, Distance: 0}}, resp.Hits)
	assert.Empty(t, resp.Realigned)

	rec = do(t, h, http.MethodPost, "/api/search", SearchRequest{
		Query:         "TTTGCA",
		SearchOptions: SearchOptions{Errors: intp(1), Realign: true, Pad: intp(2)},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = SearchResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, []cuba.Hit{{SeqID: 0, Offset: 7, Distance: 0}}, resp.Hits)
	require.Len(t, resp.Realigned, 1)
	assert.Equal(t, 7, resp.Realigned[0].RefBegin)
	assert.Equal(t, 13, resp.Realigned[0].RefEnd)
	assert.Equal(t, "6=", resp.Realigned[0].CIGAR)
	assert.Zero(t, resp.Realigned[0].EditDistance)

	rec = do(t, h, http.MethodPost, "/api/search", SearchRequest{Query: "CCCCCCCC"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hits":[]`)
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"negative budget", SearchRequest{Query: "ACGT", SearchOptions: SearchOptions{Errors: intp(-1)}}, http.StatusBadRequest},
		{"sub-budget over total", SearchRequest{Query: "ACGT", SearchOptions: SearchOptions{Errors: intp(1), Insertions: intp(2)}}, http.StatusBadRequest},
		{"unknown policy", SearchRequest{Query: "ACGT", SearchOptions: SearchOptions{Policy: "most"}}, http.StatusBadRequest},
		{"unknown field", map[string]any{"query": "ACGT", "fuzz": 1}, http.StatusBadRequest},
		{"realign without sequences", SearchRequest{Query: "ACGT", SearchOptions: SearchOptions{Realign: true}}, http.StatusConflict},
	}
	h := newRouter(t, false, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/search", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestSearchBatch(t *testing.T) {
	conf := config.Default()
	conf.Server.MaxBatchQueries = 3
	h := newRouter(t, false, conf)

	rec := do(t, h, http.MethodPost, "/api/search/batch", BatchRequest{
		Queries:       []string{"GGGA", "CCCC", "TTGCA"},
		SearchOptions: SearchOptions{Policy: "all"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp BatchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Results, 3)
	assert.Equal(t, []cuba.Hit{{SeqID: 1, Offset: 0, Distance: 0}}, resp.Results[0].Hits)
	assert.Empty(t, resp.Results[1].Hits)
	assert.Equal(t, "TTGCA", resp.Results[2].Query)
	assert.Equal(t, []cuba.Hit{{SeqID: 0, Offset: 8, Distance: 0}}, resp.Results[2].Hits)

	rec = do(t, h, http.MethodPost, "/api/search/batch", BatchRequest{Queries: []string{"A", "C", "G", "T"}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAlign(t *testing.T) {
	conf := config.Default()
	conf.Align.FreeSeq1Leading = false
	conf.Align.FreeSeq1Trailing = false
	conf.Align.FreeSeq2Leading = false
	conf.Align.FreeSeq2Trailing = false
	h := newRouter(t, false, conf)

	rec := do(t, h, http.MethodPost, "/api/align", AlignRequest{Sequences: []string{"ACGT", "AGT"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Score        int    `json:"score"`
		AlignedSeq1  string `json:"aligned_seq1"`
		AlignedSeq2  string `json:"aligned_seq2"`
		CIGAR        string `json:"cigar"`
		Mode         string `json:"mode"`
		GapOpenings  int    `json:"gap_openings"`
		EditDistance int    `json:"edit_distance"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Score)
	assert.Equal(t, 1, resp.GapOpenings)
	assert.Equal(t, 1, resp.EditDistance)
	assert.Equal(t, "ACGT", resp.AlignedSeq1)
	assert.Equal(t, "A-GT", resp.AlignedSeq2)
	assert.Equal(t, "1=1I2=", resp.CIGAR)
	assert.Equal(t, "global", resp.Mode)

	rec = do(t, h, http.MethodPost, "/api/align", AlignRequest{Sequences: []string{"ACGT", "AGT"}, ScoreOnly: true})
	require.Equal(t, http.StatusOK, rec.Code)
	var score ScoreResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&score))
	assert.Equal(t, ScoreResponse{Score: 2, Mode: "global"}, score)

	rec = do(t, h, http.MethodPost, "/api/align", AlignRequest{Sequences: []string{"ACGT"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/align", AlignRequest{Sequences: []string{"ACGT", "AGT"}, Mode: "diagonal"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/align", AlignRequest{
		Sequences: []string{"ACGT", "AGT"},
		Scoring:   &cuba.Scoring{Match: 1, Mismatch: -1, GapOpen: 2, GapExtend: -1},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "positive gap open")
}
