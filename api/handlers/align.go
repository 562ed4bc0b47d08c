package handlers

import (
	"net/http"

	"github.com/aria-lang/cuba-go/internal/alignment"
	"github.com/aria-lang/cuba-go/pkg/cuba"
)

// AlignRequest is the body of POST /api/align. Scores, mode and end gap
// toggles left out fall back to the configured defaults.
type AlignRequest struct {
	Sequences []string          `json:"sequences"`
	Mode      string            `json:"mode,omitempty"`
	Scoring   *cuba.Scoring     `json:"scoring,omitempty"`
	FreeEnds  *cuba.FreeEndGaps `json:"free_ends,omitempty"`
	// ScoreOnly skips the traceback and reports the score alone.
	ScoreOnly bool `json:"score_only,omitempty"`
}

// AlignResponse is an alignment with its derived figures.
type AlignResponse struct {
	*cuba.Alignment
	Mode         string `json:"mode"`
	CIGAR        string `json:"cigar"`
	Matches      int    `json:"matches"`
	Mismatches   int    `json:"mismatches"`
	Gaps         int    `json:"gaps"`
	GapOpenings  int    `json:"gap_openings"`
	EditDistance int    `json:"edit_distance"`
}

// ScoreResponse answers a score-only alignment request.
type ScoreResponse struct {
	Score int    `json:"score"`
	Mode  string `json:"mode"`
}

// Align handles POST /api/align.
func (h *Handlers) Align(w http.ResponseWriter, r *http.Request) {
	var req AlignRequest
	if !decode(w, r, &req) {
		return
	}
	conf := *h.conf
	if req.Mode != "" {
		conf.Align.Mode = req.Mode
	}
	cfg, err := conf.AlignConfig()
	if err != nil {
		h.fail(w, err)
		return
	}
	if req.Scoring != nil {
		cfg.Scoring = *req.Scoring
	}
	if req.FreeEnds != nil {
		cfg.FreeEnds = *req.FreeEnds
	}
	if err := cfg.Validate(); err != nil {
		h.fail(w, err)
		return
	}
	if len(req.Sequences) != 2 {
		h.fail(w, &alignment.ConfigError{Reason: "exactly two sequences are required"})
		return
	}

	if req.ScoreOnly {
		score, err := cuba.ScorePair(req.Sequences, cfg)
		if err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ScoreResponse{Score: score, Mode: cfg.Mode.String()})
		return
	}

	aln, err := cuba.Align(r.Context(), req.Sequences[0], req.Sequences[1], cfg)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AlignResponse{
		Alignment:    aln,
		Mode:         cfg.Mode.String(),
		CIGAR:        aln.CIGAR(),
		Matches:      aln.MatchCount(),
		Mismatches:   aln.MismatchCount(),
		Gaps:         aln.TotalGaps(),
		GapOpenings:  aln.GapOpenings(),
		EditDistance: aln.EditDistance(),
	})
}
