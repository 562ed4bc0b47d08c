package handlers

import (
	"fmt"
	"net/http"

	"github.com/aria-lang/cuba-go/internal/search"
	"github.com/aria-lang/cuba-go/pkg/cuba"
)

// SearchOptions overrides the configured search defaults.
type SearchOptions struct {
	Errors        *int   `json:"errors,omitempty"`
	Substitutions *int   `json:"substitutions,omitempty"`
	Insertions    *int   `json:"insertions,omitempty"`
	Deletions     *int   `json:"deletions,omitempty"`
	Policy        string `json:"policy,omitempty"`
	Realign       bool   `json:"realign,omitempty"`
	Pad           *int   `json:"pad,omitempty"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query string `json:"query"`
	SearchOptions
}

// BatchRequest is the body of POST /api/search/batch.
type BatchRequest struct {
	Queries []string `json:"queries"`
	SearchOptions
}

// RealignedHit is a hit with its alignment against the reference.
type RealignedHit struct {
	cuba.Hit
	RefBegin     int    `json:"ref_begin"`
	RefEnd       int    `json:"ref_end"`
	Score        int    `json:"score"`
	EditDistance int    `json:"edit_distance"`
	GapOpenings  int    `json:"gap_openings"`
	CIGAR        string `json:"cigar"`
	AlignedQuery string `json:"aligned_query"`
	AlignedRef   string `json:"aligned_ref"`
}

// SearchResponse reports the hits of one query.
type SearchResponse struct {
	Query     string         `json:"query"`
	Hits      []cuba.Hit     `json:"hits"`
	Realigned []RealignedHit `json:"realigned,omitempty"`
}

// BatchResponse reports the hits of every query in request order.
type BatchResponse struct {
	Results []SearchResponse `json:"results"`
}

// searchConfig overlays opts on the configured defaults.
func (h *Handlers) searchConfig(opts SearchOptions) (search.Config, error) {
	conf := *h.conf
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&conf.Search.Errors, opts.Errors)
	set(&conf.Search.Substitutions, opts.Substitutions)
	set(&conf.Search.Insertions, opts.Insertions)
	set(&conf.Search.Deletions, opts.Deletions)
	if opts.Policy != "" {
		policy, err := search.ParseHitPolicy(opts.Policy)
		if err != nil {
			return search.Config{}, err
		}
		conf.Search.AllHits = policy == search.AllHits
	}
	// A requested total resets the sub-budgets the request leaves out.
	if opts.Errors != nil {
		for _, sub := range []struct {
			dst *int
			v   *int
		}{
			{&conf.Search.Substitutions, opts.Substitutions},
			{&conf.Search.Insertions, opts.Insertions},
			{&conf.Search.Deletions, opts.Deletions},
		} {
			if sub.v == nil {
				*sub.dst = -1
			}
		}
	}
	return conf.SearchConfig()
}

func (h *Handlers) realignOptions(opts SearchOptions) (cuba.RealignOptions, error) {
	acfg, err := h.conf.AlignConfig()
	if err != nil {
		return cuba.RealignOptions{}, err
	}
	pad := h.conf.Search.Pad
	if opts.Pad != nil {
		pad = *opts.Pad
	}
	return cuba.RealignOptions{Scoring: acfg.Scoring, Pad: pad, Threads: h.conf.Search.Threads}, nil
}

// Search handles POST /api/search.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decode(w, r, &req) {
		return
	}
	cfg, err := h.searchConfig(req.SearchOptions)
	if err != nil {
		h.fail(w, err)
		return
	}
	hits, err := h.engine.Find(r.Context(), req.Query, cfg)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp, err := h.respond(r, req.Query, hits, req.SearchOptions)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SearchBatch handles POST /api/search/batch.
func (h *Handlers) SearchBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !decode(w, r, &req) {
		return
	}
	if limit := h.conf.Server.MaxBatchQueries; limit > 0 && len(req.Queries) > limit {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch of %d queries exceeds the limit of %d", len(req.Queries), limit))
		return
	}
	cfg, err := h.searchConfig(req.SearchOptions)
	if err != nil {
		h.fail(w, err)
		return
	}
	batch, err := h.engine.FindBatch(r.Context(), req.Queries, cfg, h.conf.Search.Threads)
	if err != nil {
		h.fail(w, err)
		return
	}
	out := BatchResponse{Results: make([]SearchResponse, len(req.Queries))}
	for i, q := range req.Queries {
		resp, err := h.respond(r, q, batch[i], req.SearchOptions)
		if err != nil {
			h.fail(w, err)
			return
		}
		out.Results[i] = resp
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) respond(r *http.Request, query string, hits []cuba.Hit, opts SearchOptions) (SearchResponse, error) {
	resp := SearchResponse{Query: query, Hits: hits}
	if resp.Hits == nil {
		resp.Hits = []cuba.Hit{}
	}
	if !opts.Realign || len(hits) == 0 {
		return resp, nil
	}
	ropts, err := h.realignOptions(opts)
	if err != nil {
		return resp, err
	}
	res, err := h.engine.Realign(r.Context(), query, hits, ropts)
	if err != nil {
		return resp, err
	}
	resp.Realigned = make([]RealignedHit, len(res))
	for i, ra := range res {
		resp.Realigned[i] = RealignedHit{
			Hit:          ra.Hit,
			RefBegin:     ra.RefBegin,
			RefEnd:       ra.RefEnd,
			Score:        ra.Alignment.Score,
			EditDistance: ra.Alignment.EditDistance(),
			GapOpenings:  ra.Alignment.GapOpenings(),
			CIGAR:        ra.Alignment.CIGAR(),
			AlignedQuery: ra.Alignment.AlignedSeq1,
			AlignedRef:   ra.Alignment.AlignedSeq2,
		}
	}
	return resp, nil
}
