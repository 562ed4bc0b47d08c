// Package cuba is the public API of the toolkit: build and load FM-indexes,
// search them with a bounded number of edits and align sequences pairwise.
//
// Example usage:
//
//	eng, _, err := cuba.Build([]string{"ref.fa"}, cuba.BuildOptions{Kind: cuba.Bidirectional}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	hits, err := eng.Find(ctx, "ACGTTGCA", cuba.NewSearchConfig(1, -1, -1, -1, cuba.AllHits))
package cuba

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/aria-lang/cuba-go/internal/alignment"
	"github.com/aria-lang/cuba-go/internal/fmindex"
	"github.com/aria-lang/cuba-go/internal/quality"
	"github.com/aria-lang/cuba-go/internal/reader"
	"github.com/aria-lang/cuba-go/internal/search"
	"github.com/aria-lang/cuba-go/internal/sequence"
	"github.com/aria-lang/cuba-go/internal/stats"
	"github.com/aria-lang/cuba-go/internal/storage"
)

// Version of the toolkit.
const Version = "0.3.0"

// Re-exported types.
type (
	Symbol         = sequence.Symbol
	Sequence       = sequence.Sequence
	Collection     = sequence.Collection
	Index          = fmindex.Index
	Kind           = fmindex.Kind
	Hit            = search.Hit
	SearchConfig   = search.Config
	HitPolicy      = search.HitPolicy
	AlignConfig    = alignment.Config
	Scoring        = alignment.Scoring
	FreeEndGaps    = alignment.FreeEndGaps
	Alignment      = alignment.Alignment
	Realignment    = alignment.Realignment
	RealignOptions = alignment.RealignOptions
	Summary        = stats.Summary
	ReadStats      = reader.Stats
	Trimmer        = quality.Trimmer
)

const (
	Unidirectional = fmindex.Unidirectional
	Bidirectional  = fmindex.Bidirectional

	BestHits = search.BestHits
	AllHits  = search.AllHits

	Global = alignment.Global
	Local  = alignment.Local
)

// ErrNoSequences is returned by operations that need the sequences an
// index was built from when none were loaded.
var ErrNoSequences = errors.New("no sequences loaded alongside the index")

// NewSearchConfig builds a search configuration. Negative sub-budgets
// default to maxErrors.
func NewSearchConfig(maxErrors, maxSubs, maxIns, maxDels int, policy HitPolicy) SearchConfig {
	return search.NewConfig(maxErrors, maxSubs, maxIns, maxDels, policy)
}

// Engine is a loaded index with, optionally, the sequences it was built
// from. It is safe for concurrent use.
type Engine struct {
	idx  fmindex.Index
	coll *sequence.Collection
	log  log.FieldLogger
}

// NewEngine pairs idx with coll, which may be nil.
func NewEngine(idx Index, coll *Collection, logger log.FieldLogger) (*Engine, error) {
	if coll != nil {
		if err := storage.CheckPair(idx, coll); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Engine{idx: idx, coll: coll, log: logger}, nil
}

// BuildOptions configures Build.
type BuildOptions struct {
	Kind       Kind
	SampleRate int
	// Trimmer, when set, quality trims FASTQ reads before indexing.
	Trimmer *Trimmer
	// OnFile is called after each input file is read.
	OnFile func(path string, records int)
}

// Build reads files and indexes every record.
func Build(files []string, opts BuildOptions, logger log.FieldLogger) (*Engine, ReadStats, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	start := time.Now()
	coll, rs, err := reader.ReadFiles(files, reader.Options{Trimmer: opts.Trimmer, OnFile: opts.OnFile})
	if err != nil {
		return nil, rs, err
	}
	logger.Infof("read %s sequences (%s bases) from %d file(s)",
		humanize.Comma(int64(coll.Len())), humanize.Comma(int64(coll.TotalLength())), rs.Files)
	if rs.Dropped > 0 {
		logger.Warnf("dropped %s reads failing quality trimming", humanize.Comma(int64(rs.Dropped)))
	}

	var buildOpts []fmindex.Option
	if opts.SampleRate > 0 {
		buildOpts = append(buildOpts, fmindex.WithSampleRate(opts.SampleRate))
	}
	idx := fmindex.Build(coll, opts.Kind, buildOpts...)
	logger.Infof("built %s index in %s", opts.Kind, time.Since(start).Round(time.Millisecond))
	return &Engine{idx: idx, coll: coll, log: logger}, rs, nil
}

// Open loads an index and, when seqPath is not empty, its sequences. The
// index file must carry the extension of kind.
func Open(indexPath, seqPath string, kind Kind, logger log.FieldLogger) (*Engine, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if err := storage.CheckExtension(indexPath, kind); err != nil {
		return nil, err
	}
	start := time.Now()
	idx, err := storage.LoadIndex(indexPath)
	if err != nil {
		return nil, err
	}
	if idx.Kind() != kind {
		return nil, fmt.Errorf("%s holds a %s index, not %s", indexPath, idx.Kind(), kind)
	}
	logger.Infof("loaded %s index of %s sequences in %s", idx.Kind(),
		humanize.Comma(int64(idx.NumSequences())), time.Since(start).Round(time.Millisecond))

	var coll *sequence.Collection
	if seqPath != "" {
		if coll, err = storage.LoadCollection(seqPath); err != nil {
			return nil, err
		}
	}
	return NewEngine(idx, coll, logger)
}

// Save writes the index to indexPath, replacing a wrong extension, and the
// sequences to seqPath when it is not empty. It returns the index path used.
func (e *Engine) Save(indexPath, seqPath string) (string, error) {
	path, changed := storage.FixExtension(indexPath, e.idx.Kind())
	if changed {
		e.log.Warnf("index filename extension changed to %s", path)
	}
	if err := storage.SaveIndex(path, e.idx); err != nil {
		return "", err
	}
	if seqPath != "" {
		if e.coll == nil {
			return "", ErrNoSequences
		}
		if err := storage.SaveCollection(seqPath, e.coll); err != nil {
			return "", err
		}
	}
	return path, nil
}

// Index returns the underlying index.
func (e *Engine) Index() Index { return e.idx }

// Sequences returns the loaded sequences, or nil.
func (e *Engine) Sequences() *Collection { return e.coll }

// Find searches for query.
func (e *Engine) Find(ctx context.Context, query string, cfg SearchConfig) ([]Hit, error) {
	return search.Search(ctx, e.idx, sequence.EncodeString(query), cfg)
}

// FindBatch searches every query concurrently. Results follow query order.
func (e *Engine) FindBatch(ctx context.Context, queries []string, cfg SearchConfig, threads int) ([][]Hit, error) {
	encoded := make([][]sequence.Symbol, len(queries))
	for i, q := range queries {
		encoded[i] = sequence.EncodeString(q)
	}
	start := time.Now()
	hits, err := search.SearchBatch(ctx, e.idx, encoded, cfg, threads)
	if err != nil {
		return nil, err
	}
	e.log.Debugf("searched %s queries in %s", humanize.Comma(int64(len(queries))), time.Since(start))
	return hits, nil
}

// Realign re-scores hits of query against the loaded sequences.
func (e *Engine) Realign(ctx context.Context, query string, hits []Hit, opts RealignOptions) ([]Realignment, error) {
	if e.coll == nil {
		return nil, ErrNoSequences
	}
	return alignment.RealignHits(ctx, e.coll, sequence.EncodeString(query), hits, opts)
}

// Info describes a loaded engine.
type Info struct {
	Kind        string                 `json:"kind"`
	Sequences   int                    `json:"sequences"`
	TextLength  int                    `json:"text_length"`
	Fingerprint string                 `json:"fingerprint"`
	Summary     *Summary               `json:"summary,omitempty"`
	Histogram   *stats.LengthHistogram `json:"length_histogram,omitempty"`
}

// infoHistogramBins is the number of length bins reported by Info.
const infoHistogramBins = 10

// Info returns a description of the engine. The summary and the length
// histogram are present only when sequences are loaded.
func (e *Engine) Info() Info {
	info := Info{
		Kind:        e.idx.Kind().String(),
		Sequences:   e.idx.NumSequences(),
		TextLength:  e.idx.TextLen(),
		Fingerprint: fmt.Sprintf("%016x", e.idx.Fingerprint()),
	}
	if e.coll != nil {
		s := stats.Summarize(e.coll)
		info.Summary = &s
		if h, err := stats.NewLengthHistogram(e.coll, infoHistogramBins); err == nil {
			info.Histogram = h
		}
	}
	return info
}

// Align aligns two sequences given as strings.
func Align(ctx context.Context, seq1, seq2 string, cfg AlignConfig) (*Alignment, error) {
	return alignment.AlignContext(ctx, sequence.EncodeString(seq1), sequence.EncodeString(seq2), cfg)
}

// AlignPair aligns exactly two sequences given as strings.
func AlignPair(inputs []string, cfg AlignConfig) (*Alignment, error) {
	encoded := make([][]sequence.Symbol, len(inputs))
	for i, s := range inputs {
		encoded[i] = sequence.EncodeString(s)
	}
	return alignment.AlignPair(encoded, cfg)
}

// ScorePair returns the optimal score of two sequences without building the
// alignment.
func ScorePair(inputs []string, cfg AlignConfig) (int, error) {
	if len(inputs) != 2 {
		return 0, &alignment.ConfigError{Reason: "pairwise alignment needs exactly two sequences"}
	}
	return alignment.ScoreOnly(sequence.EncodeString(inputs[0]), sequence.EncodeString(inputs[1]), cfg)
}
