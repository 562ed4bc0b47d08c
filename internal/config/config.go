// Package config holds the defaults shared by the command line tools and
// the server. Values come from an optional TOML file and are overridden by
// flags given explicitly on the command line.
package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aria-lang/cuba-go/internal/alignment"
	"github.com/aria-lang/cuba-go/internal/fmindex"
	"github.com/aria-lang/cuba-go/internal/search"
)

// Conf is the complete configuration.
type Conf struct {
	Index  IndexConf  `toml:"index"`
	Search SearchConf `toml:"search"`
	Align  AlignConf  `toml:"align"`
	Server ServerConf `toml:"server"`
}

// IndexConf configures index construction.
type IndexConf struct {
	Bidirectional bool `toml:"bidirectional"`
	SampleRate    int  `toml:"sample_rate"`
}

// SearchConf configures approximate search. Negative sub-budgets default to
// the total budget.
type SearchConf struct {
	Errors        int  `toml:"errors"`
	Substitutions int  `toml:"substitutions"`
	Insertions    int  `toml:"insertions"`
	Deletions     int  `toml:"deletions"`
	AllHits       bool `toml:"all_hits"`
	Threads       int  `toml:"threads"`
	Pad           int  `toml:"realign_pad"`
}

// AlignConf configures pairwise alignment.
type AlignConf struct {
	Mode      string `toml:"mode"`
	Match     int    `toml:"match"`
	Mismatch  int    `toml:"mismatch"`
	GapOpen   int    `toml:"gap_open"`
	GapExtend int    `toml:"gap_extend"`

	FreeSeq1Leading  bool `toml:"free_seq1_leading"`
	FreeSeq1Trailing bool `toml:"free_seq1_trailing"`
	FreeSeq2Leading  bool `toml:"free_seq2_leading"`
	FreeSeq2Trailing bool `toml:"free_seq2_trailing"`
}

// ServerConf configures the REST server.
type ServerConf struct {
	Addr            string `toml:"addr"`
	IndexPath       string `toml:"index_path"`
	SequencesPath   string `toml:"sequences_path"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxBatchQueries int    `toml:"max_batch_queries"`
}

// Default returns the built-in configuration. Global alignments leave every
// end gap free unless told otherwise.
func Default() *Conf {
	scoring := alignment.DefaultScoring()
	free := alignment.AllFree()
	return &Conf{
		Index: IndexConf{
			SampleRate: fmindex.DefaultSampleRate,
		},
		Search: SearchConf{
			Substitutions: -1,
			Insertions:    -1,
			Deletions:     -1,
			Threads:       runtime.NumCPU(),
			Pad:           10,
		},
		Align: AlignConf{
			Mode:             alignment.Global.String(),
			Match:            scoring.Match,
			Mismatch:         scoring.Mismatch,
			GapOpen:          scoring.GapOpen,
			GapExtend:        scoring.GapExtend,
			FreeSeq1Leading:  free.Seq1Leading,
			FreeSeq1Trailing: free.Seq1Trailing,
			FreeSeq2Leading:  free.Seq2Leading,
			FreeSeq2Trailing: free.Seq2Trailing,
		},
		Server: ServerConf{
			Addr:            "localhost:8080",
			TimeoutSeconds:  60,
			MaxBatchQueries: 1000,
		},
	}
}

// Load decodes a configuration over the defaults. Unknown keys are errors.
func Load(r io.Reader) (*Conf, error) {
	conf := Default()
	md, err := toml.NewDecoder(r).Decode(conf)
	if err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown configuration keys: %s", strings.Join(keys, ", "))
	}
	return conf, nil
}

// LoadFile loads path, or returns the defaults when path is empty.
func LoadFile(path string) (*Conf, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	conf, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

// Write encodes the configuration as TOML.
func (c *Conf) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// flagFields maps command line flag names to the field they set.
var flagFields = map[string]func(dst, src *Conf){
	"bidirectional": func(d, s *Conf) { d.Index.Bidirectional = s.Index.Bidirectional },
	"sample-rate":   func(d, s *Conf) { d.Index.SampleRate = s.Index.SampleRate },

	"errors":        func(d, s *Conf) { d.Search.Errors = s.Search.Errors },
	"substitutions": func(d, s *Conf) { d.Search.Substitutions = s.Search.Substitutions },
	"insertions":    func(d, s *Conf) { d.Search.Insertions = s.Search.Insertions },
	"deletions":     func(d, s *Conf) { d.Search.Deletions = s.Search.Deletions },
	"all":           func(d, s *Conf) { d.Search.AllHits = s.Search.AllHits },
	"threads":       func(d, s *Conf) { d.Search.Threads = s.Search.Threads },
	"pad":           func(d, s *Conf) { d.Search.Pad = s.Search.Pad },

	"mode":       func(d, s *Conf) { d.Align.Mode = s.Align.Mode },
	"match":      func(d, s *Conf) { d.Align.Match = s.Align.Match },
	"mismatch":   func(d, s *Conf) { d.Align.Mismatch = s.Align.Mismatch },
	"gap-open":   func(d, s *Conf) { d.Align.GapOpen = s.Align.GapOpen },
	"gap-extend": func(d, s *Conf) { d.Align.GapExtend = s.Align.GapExtend },

	"free-seq1-leading":  func(d, s *Conf) { d.Align.FreeSeq1Leading = s.Align.FreeSeq1Leading },
	"free-seq1-trailing": func(d, s *Conf) { d.Align.FreeSeq1Trailing = s.Align.FreeSeq1Trailing },
	"free-seq2-leading":  func(d, s *Conf) { d.Align.FreeSeq2Leading = s.Align.FreeSeq2Leading },
	"free-seq2-trailing": func(d, s *Conf) { d.Align.FreeSeq2Trailing = s.Align.FreeSeq2Trailing },

	"addr":      func(d, s *Conf) { d.Server.Addr = s.Server.Addr },
	"index":     func(d, s *Conf) { d.Server.IndexPath = s.Server.IndexPath },
	"sequences": func(d, s *Conf) { d.Server.SequencesPath = s.Server.SequencesPath },
	"timeout":   func(d, s *Conf) { d.Server.TimeoutSeconds = s.Server.TimeoutSeconds },
}

// FlagMerge returns fileConf with every explicitly changed flag taken from
// flagConf. changed reports whether a flag was set on the command line.
func (flagConf *Conf) FlagMerge(fileConf *Conf, changed func(name string) bool) *Conf {
	merged := *fileConf
	for name, set := range flagFields {
		if changed(name) {
			set(&merged, flagConf)
		}
	}
	return &merged
}

// Kind returns the configured index shape.
func (c *Conf) Kind() fmindex.Kind {
	if c.Index.Bidirectional {
		return fmindex.Bidirectional
	}
	return fmindex.Unidirectional
}

// SearchConfig builds a validated search configuration.
func (c *Conf) SearchConfig() (search.Config, error) {
	policy := search.BestHits
	if c.Search.AllHits {
		policy = search.AllHits
	}
	cfg := search.NewConfig(c.Search.Errors, c.Search.Substitutions, c.Search.Insertions, c.Search.Deletions, policy)
	return cfg, cfg.Validate()
}

// AlignConfig builds a validated alignment configuration.
func (c *Conf) AlignConfig() (alignment.Config, error) {
	mode, err := alignment.ParseMode(c.Align.Mode)
	if err != nil {
		return alignment.Config{}, err
	}
	cfg := alignment.Config{
		Scoring: alignment.Scoring{
			Match:     c.Align.Match,
			Mismatch:  c.Align.Mismatch,
			GapOpen:   c.Align.GapOpen,
			GapExtend: c.Align.GapExtend,
		},
		Mode: mode,
		FreeEnds: alignment.FreeEndGaps{
			Seq1Leading:  c.Align.FreeSeq1Leading,
			Seq1Trailing: c.Align.FreeSeq1Trailing,
			Seq2Leading:  c.Align.FreeSeq2Leading,
			Seq2Trailing: c.Align.FreeSeq2Trailing,
		},
	}
	return cfg, cfg.Validate()
}
