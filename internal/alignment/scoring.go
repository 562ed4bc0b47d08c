// Package alignment provides pairwise sequence alignment with affine gap
// costs.
//
// Global alignment can leave either end of either sequence unpenalized,
// which covers semi-global and overlap alignment. Local alignment reports
// the best scoring pair of segments.
package alignment

import (
	"fmt"
	"strings"

	"github.com/aria-lang/cuba-go/internal/sequence"
)

// Mode selects global or local alignment.
type Mode int

const (
	// Global aligns both sequences end to end, subject to FreeEndGaps.
	Global Mode = iota
	// Local aligns the best scoring pair of segments.
	Local
)

func (m Mode) String() string {
	switch m {
	case Global:
		return "global"
	case Local:
		return "local"
	default:
		return "unknown"
	}
}

// ParseMode parses "global" or "local".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "global":
		return Global, nil
	case "local":
		return Local, nil
	default:
		return 0, &ConfigError{Reason: fmt.Sprintf("unknown alignment mode %q", s)}
	}
}

// Scoring holds the scores of the affine gap model. A gap of length L
// scores GapOpen + (L-1)*GapExtend.
type Scoring struct {
	Match     int `json:"match" toml:"match"`
	Mismatch  int `json:"mismatch" toml:"mismatch"`
	GapOpen   int `json:"gap_open" toml:"gap_open"`
	GapExtend int `json:"gap_extend" toml:"gap_extend"`
}

// DefaultScoring returns match 2, mismatch -3, gap open -4, gap extend -2.
func DefaultScoring() Scoring {
	return Scoring{Match: 2, Mismatch: -3, GapOpen: -4, GapExtend: -2}
}

// Validate checks that the scores describe a maximization objective.
func (s Scoring) Validate() error {
	if s.Match < s.Mismatch {
		return &ConfigError{Reason: fmt.Sprintf("match score %d is below mismatch score %d", s.Match, s.Mismatch)}
	}
	if s.GapOpen > 0 {
		return &ConfigError{Reason: fmt.Sprintf("gap open score %d must not be positive", s.GapOpen)}
	}
	if s.GapExtend > 0 {
		return &ConfigError{Reason: fmt.Sprintf("gap extend score %d must not be positive", s.GapExtend)}
	}
	return nil
}

// Score returns the score of aligning a against b. Wildcards score like any
// other symbol.
func (s Scoring) Score(a, b sequence.Symbol) int {
	if a == b {
		return s.Match
	}
	return s.Mismatch
}

// GapCost returns the score of a gap of length n.
func (s Scoring) GapCost(n int) int {
	if n <= 0 {
		return 0
	}
	return s.GapOpen + (n-1)*s.GapExtend
}

func (s Scoring) String() string {
	return fmt.Sprintf("Scoring { match: %d, mismatch: %d, gap_open: %d, gap_extend: %d }",
		s.Match, s.Mismatch, s.GapOpen, s.GapExtend)
}

// FreeEndGaps selects which end gaps are not penalized in global mode.
// Seq1Leading frees a run of gaps in sequence 1 before its first symbol,
// that is, an overhang of sequence 2 on the left.
type FreeEndGaps struct {
	Seq1Leading  bool `json:"seq1_leading" toml:"seq1_leading"`
	Seq1Trailing bool `json:"seq1_trailing" toml:"seq1_trailing"`
	Seq2Leading  bool `json:"seq2_leading" toml:"seq2_leading"`
	Seq2Trailing bool `json:"seq2_trailing" toml:"seq2_trailing"`
}

// AllFree returns toggles with every end gap free.
func AllFree() FreeEndGaps {
	return FreeEndGaps{Seq1Leading: true, Seq1Trailing: true, Seq2Leading: true, Seq2Trailing: true}
}

// Config configures an alignment. FreeEnds is ignored in local mode.
type Config struct {
	Scoring  Scoring
	Mode     Mode
	FreeEnds FreeEndGaps
}

// DefaultConfig returns a global configuration with default scores and no
// free end gaps.
func DefaultConfig() Config {
	return Config{Scoring: DefaultScoring(), Mode: Global}
}

// Validate rejects invalid scores and modes.
func (c Config) Validate() error {
	if c.Mode != Global && c.Mode != Local {
		return &ConfigError{Reason: fmt.Sprintf("unknown alignment mode %d", c.Mode)}
	}
	return c.Scoring.Validate()
}

// ConfigError reports an invalid alignment request.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid alignment configuration: " + e.Reason
}
