package search

import (
	"fmt"
	"strings"
)

// HitPolicy selects which hits a search reports.
type HitPolicy int

const (
	// BestHits reports only the hits at the minimal distance found.
	BestHits HitPolicy = iota
	// AllHits reports every distinct position within the error budget.
	AllHits
)

func (p HitPolicy) String() string {
	switch p {
	case AllHits:
		return "all"
	case BestHits:
		return "best"
	default:
		return "unknown"
	}
}

// ParseHitPolicy parses "all" or "best".
func ParseHitPolicy(s string) (HitPolicy, error) {
	switch strings.ToLower(s) {
	case "all":
		return AllHits, nil
	case "best":
		return BestHits, nil
	default:
		return 0, &ConfigError{Field: "policy", Reason: fmt.Sprintf("unknown hit policy %q", s)}
	}
}

// Config bounds an approximate search. Substitutions, insertions and
// deletions each have their own budget, and their sum is bounded by
// MaxErrors.
type Config struct {
	MaxErrors        int       `json:"max_errors" toml:"max_errors"`
	MaxSubstitutions int       `json:"max_substitutions" toml:"max_substitutions"`
	MaxInsertions    int       `json:"max_insertions" toml:"max_insertions"`
	MaxDeletions     int       `json:"max_deletions" toml:"max_deletions"`
	Policy           HitPolicy `json:"-" toml:"-"`
}

// NewConfig builds a configuration. A negative sub-budget defaults to the
// total budget.
func NewConfig(maxErrors, maxSubs, maxIns, maxDels int, policy HitPolicy) Config {
	orTotal := func(v int) int {
		if v < 0 {
			return maxErrors
		}
		return v
	}
	return Config{
		MaxErrors:        maxErrors,
		MaxSubstitutions: orTotal(maxSubs),
		MaxInsertions:    orTotal(maxIns),
		MaxDeletions:     orTotal(maxDels),
		Policy:           policy,
	}
}

// Validate rejects budgets that are negative or exceed the total.
func (c Config) Validate() error {
	if c.MaxErrors < 0 {
		return &ConfigError{Field: "max_errors", Reason: fmt.Sprintf("must be non-negative, got %d", c.MaxErrors)}
	}
	subs := []struct {
		name  string
		value int
	}{
		{"max_substitutions", c.MaxSubstitutions},
		{"max_insertions", c.MaxInsertions},
		{"max_deletions", c.MaxDeletions},
	}
	for _, s := range subs {
		if s.value < 0 {
			return &ConfigError{Field: s.name, Reason: fmt.Sprintf("must be non-negative, got %d", s.value)}
		}
		if s.value > c.MaxErrors {
			return &ConfigError{Field: s.name, Reason: fmt.Sprintf("%d exceeds the total budget %d", s.value, c.MaxErrors)}
		}
	}
	if c.Policy != AllHits && c.Policy != BestHits {
		return &ConfigError{Field: "policy", Reason: fmt.Sprintf("unknown hit policy %d", c.Policy)}
	}
	return nil
}

// capped returns the configuration restricted to a total budget of d.
func (c Config) capped(d int) Config {
	return Config{
		MaxErrors:        d,
		MaxSubstitutions: min(c.MaxSubstitutions, d),
		MaxInsertions:    min(c.MaxInsertions, d),
		MaxDeletions:     min(c.MaxDeletions, d),
		Policy:           AllHits,
	}
}

// ConfigError reports an invalid search configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid search configuration: %s: %s", e.Field, e.Reason)
}
