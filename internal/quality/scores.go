// Package quality decodes Phred scores of FASTQ reads and trims low quality
// ends before reads are indexed.
//
// Phred scores relate to base-calling error probabilities as
//
//	Q = -10 * log10(P_error)
package quality

import "fmt"

// Phred+33 encodes scores 0 through 93 as '!' through '~'.
const (
	PhredOffset = 33
	PhredMax    = 93
)

// QualityError is implemented by every error of this package.
type QualityError interface {
	error
	IsQualityError()
}

// InvalidEncodingError is returned for a character outside the Phred+33 range.
type InvalidEncodingError struct {
	Position int
	Char     byte
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("invalid quality character %q at position %d", e.Char, e.Position)
}
func (e *InvalidEncodingError) IsQualityError() {}

// LengthMismatchError is returned when a read and its qualities differ in length.
type LengthMismatchError struct {
	Bases     int
	Qualities int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("read has %d bases but %d quality scores", e.Bases, e.Qualities)
}
func (e *LengthMismatchError) IsQualityError() {}

// Scores holds the decoded quality of each base of a read.
type Scores []int

// FromPhred33 decodes a Phred+33 quality string.
func FromPhred33(encoded []byte) (Scores, error) {
	scores := make(Scores, len(encoded))
	for i, c := range encoded {
		q := int(c) - PhredOffset
		if q < 0 || q > PhredMax {
			return nil, &InvalidEncodingError{Position: i, Char: c}
		}
		scores[i] = q
	}
	return scores, nil
}

// Mean returns the average score, or 0 for no scores.
func (s Scores) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0
	for _, q := range s {
		sum += q
	}
	return float64(sum) / float64(len(s))
}
