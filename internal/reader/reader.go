// Package reader loads FASTA and FASTQ files, optionally gzip compressed,
// into sequence collections.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/aria-lang/cuba-go/internal/quality"
	"github.com/aria-lang/cuba-go/internal/sequence"
)

func init() {
	// Unknown characters become the wildcard during encoding.
	seq.ValidateSeq = false
}

// Options control how records are turned into sequences.
type Options struct {
	// Trimmer, when set, trims FASTQ reads by quality and drops reads that
	// fail it. FASTA records are never trimmed.
	Trimmer *quality.Trimmer
	// OnFile is called after each file with the number of records read.
	OnFile func(path string, records int)
}

// Stats reports what a read produced.
type Stats struct {
	Files   int `json:"files"`
	Records int `json:"records"`
	Dropped int `json:"dropped"`
}

// FileError wraps a failure to read one input file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("reading %s: %v", e.Path, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// ReadFiles reads every record of files, in order, into one collection.
// The path "-" reads standard input.
func ReadFiles(files []string, opts Options) (*sequence.Collection, Stats, error) {
	var (
		stats Stats
		seqs  []*sequence.Sequence
	)
	for _, path := range files {
		n, dropped, err := readFile(path, opts.Trimmer, func(s *sequence.Sequence) {
			seqs = append(seqs, s)
		})
		if err != nil {
			return nil, stats, &FileError{Path: path, Err: err}
		}
		stats.Files++
		stats.Records += n
		stats.Dropped += dropped
		if opts.OnFile != nil {
			opts.OnFile(path, n)
		}
	}
	return sequence.NewCollection(seqs...), stats, nil
}

func readFile(path string, trimmer *quality.Trimmer, emit func(*sequence.Sequence)) (records, dropped int, err error) {
	r, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return 0, 0, err
	}
	defer r.Close()

	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, dropped, nil
			}
			return records, dropped, err
		}
		records++

		bases := record.Seq.Seq
		if trimmer != nil && len(record.Seq.Qual) > 0 {
			start, end, keep, err := trimmer.Apply(bases, record.Seq.Qual)
			if err != nil {
				return records, dropped, fmt.Errorf("record %s: %w", record.ID, err)
			}
			if !keep {
				dropped++
				continue
			}
			bases = bases[start:end]
		}

		s := &sequence.Sequence{
			ID:          string(record.ID),
			Description: string(bytes.TrimSpace(bytes.TrimPrefix(record.Name, record.ID))),
			Symbols:     sequence.EncodeBytes(bases),
		}
		emit(s)
	}
}
