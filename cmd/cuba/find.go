package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aria-lang/cuba-go/internal/reader"
	"github.com/aria-lang/cuba-go/internal/sequence"
	"github.com/aria-lang/cuba-go/pkg/cuba"
)

type query struct {
	name  string
	bases string
}

func (a *app) findCommand() *cobra.Command {
	var (
		indexPath   string
		queriesPath string
		realign     bool
		revcomp     bool
	)
	cmd := &cobra.Command{
		Use:   "find [flags] query...",
		Short: "Search an FM-index for strings within an edit budget",
		Long: `Search a (bidirectional) FM-index for each query. By default only the hits
with the lowest number of errors are reported; -a reports every hit within the
budget. Sub-budgets left unset default to the total budget. With -r the reverse
complement of each query is searched too, reported as <query>/rc.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := a.conf(cmd)
			if err != nil {
				return err
			}
			cfg, err := conf.SearchConfig()
			if err != nil {
				return err
			}
			queries, err := collectQueries(args, queriesPath, revcomp)
			if err != nil {
				return err
			}
			if realign && conf.Server.SequencesPath == "" {
				return errors.New("--realign needs the sequences stored with 'cuba index --vector', set --sequences")
			}

			engine, err := cuba.Open(indexPath, conf.Server.SequencesPath, conf.Kind(), a.logger)
			if err != nil {
				return err
			}

			start := time.Now()
			texts := make([]string, len(queries))
			for i, q := range queries {
				texts[i] = q.bases
			}
			batch, err := engine.FindBatch(cmd.Context(), texts, cfg, conf.Search.Threads)
			if err != nil {
				return err
			}

			var ropts cuba.RealignOptions
			if realign {
				acfg, err := conf.AlignConfig()
				if err != nil {
					return err
				}
				ropts = cuba.RealignOptions{Scoring: acfg.Scoring, Pad: conf.Search.Pad, Threads: conf.Search.Threads}
			}

			var names []string
			if coll := engine.Sequences(); coll != nil {
				names = coll.Names()
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			writeHeader(w, realign)
			total := 0
			for i, q := range queries {
				hits := batch[i]
				total += len(hits)
				if !realign {
					for _, h := range hits {
						fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", q.name, seqName(names, h.SeqID), h.Offset, h.Distance)
					}
					continue
				}
				res, err := engine.Realign(cmd.Context(), q.bases, hits, ropts)
				if err != nil {
					return err
				}
				for _, r := range res {
					aln := r.Alignment
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n", q.name, seqName(names, r.Hit.SeqID),
						r.Hit.Offset, r.Hit.Distance, r.RefBegin, r.RefEnd, aln.Score,
						aln.EditDistance(), aln.GapOpenings(), aln.CIGAR())
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			a.logger.Infof("%s queries, %s hits in %s", humanize.Comma(int64(len(queries))),
				humanize.Comma(int64(total)), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&indexPath, "fmindex", "f", "", "Input (bidirectional) FM-index")
	f.StringVarP(&queriesPath, "queries", "q", "", "Read queries from a FASTA/FASTQ file")
	f.BoolVarP(&a.flags.Index.Bidirectional, "bidirectional", "b", a.flags.Index.Bidirectional, "The index is bidirectional (a .bifmi file)")
	f.IntVarP(&a.flags.Search.Errors, "errors", "e", a.flags.Search.Errors, "Maximum number of errors")
	f.IntVarP(&a.flags.Search.Substitutions, "substitutions", "x", a.flags.Search.Substitutions, "Maximum number of substitutions (-1: total)")
	f.IntVarP(&a.flags.Search.Insertions, "insertions", "i", a.flags.Search.Insertions, "Maximum number of insertions (-1: total)")
	f.IntVarP(&a.flags.Search.Deletions, "deletions", "d", a.flags.Search.Deletions, "Maximum number of deletions (-1: total)")
	f.BoolVarP(&a.flags.Search.AllHits, "all", "a", a.flags.Search.AllHits, "Report all hits, not only the best ones")
	f.IntVarP(&a.flags.Search.Threads, "threads", "t", a.flags.Search.Threads, "Number of search threads")
	f.BoolVarP(&revcomp, "revcomp", "r", false, "Also search the reverse complement of each query")
	f.BoolVar(&realign, "realign", false, "Align each hit against its reference window")
	f.StringVarP(&a.flags.Server.SequencesPath, "sequences", "s", "", "Sequences stored by 'cuba index --vector'")
	f.IntVar(&a.flags.Search.Pad, "pad", a.flags.Search.Pad, "Reference window padding for --realign")
	cmd.MarkFlagRequired("fmindex")
	return cmd
}

func collectQueries(args []string, path string, revcomp bool) ([]query, error) {
	queries := make([]query, 0, len(args))
	for i, q := range args {
		queries = append(queries, query{name: "query" + strconv.Itoa(i+1), bases: q})
	}
	if path != "" {
		coll, _, err := reader.ReadFiles([]string{path}, reader.Options{})
		if err != nil {
			return nil, err
		}
		for id := 0; id < coll.Len(); id++ {
			s, _ := coll.At(id)
			queries = append(queries, query{name: s.ID, bases: s.Bases()})
		}
	}
	if len(queries) == 0 {
		return nil, errors.New("no query given")
	}
	if revcomp {
		for _, q := range queries {
			rc := sequence.New(q.bases).ReverseComplement()
			queries = append(queries, query{name: q.name + "/rc", bases: rc.Bases()})
		}
	}
	return queries, nil
}

// seqName prefers the stored identifier of sequence id over its number.
func seqName(names []string, id int) string {
	if id < len(names) && names[id] != "" {
		return names[id]
	}
	return strconv.Itoa(id)
}

func writeHeader(w io.Writer, realign bool) {
	if realign {
		fmt.Fprintln(w, "#query\treference\toffset\tdistance\tref_begin\tref_end\tscore\tedits\tgap_openings\tcigar")
		return
	}
	fmt.Fprintln(w, "#query\treference\toffset\tdistance")
}
