package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aria-lang/cuba-go/pkg/cuba"
)

func (a *app) pwalignCommand() *cobra.Command {
	var scoreOnly bool
	cmd := &cobra.Command{
		Use:   "pwalign [flags] seq1 seq2",
		Short: "Align a couple of sequences",
		Long: `Align two sequences with affine gap costs. Global alignments leave all four
end gaps unpenalized unless the matching --free-* flag is set to false.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := a.conf(cmd)
			if err != nil {
				return err
			}
			cfg, err := conf.AlignConfig()
			if err != nil {
				return err
			}
			a.logger.Infof("performing %s alignment", cfg.Mode)
			if scoreOnly {
				score, err := cuba.ScorePair(args, cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Score: %d\n", score)
				return nil
			}
			aln, err := cuba.AlignPair(args, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), aln.Format())
			a.logger.Info("done")
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&scoreOnly, "score-only", false, "Print the optimal score only, in linear memory")
	f.StringVarP(&a.flags.Align.Mode, "mode", "a", a.flags.Align.Mode, "Alignment type, global or local")
	f.IntVarP(&a.flags.Align.Match, "match", "m", a.flags.Align.Match, "Score of a matching base")
	f.IntVarP(&a.flags.Align.Mismatch, "mismatch", "x", a.flags.Align.Mismatch, "Score of a mismatching base")
	f.IntVarP(&a.flags.Align.GapOpen, "gap-open", "g", a.flags.Align.GapOpen, "Score of opening a gap")
	f.IntVarP(&a.flags.Align.GapExtend, "gap-extend", "e", a.flags.Align.GapExtend, "Score of extending a gap")
	f.BoolVar(&a.flags.Align.FreeSeq1Leading, "free-seq1-leading", a.flags.Align.FreeSeq1Leading, "Leading gaps in seq1 are free")
	f.BoolVar(&a.flags.Align.FreeSeq1Trailing, "free-seq1-trailing", a.flags.Align.FreeSeq1Trailing, "Trailing gaps in seq1 are free")
	f.BoolVar(&a.flags.Align.FreeSeq2Leading, "free-seq2-leading", a.flags.Align.FreeSeq2Leading, "Leading gaps in seq2 are free")
	f.BoolVar(&a.flags.Align.FreeSeq2Trailing, "free-seq2-trailing", a.flags.Align.FreeSeq2Trailing, "Trailing gaps in seq2 are free")
	return cmd
}
