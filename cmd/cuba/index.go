package main

import (
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aria-lang/cuba-go/pkg/cuba"
)

func (a *app) indexCommand() *cobra.Command {
	var (
		output   string
		vector   string
		progress bool
		trim     cuba.Trimmer
	)
	cmd := &cobra.Command{
		Use:   "index [flags] files...",
		Short: "Build an FM-index over FASTA/FASTQ files",
		Long: `Build a unidirectional (.fmi) or bidirectional (.bifmi) FM-index over every
record of the input files. Inputs may be FASTA or FASTQ, optionally gzip
compressed; "-" reads standard input. An output name with the wrong extension
is corrected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := a.conf(cmd)
			if err != nil {
				return err
			}

			opts := cuba.BuildOptions{Kind: conf.Kind(), SampleRate: conf.Index.SampleRate}
			if cmd.Flags().Changed("trim-quality") {
				opts.Trimmer = &trim
			}
			var bar *pb.ProgressBar
			if progress {
				bar = pb.Full.New(len(args)).SetWriter(a.stderr).Start()
				opts.OnFile = func(path string, records int) {
					a.logger.Debugf("read %s records from %s", humanize.Comma(int64(records)), path)
					bar.Increment()
				}
			} else {
				opts.OnFile = func(path string, records int) {
					a.logger.Infof("read %s records from %s", humanize.Comma(int64(records)), path)
				}
			}

			engine, _, err := cuba.Build(args, opts, a.logger)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}

			path, err := engine.Save(output, vector)
			if err != nil {
				return err
			}
			if fi, err := os.Stat(path); err == nil {
				a.logger.Infof("index stored to %s (%s)", path, humanize.Bytes(uint64(fi.Size())))
			}
			if vector != "" {
				a.logger.Infof("sequences stored to %s", vector)
			}
			a.logger.Info("done")
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&a.flags.Index.Bidirectional, "bidirectional", "b", a.flags.Index.Bidirectional, "Create a bidirectional index (.bifmi)")
	f.IntVar(&a.flags.Index.SampleRate, "sample-rate", a.flags.Index.SampleRate, "Suffix array sampling distance")
	f.StringVarP(&output, "fmindex", "f", "out.fmi", "Output index file")
	f.StringVarP(&vector, "vector", "v", "", "Also store the sequences to this file, for realignment")
	f.BoolVarP(&progress, "progress", "p", false, "Show a progress bar over the input files")
	f.IntVar(&trim.Threshold, "trim-quality", 0, "Trim FASTQ read ends below this Phred score")
	f.IntVar(&trim.WindowSize, "trim-window", 1, "Sliding window size for quality trimming")
	f.IntVar(&trim.MinLength, "min-length", 0, "Drop trimmed FASTQ reads shorter than this")
	f.Float64Var(&trim.MinMean, "min-mean-quality", 0, "Drop trimmed FASTQ reads with a lower mean quality")
	return cmd
}
