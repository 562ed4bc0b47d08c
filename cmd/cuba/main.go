// Command cuba builds FM-indexes over FASTA/FASTQ files, searches them with
// a bounded number of edits and aligns pairs of sequences.
//
// Usage:
//
//	cuba index [-b] [-f out.fmi] [-v out.seqs] files...
//	cuba find -f out.fmi [-b] [-e N -x N -i N -d N] [-a] query...
//	cuba pwalign [-a global|local] [-m N -x N -g N -e N] seq1 seq2
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aria-lang/cuba-go/internal/config"
	"github.com/aria-lang/cuba-go/internal/logging"
	"github.com/aria-lang/cuba-go/pkg/cuba"
)

// app holds the state shared by all subcommands.
type app struct {
	confPath string
	verbose  bool
	stderr   io.Writer

	// flags receives flag values; only flags set explicitly override the
	// configuration file.
	flags  *config.Conf
	logger *log.Logger
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	a, root := newRootCommand(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	if err := root.Execute(); err != nil {
		a.logger.Error(err)
		return 1
	}
	return 0
}

func newRootCommand(stderr io.Writer) (*app, *cobra.Command) {
	a := &app{flags: config.Default(), stderr: stderr, logger: logging.New(stderr, false)}

	root := &cobra.Command{
		Use:           "cuba",
		Short:         "approximate string search over FM-indexes and pairwise alignment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = logging.New(a.stderr, a.verbose)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&a.confPath, "config", "c", "", "TOML configuration file")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Log debug output")

	root.AddCommand(
		a.indexCommand(),
		a.findCommand(),
		a.pwalignCommand(),
		a.configCommand(),
		versionCommand(),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("wrong command-line argument: %w", err)
	})
	return a, root
}

// conf merges the configuration file with the flags set on cmd.
func (a *app) conf(cmd *cobra.Command) (*config.Conf, error) {
	fileConf, err := config.LoadFile(a.confPath)
	if err != nil {
		return nil, err
	}
	return a.flags.FlagMerge(fileConf, cmd.Flags().Changed), nil
}

func (a *app) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := a.conf(cmd)
			if err != nil {
				return err
			}
			return conf.Write(cmd.OutOrStdout())
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cuba version %s\n", cuba.Version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
