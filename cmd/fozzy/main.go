package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // set by build flags
	commit  = "none" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "fozzy",
	Short: "A deterministic scenario execution engine",
	Long: `Fozzy drives a declarative scenario's step sequence against a
virtualized, seed-controlled substrate and classifies the result.
Every run is either reproduced byte-for-byte from its decision log
(replay) or minimized to the smallest failing step sequence (shrink).`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: fozzy.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(shrinkCmd)
	rootCmd.AddCommand(fuzzCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(doctorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fozzy:", err)
		kind := fozzyerr.KindOf(err)
		if kind == "" {
			os.Exit(1)
		}
		os.Exit(fozzyerr.ExitCode(kind))
	}
}
