package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariacomputecompany/fozzy/pkg/trace"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect .fozzy trace files",
}

var traceVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Args:  cobra.ExactArgs(1),
	Short: "Verify a .fozzy trace's version, checksum, and schema",
	RunE:  traceVerify,
}

func init() {
	traceVerifyCmd.Flags().Bool("strict", false, "treat stale-schema warnings as errors")
	traceCmd.AddCommand(traceVerifyCmd)
}

func traceVerify(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")
	path := args[0]

	tr, err := trace.ReadFile(path)
	if err != nil {
		return err
	}

	warnings, err := trace.Verify(tr, strict)
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w.Message)
	}
	if err != nil {
		return err
	}

	fmt.Printf("ok: %s\n", tr.Header.String())
	fmt.Printf("  %d decision(s), %d event(s)\n", len(tr.Decisions), len(tr.Events))
	if len(warnings) == 0 {
		fmt.Println("  no stale-schema warnings")
	}
	return nil
}
