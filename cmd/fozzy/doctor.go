package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	dockerclient "github.com/docker/docker/client"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Args:  cobra.NoArgs,
	Short: "Check that fozzy's configuration and host backends are usable",
	Long: `Loads the active configuration and validates it, then probes
optional host-backed capabilities (currently: Docker, needed for
proc_spawn's backend=host trials) without running any scenario.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ok := true

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("config:  FAIL  %v\n", err)
		ok = false
	} else {
		fmt.Printf("config:  OK    output_dir=%s collision=%s\n", cfg.Reporting.OutputDir, cfg.Reporting.Collision)
	}

	if cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv); err != nil {
		fmt.Printf("docker:  WARN  %v (proc_spawn backend=host unavailable)\n", err)
	} else {
		defer cli.Close()
		if _, err := cli.Ping(context.Background()); err != nil {
			fmt.Printf("docker:  WARN  %v (proc_spawn backend=host unavailable)\n", err)
		} else {
			fmt.Println("docker:  OK    daemon reachable")
		}
	}

	if !ok {
		return fozzyerr.Newf(fozzyerr.KindValidation, "fozzy.doctor", "configuration is invalid")
	}
	return nil
}
