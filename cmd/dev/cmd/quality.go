package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Test(); err != nil {
				return fmt.Errorf("failed to run tests: %w", err)
			}
			return nil
		},
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
}

// ScenarioCmd replays a scenario file through the simulated bus with the
// twictl sources of the working tree.
func ScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Replay bus scenarios against the simulated controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("could not get file flag: %w", err)
			}
			slog.Info("replaying scenarios", "file", file)
			run := exec.CommandContext(cmd.Context(), "go", "run", mainPkg, "scenario", "--file", file, "--details")
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			if err := run.Run(); err != nil {
				return fmt.Errorf("scenario replay failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("file", "cmd/twictl/testdata/scenarios.yaml", "scenario file")
	return cmd
}
