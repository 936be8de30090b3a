package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rigstrap/rigstrap/internal/adapters/command"
	"github.com/rigstrap/rigstrap/internal/adapters/filesystem"
	"github.com/rigstrap/rigstrap/internal/adapters/logging"
	"github.com/rigstrap/rigstrap/internal/app"
	"github.com/rigstrap/rigstrap/internal/config"
	"github.com/rigstrap/rigstrap/internal/ports"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply the full provisioning sequence",
	Long: `Up runs every provisioning step in order. Steps whose goal state
already holds are reported and left untouched; the first failure stops the
run. Re-running after a failure resumes safely because completed steps
check out as satisfied.`,
	RunE: runUp,
}

var upReportPath string

func init() {
	rootCmd.AddCommand(upCmd)

	upCmd.Flags().StringVar(&upReportPath, "report", "", "write a YAML run report to this path")
}

func runUp(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	rig, err := newRigstrap()
	if err != nil {
		printError(err)
		return err
	}

	report := rig.Up(ctx)
	rig.PrintReport(report)

	if upReportPath != "" {
		if err := rig.WriteReport(upReportPath, report); err != nil {
			printError(err)
			return err
		}
	}

	if report.Failed() {
		return fmt.Errorf("provisioning failed")
	}
	return nil
}

// newRigstrap builds the orchestrator with real adapters.
func newRigstrap() (*app.Rigstrap, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}
	logger := logging.NewConsoleLogger(
		logging.WithLevel(level),
		logging.WithJSONFormat(jsonLog),
	)

	return app.New(cfg,
		command.NewRealRunner(),
		filesystem.NewRealFileSystem(),
		logger,
		os.Stdout,
	), nil
}
