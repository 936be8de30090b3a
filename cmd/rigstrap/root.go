package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rigstrap/rigstrap/internal/domain/step"
)

var (
	// Global flags
	verbose bool
	jsonLog bool
)

var rootCmd = &cobra.Command{
	Use:   "rigstrap",
	Short: "Bring a workstation to its declared provisioning state",
	Long: `Rigstrap provisions a workstation for the accelerator speech toolkit:
conda toolchain, pinned environment, package sets, repositories at exact
references, source patches, device group membership, and hub login.

Every step first checks whether its goal state already holds, so the tool
is safe to re-run any number of times. Configuration comes from built-in
defaults overridden by RIGSTRAP_* environment variables.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "log in JSON format")

	rootCmd.AddCommand(versionCmd)
}

// formatError returns a user-friendly error message. Step errors carry a
// code and suggestion; everything else prints as-is.
func formatError(err error) string {
	var stepErr *step.Error
	if errors.As(err, &stepErr) {
		return stepErr.Format()
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}
