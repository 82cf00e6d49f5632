package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"runedoc/internal/doctor"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "runedoc",
	Short: "Runbook workspace diagnostics and language server",
	Long:  "Runedoc validates runbook workspaces and serves editor tooling over LSP.",
}

func main() {
	rootCmd.Version = version
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(lspCmd)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, doctor.ErrIssuesFound) {
			// Results were already rendered; the exit code is the signal.
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
