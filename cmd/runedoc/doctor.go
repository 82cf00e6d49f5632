package main

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"runedoc/internal/doctor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [runbook-name|file.tx]",
	Short: "Validate runbooks against the workspace manifest",
	Long: `Check one runbook, or every runbook listed in the manifest, for
undefined inputs, naming problems, sensitive values and placeholder
values. Exits 1 when errors are found, 2 on operational failure.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDoctor,
}

func init() {
	doctorCmd.Flags().StringP("manifest", "m", "", "path to the workspace manifest")
	doctorCmd.Flags().StringP("environment", "e", "", "environment to validate against")
	doctorCmd.Flags().StringArrayP("input", "i", nil, "input override as key=value (repeatable)")
	doctorCmd.Flags().StringP("format", "f", "terminal", "output format (terminal|json|quickfix)")
	doctorCmd.Flags().CountP("verbose", "v", "increase log verbosity")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	manifestPath, err := cmd.Flags().GetString("manifest")
	if err != nil {
		return err
	}
	environment, err := cmd.Flags().GetString("environment")
	if err != nil {
		return err
	}
	rawInputs, err := cmd.Flags().GetStringArray("input")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	verbosity, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return err
	}
	commonlog.Configure(verbosity, nil)

	runbook := ""
	if len(args) == 1 {
		runbook = args[0]
	}

	cfg, err := doctor.NewConfig(manifestPath, runbook, environment, rawInputs, format)
	if err != nil {
		return err
	}

	return doctor.Run(cmd.Context(), cfg, cmd.OutOrStdout())
}
