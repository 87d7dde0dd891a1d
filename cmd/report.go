package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Command flags need to be global for cobra
var (
	reportFlags    targetFlags
	reportTemplate string
)

// reportCmd prints a summary of the optimized plan
//
//nolint:gochecknoglobals // Cobra commands are typically global
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a summary of variants, executions and aliases",
	Long: `Resolve and optimize the selected variants and print, per scope, how many
executions remain and which shifts are aliased to which.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportFlags.register(reportCmd)

	reportCmd.Flags().StringVar(&reportTemplate, "template", "", "text/template file replacing the built-in report layout")
}

func runReport(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	_, res, err := prepare(cmd, &reportFlags)
	if err != nil {
		return err
	}

	if err := validate(cmd, res); err != nil {
		return err
	}

	if err := res.Optimize(); err != nil {
		return err
	}

	report, err := res.Report()
	if err != nil {
		return err
	}

	var content string
	if reportTemplate != "" {
		raw, readErr := os.ReadFile(reportTemplate) //nolint:gosec // User-provided template path
		if readErr != nil {
			return fmt.Errorf("failed to read template: %w", readErr)
		}
		content = string(raw)
	}

	rendered, err := report.Render(content)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), rendered)

	return nil
}
