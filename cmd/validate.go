package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Command flags need to be global for cobra
var validateFlags targetFlags

// validateCmd validates every selected variant
//
//nolint:gochecknoglobals // Cobra commands are typically global
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every (scope, shift) variant",
	Long: `Resolve every selected (scope, shift) variant for the era and sample and report
all missing inputs, duplicate outputs, cycles and unresolved parameters at once.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateFlags.register(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	_, res, err := prepare(cmd, &validateFlags)
	if err != nil {
		return err
	}

	if err := validate(cmd, res); err != nil {
		return err
	}

	plan, err := res.Expand()
	if err != nil {
		return err
	}

	for _, v := range plan.Variants {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s/%s: %d steps\n", v.Scope, v.Shift, len(v.Steps))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d variants valid\n", len(plan.Variants))

	return nil
}
