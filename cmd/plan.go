package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethpandaops/shiftgraph/pkg/resolver"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//nolint:gochecknoglobals // Command flags need to be global for cobra
var (
	planFlags      targetFlags
	planOutput     string
	planFormat     string
	planNoOptimize bool
)

// planCmd writes the resolved plan for the code emitter
//
//nolint:gochecknoglobals // Cobra commands are typically global
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Resolve, deduplicate and write the execution plan",
	Long: `Resolve every selected (scope, shift) variant, alias variants that do identical
work and write the plan with bound parameters and rendered calls.

Examples:
  # Plan every scope and shift for 2018 Drell-Yan
  shiftgraph plan --era 2018 --sample dy

  # Only the tau energy scale shifts of the mt scope, as yaml
  shiftgraph plan --era 2018 --sample dy --scopes mt --shifts tauEsUp,tauEsDown --format yaml`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planFlags.register(planCmd)

	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "write the plan to this file instead of stdout")
	planCmd.Flags().StringVar(&planFormat, "format", "", "output format, json or yaml (default from config)")
	planCmd.Flags().BoolVar(&planNoOptimize, "no-optimize", false, "keep the steps of every variant instead of aliasing duplicates")
}

func runPlan(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cfg, res, err := prepare(cmd, &planFlags)
	if err != nil {
		return err
	}

	format := cfg.Format
	if planFormat != "" {
		format = planFormat
	}

	if err := validate(cmd, res); err != nil {
		return err
	}

	if !planNoOptimize {
		if err := res.Optimize(); err != nil {
			return err
		}
	}

	plan, err := res.Expand()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if planOutput != "" {
		f, err := os.Create(planOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", planOutput, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				logger.WithError(closeErr).Error("Failed to close plan file")
			}
		}()
		out = f
	}

	if err := writePlan(out, plan, format); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"variants":   len(plan.Variants),
		"executions": len(plan.Executions()),
	}).Info("Wrote plan")

	return nil
}

func writePlan(w io.Writer, plan *resolver.Plan, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
