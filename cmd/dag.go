package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethpandaops/shiftgraph/pkg/dependencies"
	"github.com/ethpandaops/shiftgraph/pkg/models"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Command flags need to be global for cobra
var (
	dagFlags    targetFlags
	dagScope    string
	dagShift    string
	dagProducer string
	dagDOT      bool
)

// dagCmd visualizes one variant's dependency graph
//
//nolint:gochecknoglobals // Cobra commands are typically global
var dagCmd = &cobra.Command{
	Use:   "dag",
	Short: "Visualize the producer dependency DAG of a variant",
	Long: `Visualize the dependency graph of one (scope, shift) variant, either as levels
or in DOT format. With --producer only that producer and everything it depends on
is shown.`,
	RunE: runDAG,
}

func init() {
	rootCmd.AddCommand(dagCmd)
	dagFlags.register(dagCmd)

	dagCmd.Flags().StringVar(&dagScope, "scope", "", "scope of the variant")
	dagCmd.Flags().StringVar(&dagShift, "shift", models.Nominal, "shift of the variant")
	dagCmd.Flags().StringVar(&dagProducer, "producer", "", "restrict to this producer ID and its dependencies")
	dagCmd.Flags().BoolVar(&dagDOT, "dot", false, "Output in DOT format for graphviz")

	_ = dagCmd.MarkFlagRequired("scope")
}

func runDAG(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	_, res, err := prepare(cmd, &dagFlags)
	if err != nil {
		return err
	}

	// The graph of a variant that failed validation after ordering is still worth showing
	if validateErr := res.Validate(cmd.Context()); validateErr != nil {
		logger.WithError(validateErr).Warn("Configuration has validation errors")
	}

	graph, err := res.Graph(dagScope, dagShift)
	if err != nil {
		return err
	}

	var only []string
	if dagProducer != "" {
		only, err = graph.Subgraph(dagProducer)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	if dagDOT {
		_, _ = fmt.Fprintln(out, graph.GenerateDOTFormat(dagScope+"/"+dagShift, only...))
		return nil
	}

	info := graph.GetDAGInfo()

	_, _ = fmt.Fprintln(out, "Dependency Graph:")
	_, _ = fmt.Fprintln(out, "=================")
	printDAGLevels(out, info, only)

	_, _ = fmt.Fprintln(out, "\nStatistics:")
	_, _ = fmt.Fprintln(out, "===========")
	_, _ = fmt.Fprintf(out, "Independent chains: %d\n", len(info.RootNodes))
	_, _ = fmt.Fprintf(out, "Total producers: %d\n", info.TotalProducers)
	_, _ = fmt.Fprintf(out, "Max depth: %d\n", info.MaxLevel)
	if len(info.Boundary) > 0 {
		_, _ = fmt.Fprintf(out, "External inputs: %s\n", strings.Join(models.QuantityNames(info.Boundary), ", "))
	}

	return nil
}

func printDAGLevels(w io.Writer, info *dependencies.DAGInfo, only []string) {
	include := func(id string) bool {
		if len(only) == 0 {
			return true
		}
		for _, o := range only {
			if o == id {
				return true
			}
		}
		return false
	}

	for level := 0; level <= info.MaxLevel; level++ {
		ids, exists := info.Levels[level]
		if !exists {
			continue
		}

		header := false
		for _, id := range ids {
			if !include(id) {
				continue
			}

			if !header {
				_, _ = fmt.Fprintf(w, "\nLevel %d:\n", level)
				header = true
			}

			_, _ = fmt.Fprintf(w, "  • %s", id)
			if dependents := info.Dependents[id]; len(dependents) > 0 {
				_, _ = fmt.Fprintf(w, "\n    → used by: %s", strings.Join(dependents, ", "))
			}
			_, _ = fmt.Fprintln(w)
		}
	}
}
