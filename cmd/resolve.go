package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethpandaops/shiftgraph/pkg/resolver"
	"github.com/ethpandaops/shiftgraph/pkg/validation"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

const (
	envEra    = "SHIFTGRAPH_ERA"
	envSample = "SHIFTGRAPH_SAMPLE"
)

// ErrValidationFailed is returned when any variant fails validation
var ErrValidationFailed = errors.New("validation failed")

// targetFlags selects what a command resolves
type targetFlags struct {
	era    string
	sample string
	scopes string
	shifts string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.era, "era", "", "data-taking era (default $"+envEra+")")
	cmd.Flags().StringVar(&f.sample, "sample", "", "sample type (default $"+envSample+")")
	cmd.Flags().StringVar(&f.scopes, "scopes", "", "comma-separated scopes to resolve (default all)")
	cmd.Flags().StringVar(&f.shifts, "shifts", "", "comma-separated shift allowlist, or all or none (default all)")
}

func (f *targetFlags) target() (resolver.Target, error) {
	t := resolver.Target{
		Era:    f.era,
		Sample: f.sample,
		Scopes: splitList(f.scopes),
		Shifts: splitList(f.shifts),
	}

	if t.Era == "" {
		t.Era = os.Getenv(envEra)
	}
	if t.Sample == "" {
		t.Sample = os.Getenv(envSample)
	}

	if t.Era == "" || t.Sample == "" {
		return t, fmt.Errorf("%w: set --era and --sample or %s and %s", resolver.ErrTargetIncomplete, envEra, envSample)
	}

	return t, nil
}

func splitList(value string) []string {
	return lo.Compact(lo.Map(strings.Split(value, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

// prepare loads the configuration and declarations and creates a resolution for the flags
func prepare(cmd *cobra.Command, flags *targetFlags) (*CLIConfig, *resolver.Resolution, error) {
	cfg, err := LoadCLIConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	applyLogLevel(cmd, cfg.Logging)

	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, nil, validationErr
	}

	target, err := flags.target()
	if err != nil {
		return nil, nil, err
	}

	def, err := loadDefinition(cfg)
	if err != nil {
		return nil, nil, err
	}

	res, err := resolver.New(def, target, resolver.Options{Workers: cfg.Workers}, logger)
	if err != nil {
		return nil, nil, err
	}

	return cfg, res, nil
}

// validate runs the resolution and prints every error with its scope and shift
func validate(cmd *cobra.Command, res *resolver.Resolution) error {
	err := res.Validate(cmd.Context())

	for _, w := range res.Warnings() {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "! %v\n", w)
	}

	if err == nil {
		return nil
	}

	errs := multierr.Errors(err)
	printErrors(cmd.ErrOrStderr(), errs)

	return fmt.Errorf("%w: %d errors", ErrValidationFailed, len(errs))
}

func printErrors(w io.Writer, errs []error) {
	for _, err := range errs {
		kind := validation.Kind(err)

		var ve *validation.VariantError
		if errors.As(err, &ve) {
			_, _ = fmt.Fprintf(w, "✗ [%s] %s/%s: %v\n", kind, ve.Scope, ve.Shift, ve.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "✗ [%s] %v\n", kind, err)
	}
}
