package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethpandaops/shiftgraph/pkg/models"
	"github.com/ethpandaops/shiftgraph/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const declarations = `module: m
external: [x]
producers:
  - name: A
    call: 'A({df}, "{output}", {input}, {k})'
    input: [x]
    output: [a]
    scopes: [mt]
  - name: B
    call: 'B({df}, "{output}", {input})'
    input: [a]
    output: [b]
    scopes: [mt]
producers_by_scope:
  - scopes: [mt]
    producers: [A, B]
parameters:
  - scopes: [mt]
    values:
      k:
        by_era:
          "2017, 2018": 1
outputs:
  - scopes: [mt]
    quantities: [b]
shifts:
  - name: same
    scopes:
      mt:
        parameters:
          k: 1
  - name: up
    scopes:
      mt:
        parameters:
          k: 2
`

func setup(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	decls := filepath.Join(dir, "declarations")
	require.NoError(t, os.MkdirAll(decls, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(decls, "m.yaml"), []byte(declarations), 0o600))

	config := "logging: error\npaths: [" + decls + "]\nscopes: [mt]\nformat: json\n"
	path := filepath.Join(dir, "shiftgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))

	t.Setenv(envEra, "")
	t.Setenv(envSample, "")

	return path
}

func execute(args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err = rootCmd.Execute()

	return out.String(), errOut.String(), err
}

func TestPlanCommand(t *testing.T) {
	config := setup(t)

	t.Run("json", func(t *testing.T) {
		stdout, _, err := execute("plan", "--config", config, "--era", "2018", "--sample", "dy", "--format", "json")
		require.NoError(t, err)

		var plan resolver.Plan
		require.NoError(t, json.Unmarshal([]byte(stdout), &plan))

		assert.Equal(t, "2018", plan.Era)
		require.Len(t, plan.Variants, 3)

		nominal, ok := plan.Lookup("mt", models.Nominal)
		require.True(t, ok)
		require.Len(t, nominal.Steps, 2)
		assert.Equal(t, `A({df}, "{output}", {input}, 1)`, nominal.Steps[0].Call)

		same, ok := plan.Lookup("mt", "same")
		require.True(t, ok)
		assert.Equal(t, models.Nominal, same.AliasOf)
		assert.Empty(t, same.Steps)

		up, ok := plan.Lookup("mt", "up")
		require.True(t, ok)
		assert.Empty(t, up.AliasOf)
		assert.Equal(t, `A({df}, "{output}", {input}, 2)`, up.Steps[0].Call)
	})

	t.Run("yaml from environment target", func(t *testing.T) {
		t.Setenv(envEra, "2017")
		t.Setenv(envSample, "data")

		stdout, _, err := execute("plan", "--config", config, "--era", "", "--sample", "", "--shifts", "none", "--format", "yaml")
		require.NoError(t, err)

		var plan resolver.Plan
		require.NoError(t, yaml.Unmarshal([]byte(stdout), &plan))
		assert.Equal(t, "2017", plan.Era)
		assert.Equal(t, "data", plan.Sample)
		require.Len(t, plan.Variants, 1)
	})
}

func TestValidateCommand(t *testing.T) {
	config := setup(t)

	tests := []struct {
		name          string
		args          []string
		expectedError error
		stdout        string
		stderr        string
	}{
		{
			name:   "valid",
			args:   []string{"--era", "2018", "--sample", "dy", "--shifts", "all"},
			stdout: "3 variants valid",
		},
		{
			name:          "unresolved parameter in every variant but the overriding ones",
			args:          []string{"--era", "2019", "--sample", "dy", "--shifts", "all"},
			expectedError: ErrValidationFailed,
			stderr:        "[unresolved_parameter] mt/nominal",
		},
		{
			name:          "era required",
			args:          []string{"--era", "", "--sample", "dy"},
			expectedError: resolver.ErrTargetIncomplete,
		},
		{
			name:   "unknown shift is a warning",
			args:   []string{"--era", "2018", "--sample", "dy", "--shifts", "down"},
			stdout: "1 variants valid",
			stderr: "! ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := execute(append([]string{"validate", "--config", config}, tt.args...)...)
			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
			}

			if tt.stdout != "" {
				assert.Contains(t, stdout, tt.stdout)
			}
			if tt.stderr != "" {
				assert.Contains(t, stderr, tt.stderr)
			}
		})
	}
}

func TestDAGCommand(t *testing.T) {
	config := setup(t)

	stdout, _, err := execute("dag", "--config", config, "--era", "2018", "--sample", "dy",
		"--shifts", "all", "--scope", "mt", "--shift", "up", "--dot")
	require.NoError(t, err)

	assert.Contains(t, stdout, `digraph "mt/up"`)
	assert.Contains(t, stdout, `"m.A" -> "m.B" [label="a"]`)
	assert.Contains(t, stdout, `"x" -> "m.A"`)

	stdout, _, err = execute("dag", "--config", config, "--era", "2018", "--sample", "dy",
		"--scope", "mt", "--shift", "nominal", "--dot=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Total producers: 2")
	assert.Contains(t, stdout, "External inputs: x")
}

func TestReportCommand(t *testing.T) {
	config := setup(t)

	stdout, _, err := execute("report", "--config", config, "--era", "2018", "--sample", "dy", "--shifts", "all")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Plan for era 2018, sample dy")
	assert.Contains(t, stdout, "scope MT: 3 variants, 2 executions")
	assert.Contains(t, stdout, "alias of nominal")
}

func TestLoadCLIConfig(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadCLIConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)

		assert.Equal(t, []string{"declarations"}, cfg.Paths)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, formatJSON, cfg.Format)
		assert.ErrorIs(t, cfg.Validate(), ErrScopesRequired)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("scopes: [mt, et]\nglobal_scope: global\nworkers: 0\nformat: yaml\n"), 0o600))

		cfg, err := LoadCLIConfig(path)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, []string{"mt", "et"}, cfg.Scopes)
		assert.Equal(t, "global", cfg.GlobalScope)
		assert.Equal(t, 1, cfg.Workers)
		assert.Equal(t, formatYAML, cfg.Format)
	})

	t.Run("unsupported format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("scopes: [mt]\nformat: toml\n"), 0o600))

		cfg, err := LoadCLIConfig(path)
		require.NoError(t, err)
		assert.ErrorIs(t, cfg.Validate(), ErrUnsupportedFormat)
	})
}
