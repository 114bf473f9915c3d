package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePipelineFixtures creates a CSV dataset, a config file, a target
// schema, and a candidates file in a temp directory.
func writePipelineFixtures(t *testing.T) (configPath, schemaPath, candidatesPath string) {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "customers.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"cust_no,name,email\n"+
			"C-1,Alice,alice@example.com\n"+
			"C-2,Bob,bob@example.com\n"+
			"C-3,Carol,\n"+
			"C-4,Dave,dave@example.com\n"), 0o644))

	configPath = filepath.Join(dir, "migrion.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`
source:
  type: csv
  path: %s

processing:
  batch_size: 2
  workers: 1
  policy: best-effort

logging:
  level: error
  format: json
`, csvPath)), 0o644))

	schemaPath = filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{
		"schema_name": "customers",
		"fields": [
			{"name": "id", "type": "varchar", "required": true},
			{"name": "full_name", "type": "varchar"},
			{"name": "email", "type": "varchar"}
		]
	}`), 0o644))

	candidatesPath = filepath.Join(dir, "candidates.json")
	require.NoError(t, os.WriteFile(candidatesPath, []byte(`[
		{"source_field": "cust_no", "target_field": "id", "transform": "direct", "confidence": 0.95},
		{"source_field": "name", "target_field": "full_name", "transform": "trim", "confidence": 0.85},
		{"source_field": "email", "target_field": "email", "transform": "normalize", "confidence": 0.9}
	]`), 0o644))

	return configPath, schemaPath, candidatesPath
}

// execute runs the root command with the given args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every changed flag on cmd and its subcommands to its
// default value so later tests observe pristine flag state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestProfileCommand(t *testing.T) {
	configPath, _, _ := writePipelineFixtures(t)

	out, err := execute(t, "profile", "--config", configPath, "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "4 records")
	assert.Contains(t, out, "cust_no")
	assert.Contains(t, out, "email")
	// Two of four emails missing-free but one blank: completeness 0.75.
	assert.Contains(t, out, "0.75")
}

func TestValidateCommand(t *testing.T) {
	configPath, schemaPath, candidatesPath := writePipelineFixtures(t)

	out, err := execute(t, "validate",
		"--config", configPath,
		"--schema", schemaPath,
		"--candidates", candidatesPath,
		"--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "3 rule(s)")
	assert.Contains(t, out, "full_name")
}

func TestMigrateDryRun(t *testing.T) {
	configPath, schemaPath, candidatesPath := writePipelineFixtures(t)

	jsonOut := filepath.Join(t.TempDir(), "result.json")
	out, err := execute(t, "migrate",
		"--config", configPath,
		"--schema", schemaPath,
		"--candidates", candidatesPath,
		"--dry-run",
		"--json", jsonOut,
		"--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "4 committed")

	data, err := os.ReadFile(jsonOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state": "completed"`)
}
