package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores flag defaults; cobra keeps values between Execute calls
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with a fresh config file under a temp dir
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeIn(t, t.TempDir(), args...)
}

// executeIn runs the root command against a config rooted at dir
func executeIn(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(dir, "engagesim.yaml")
	content := "storage:\n  path: " + filepath.Join(dir, "data") + "\nreport:\n  dir: " + filepath.Join(dir, "plots") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVariantsCommandJSON(t *testing.T) {
	out, err := execute(t, "variants", "--json")
	require.NoError(t, err)

	var summaries []variantSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 4)
	assert.Equal(t, "noisy", summaries[0].Name)
	assert.Contains(t, summaries[3].Lifecycles, "likes:weibull")
}

func TestGenerateCommandStdout(t *testing.T) {
	out, err := execute(t, "generate", "noisy", "--seed", "9", "--stdout")
	require.NoError(t, err)

	var all map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	assert.Len(t, all["noisy"], 336)
}

func TestGenerateCommandUnknownVariant(t *testing.T) {
	_, err := execute(t, "generate", "viral", "--stdout")
	assert.Error(t, err)
}

func TestEvaluateCommand(t *testing.T) {
	out, err := execute(t, "evaluate", "noisy", "--seed", "3", "--no-charts", "--metrics", "likes,comments")
	require.NoError(t, err)

	assert.Contains(t, out, "noisy")
	assert.Contains(t, out, "comments")
	assert.Contains(t, out, "2 evaluations")
}

func TestEvaluateCommandFromStore(t *testing.T) {
	dir := t.TempDir()
	_, err := executeIn(t, dir, "generate", "right-skewed", "--seed", "4")
	require.NoError(t, err)
	resetFlags(rootCmd)

	out, err := executeIn(t, dir, "evaluate", "--from-store", "--no-charts", "right-skewed", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, "right-skewed")
	assert.Contains(t, out, "series not found")
	assert.Contains(t, out, "1 of 2 evaluations failed")
}

func TestEvaluateCommandWritesCombinedChart(t *testing.T) {
	dir := t.TempDir()
	out, err := executeIn(t, dir, "evaluate", "noisy", "daily-cycle", "--seed", "3", "--no-store")
	require.NoError(t, err)
	assert.Contains(t, out, "2 panels written")

	_, err = os.Stat(filepath.Join(dir, "plots", "evaluation.png"))
	assert.NoError(t, err)
}

func TestGenerateCommandChart(t *testing.T) {
	dir := t.TempDir()
	out, err := executeIn(t, dir, "generate", "right-skewed", "--seed", "2", "--chart")
	require.NoError(t, err)
	assert.Contains(t, out, "peak days")
	assert.Equal(t, 3, strings.Count(out[strings.Index(out, "peak days"):], "2025-04-"))

	_, err = os.Stat(filepath.Join(dir, "plots", "right-skewed_trend.png"))
	assert.NoError(t, err)
}

func TestVariantsCommandTable(t *testing.T) {
	out, err := execute(t, "variants")
	require.NoError(t, err)
	assert.Contains(t, out, "right-skewed")
	assert.Contains(t, out, "likes:weibull")
}

func TestHistoryCommandListsRuns(t *testing.T) {
	dir := t.TempDir()
	_, err := executeIn(t, dir, "evaluate", "noisy", "--seed", "3", "--no-charts", "--no-store")
	require.NoError(t, err)
	resetFlags(rootCmd)

	out, err := executeIn(t, dir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "168h")
	assert.Contains(t, out, "48h")
}
