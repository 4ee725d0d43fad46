package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vjranagit/engagesim/pkg/report"
)

var variantsCmd = &cobra.Command{
	Use:     "variants",
	Aliases: []string{"ls"},
	Short:   "List dataset variants",
	Long: `List the built-in dataset variants and any loaded from the variants file.

Examples:
  engagesim variants           # Table of variants
  engagesim variants --json    # Output as JSON`,
	RunE: runVariants,
}

func init() {
	rootCmd.AddCommand(variantsCmd)

	variantsCmd.Flags().Bool("json", false, "output as JSON")
}

type variantSummary struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Start         string   `json:"start"`
	DurationHours int      `json:"duration_hours"`
	Lifecycles    []string `json:"lifecycles"`
}

func runVariants(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	var summaries []variantSummary
	for _, v := range registry.List() {
		s := variantSummary{
			Name:          v.Name,
			Description:   v.Description,
			Start:         v.Start.Format("2006-01-02 15:04"),
			DurationHours: v.DurationHours,
		}
		for _, p := range v.Metrics {
			s.Lifecycles = append(s.Lifecycles, fmt.Sprintf("%s:%s", p.Metric, p.Lifecycle.Shape))
		}
		summaries = append(summaries, s)
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	table := report.NewTable(out)
	table.Header([]string{"Name", "Start", "Hours", "Lifecycle", "Description"})
	for _, s := range summaries {
		if err := table.Append([]string{s.Name, s.Start, fmt.Sprintf("%d", s.DurationHours), strings.Join(s.Lifecycles, " "), s.Description}); err != nil {
			return fmt.Errorf("failed to add variant %s: %w", s.Name, err)
		}
	}
	return table.Render()
}
