// Package report renders evaluation reports as text tables and charts.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/vjranagit/engagesim/pkg/types"
)

var tableHeader = []string{"Variant", "Metric", "Points", "MAE", "RMSE", "Coverage", "Status"}

// NewTable creates a borderless left-aligned table
func NewTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)
}

// WriteTable writes one row per (variant, metric) result
func WriteTable(w io.Writer, report types.Report) error {
	table := NewTable(w)

	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, row(res))
	}

	table.Header(tableHeader)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to add rows: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func row(res types.EvaluationResult) []string {
	if res.Failed() {
		return []string{res.Variant, string(res.Metric), "-", "-", "-", "-", "failed: " + res.Error}
	}
	return []string{
		res.Variant,
		string(res.Metric),
		fmt.Sprintf("%d", res.Compared),
		formatFloat(res.MAE),
		formatFloat(res.RMSE),
		fmt.Sprintf("%.1f%%", res.Coverage*100),
		"ok",
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
