// internal/harness/report.go
package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/util"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// Save writes the report as indented JSON in a single atomic write.
func Save(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := util.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// PrintSummary renders the summary JSON followed by a per-case table.
func PrintSummary(out io.Writer, report Report) error {
	data, err := json.MarshalIndent(report.Summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nSUMMARY:")
	fmt.Fprintln(out, string(data))
	if len(report.Results) == 0 {
		return nil
	}
	fmt.Fprintln(out, RenderTable(report.Results))
	return nil
}

const modeColumnWidth = 40

// RenderTable lays out one row per case.
func RenderTable(results []CaseResult) string {
	headers := []string{"ID", "TYPE", "RUNS", "UNIQUE", "CONSISTENCY", "PASS RATE", "AVG LATENCY", "MODE RESPONSE"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			string(r.ID),
			r.Type,
			fmt.Sprintf("%d", r.NumRunsTotal),
			fmt.Sprintf("%d", r.UniqueOutputs),
			fmt.Sprintf("%.2f", r.Consistency),
			fmt.Sprintf("%.2f", r.PassRate),
			fmt.Sprintf("%.3fs", r.AvgLatencySec),
			util.TruncateRunes(strings.ReplaceAll(r.ModeResponse, "\n", " "), modeColumnWidth),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	b.WriteString(renderRow(headers, widths, func(int, string) lipgloss.Style { return headerStyle }))
	for i, row := range rows {
		b.WriteByte('\n')
		passRate := results[i].PassRate
		b.WriteString(renderRow(row, widths, func(col int, _ string) lipgloss.Style {
			if col != 5 {
				return cellStyle
			}
			if passRate == 1 {
				return goodStyle
			}
			return badStyle
		}))
	}
	return boxStyle.Render(b.String())
}

func renderRow(cells []string, widths []int, style func(int, string) lipgloss.Style) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = style(i, cell).Width(widths[i]).Render(cell)
	}
	return strings.Join(parts, "  ")
}
