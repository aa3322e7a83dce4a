package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AnferLagbu/Chameleon/internal/batch"
)

type SummaryRow struct {
	Label string
	Value string
}

// TallyRows lays a final tally out for RenderSummary.
func TallyRows(t batch.Tally) []SummaryRow {
	return []SummaryRow{
		{Label: "Converted", Value: strconv.Itoa(t.Success)},
		{Label: "Failed", Value: strconv.Itoa(t.Failure)},
		{Label: "Animated detected", Value: strconv.Itoa(t.Animated)},
		{Label: "Animated skipped", Value: strconv.Itoa(t.SkippedAnimated)},
	}
}

// RenderSummary draws a two-column table of the batch outcome.
func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", summaryLabelStyle.Render(label), summaryValueStyle.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	summaryLabelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	summaryValueStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
)
