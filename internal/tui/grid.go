package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/stats"
)

const (
	disabledMark = "--"
	emptyMark    = "·"
)

type gridCell struct {
	text  string
	style lipgloss.Style
	left  bool
}

func cellText(raw string, found, disabled bool) string {
	switch {
	case disabled:
		return disabledMark
	case !found || raw == "":
		return emptyMark
	default:
		return raw
	}
}

func cellStyle(band stats.Band, disabled, empty, selected bool) lipgloss.Style {
	style := bandStyles[stats.BandNone]
	switch {
	case disabled:
		style = disabledStyle
	case empty:
		style = emptyStyle
	default:
		if s, ok := bandStyles[band]; ok {
			style = s
		}
	}
	if selected {
		style = style.Reverse(true)
	}
	return style
}

// buildGrid lays out a header row, one row per slot and a closing mean row.
func (m *Model) buildGrid(report stats.Report) [][]gridCell {
	header := []gridCell{{text: "Slot", style: headerStyle, left: true}}
	for _, p := range report.Papers {
		header = append(header, gridCell{text: p.Code, style: headerStyle})
	}
	grid := [][]gridCell{header}

	for r, ys := range report.Slots {
		row := []gridCell{{text: ys.String(), style: headerStyle, left: true}}
		for c, p := range report.Papers {
			key := model.CellKey{Mode: report.Mode, Year: ys.Year, Session: ys.Session, Subject: report.Subject, Paper: p.Code}
			disabled := m.rules.IsDisabled(key)
			raw, found := m.tracker.Score(key)
			band := stats.ColorBand(stats.PercentageOf(raw, p.MaxMark))
			empty := !found || raw == ""
			row = append(row, gridCell{
				text:  cellText(raw, found, disabled),
				style: cellStyle(band, disabled, empty, r == m.row && c == m.col),
			})
		}
		grid = append(grid, row)
	}

	mean := []gridCell{{text: "Mean", style: headerStyle, left: true}}
	for _, p := range report.Papers {
		mean = append(mean, gridCell{
			text:  stats.FormatMean(p.Mean, p.HasMean),
			style: cellStyle(p.Band, false, !p.HasMean, false).Bold(true),
		})
	}
	return append(grid, mean)
}

func (m *Model) renderGrid(report stats.Report) string {
	if len(report.Papers) == 0 {
		return emptyStyle.Render("No papers selected. Press a to track every paper.")
	}
	if len(report.Slots) == 0 {
		return emptyStyle.Render("No sessions in range.")
	}
	grid := m.buildGrid(report)
	widths := columnWidths(grid)
	lines := make([]string, 0, len(grid))
	for _, row := range grid {
		parts := make([]string, 0, len(row))
		for i, cell := range row {
			parts = append(parts, cell.style.Render(padCell(cell.text, widths[i], cell.left)))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

func columnWidths(grid [][]gridCell) []int {
	widths := []int{}
	for _, row := range grid {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(cell.text); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func padCell(value string, width int, left bool) string {
	pad := width - runewidth.StringWidth(value)
	if pad <= 0 {
		return value
	}
	if left {
		return value + strings.Repeat(" ", pad)
	}
	return strings.Repeat(" ", pad) + value
}
