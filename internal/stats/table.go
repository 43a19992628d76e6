// Package stats contains score aggregation and reporting.
package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	padded := padTable(headers, rows, rightAlignCols)
	if padded == nil {
		return nil
	}
	lines := make([]string, 0, len(padded))
	for _, cells := range padded {
		lines = append(lines, strings.Join(cells, " "))
	}
	return lines
}

// padTable pads every cell to its column width. The header row, when
// present, is returned first.
func padTable(headers []string, rows [][]string, rightAlignCols map[int]bool) [][]string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	out := make([][]string, 0, len(rows)+1)
	if len(headers) > 0 {
		out = append(out, padRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		out = append(out, padRow(row, widths, rightAlignCols))
	}
	return out
}

func padRow(row []string, widths []int, rightAlignCols map[int]bool) []string {
	cells := make([]string, len(widths))
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = padCell(cell, widths[i], rightAlignCols[i])
	}
	return cells
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
