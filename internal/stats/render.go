package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

const (
	colorReset   = "\x1b[0m"
	disabledCell = "--"
)

var bandColors = map[Band]string{
	BandHigh: "\x1b[32m",
	BandMid:  "\x1b[33m",
	BandLow:  "\x1b[35m",
	BandFail: "\x1b[31m",
}

func colorize(s string, band Band, useColor bool) string {
	code, ok := bandColors[band]
	if !useColor || !ok {
		return s
	}
	return code + s + colorReset
}

// RenderSummary prints one row per tracked paper.
func RenderSummary(w io.Writer, report Report, useColor bool) error {
	if _, err := fmt.Fprintf(w, "%s (%s) - %d slots\n", report.Subject, report.Mode, len(report.Slots)); err != nil {
		return err
	}
	if len(report.Papers) == 0 {
		_, err := fmt.Fprintln(w, "No papers tracked.")
		return err
	}

	headers := []string{"Paper", "Max", "Count", "Mean", "Best", "Mean %", "Band", "Percentile"}
	rows := make([][]string, 0, len(report.Papers))
	for _, p := range report.Papers {
		best := "-"
		if p.Count > 0 {
			best = strconv.FormatFloat(p.Best, 'f', -1, 64)
		}
		percentile := "-"
		if p.HasMean && p.MaxMark > 0 {
			percentile = fmt.Sprintf("P%d", p.Percentile)
		}
		rows = append(rows, []string{
			p.Code,
			strconv.Itoa(p.MaxMark),
			strconv.Itoa(p.Count),
			FormatMean(p.Mean, p.HasMean),
			best,
			FormatPercent(p.MeanPct),
			string(p.Band),
			percentile,
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 7: true}
	lines := formatTable(headers, rows, rightAlign)
	for i, line := range lines {
		if i > 0 {
			line = colorize(line, report.Papers[i-1].Band, useColor)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderWeakest prints the papers with the lowest mean percentage.
func RenderWeakest(w io.Writer, rows []PaperSummary) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Weakest papers"); err != nil {
		return err
	}
	for i, row := range rows {
		if _, err := fmt.Fprintf(w, "%d. %s %s (P%d)\n", i+1, row.Code, FormatPercent(row.MeanPct), row.Percentile); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderGrid prints recorded values per slot and paper, followed by the mean row.
// Disabled cells are shown as "--".
func RenderGrid(w io.Writer, src ScoreSource, report Report, disabled CellFilter, useColor bool) error {
	if len(report.Papers) == 0 || len(report.Slots) == 0 {
		return nil
	}
	headers := []string{"Slot"}
	for _, p := range report.Papers {
		headers = append(headers, p.Code)
	}
	rows := make([][]string, 0, len(report.Slots)+1)
	bands := make([][]Band, 0, len(report.Slots)+1)
	for _, ys := range report.Slots {
		row := []string{ys.String()}
		rowBands := []Band{BandNone}
		for _, p := range report.Papers {
			key := model.CellKey{Mode: report.Mode, Year: ys.Year, Session: ys.Session, Subject: report.Subject, Paper: p.Code}
			if disabled != nil && disabled(key) {
				row = append(row, disabledCell)
				rowBands = append(rowBands, BandNone)
				continue
			}
			raw, _ := src.Score(key)
			row = append(row, raw)
			rowBands = append(rowBands, ColorBand(PercentageOf(raw, p.MaxMark)))
		}
		rows = append(rows, row)
		bands = append(bands, rowBands)
	}
	meanRow := []string{"Mean"}
	meanBands := []Band{BandNone}
	for _, p := range report.Papers {
		meanRow = append(meanRow, FormatMean(p.Mean, p.HasMean))
		meanBands = append(meanBands, p.Band)
	}
	rows = append(rows, meanRow)
	bands = append(bands, meanBands)

	rightAlign := map[int]bool{}
	for i := 1; i <= len(report.Papers); i++ {
		rightAlign[i] = true
	}
	padded := padTable(headers, rows, rightAlign)
	for i, cells := range padded {
		line := ""
		for j, cell := range cells {
			if j > 0 {
				line += " "
			}
			if i > 0 {
				cell = colorize(cell, bands[i-1][j], useColor)
			}
			line += cell
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
