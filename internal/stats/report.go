// Package stats contains score aggregation and reporting.
package stats

import (
	"math"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/catalog"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

// ReportSource provides the state a report is built from.
type ReportSource interface {
	ScoreSource
	Range(mode model.Mode) []model.YearSession
	SelectedPapers(mode model.Mode, subject string) []string
}

// PaperSummary aggregates one paper over the tracked range.
type PaperSummary struct {
	Code       string
	MaxMark    int
	Count      int
	Mean       float64
	HasMean    bool
	Best       float64
	MeanPct    float64
	Band       Band
	Percentile int
}

// Report contains precomputed data for summary rendering.
type Report struct {
	Mode    model.Mode
	Subject string
	Slots   []model.YearSession
	Papers  []PaperSummary
}

// BuildReport summarises every tracked paper of a subject.
func BuildReport(src ReportSource, cat *catalog.Catalog, mode model.Mode, subject string, disabled CellFilter) Report {
	slots := src.Range(mode)
	papers := src.SelectedPapers(mode, subject)
	report := Report{
		Mode:    mode,
		Subject: subject,
		Slots:   slots,
		Papers:  make([]PaperSummary, 0, len(papers)),
	}
	for _, code := range papers {
		maxMark, _ := cat.MaxMark(mode, code)
		row := PaperSummary{Code: code, MaxMark: maxMark, MeanPct: math.NaN()}
		row.Mean, row.HasMean = MeanScore(src, mode, subject, code, slots, disabled)
		row.Count, row.Best = countAndBest(src, mode, subject, code, slots, disabled)
		if row.HasMean && maxMark > 0 {
			row.MeanPct = row.Mean / float64(maxMark) * 100
		}
		row.Band = ColorBand(row.MeanPct)
		row.Percentile = PercentileOf(row.MeanPct)
		report.Papers = append(report.Papers, row)
	}
	return report
}

func countAndBest(src ScoreSource, mode model.Mode, subject, paper string, slots []model.YearSession, disabled CellFilter) (int, float64) {
	count := 0
	best := 0.0
	for _, ys := range slots {
		key := model.CellKey{Mode: mode, Year: ys.Year, Session: ys.Session, Subject: subject, Paper: paper}
		if disabled != nil && disabled(key) {
			continue
		}
		raw, ok := src.Score(key)
		if !ok {
			continue
		}
		v, ok := ParseScore(raw)
		if !ok {
			continue
		}
		if count == 0 || v > best {
			best = v
		}
		count++
	}
	return count, best
}
