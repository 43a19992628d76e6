// Package stats contains score aggregation and reporting.
package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

// Band is the visual category of a percentage.
type Band string

// Bands from best to worst. BandNone is used when there is no percentage.
const (
	BandHigh Band = "high"
	BandMid  Band = "mid"
	BandLow  Band = "low"
	BandFail Band = "fail"
	BandNone Band = "none"
)

// ScoreSource looks up recorded cell values.
type ScoreSource interface {
	Score(key model.CellKey) (string, bool)
}

// CellFilter reports cells that must be left out of aggregation.
type CellFilter func(key model.CellKey) bool

// ParseScore parses a recorded value. "N/A", blanks and non-numeric text are rejected.
func ParseScore(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == model.NotApplicable {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// PercentageOf converts a raw score into a percentage of maxMark.
// It returns NaN when the score is unusable or maxMark is zero.
func PercentageOf(raw string, maxMark int) float64 {
	if maxMark == 0 {
		return math.NaN()
	}
	v, ok := ParseScore(raw)
	if !ok {
		return math.NaN()
	}
	return v / float64(maxMark) * 100
}

// ColorBand maps a percentage to its band. 80 and 90 share the top band.
func ColorBand(pct float64) Band {
	switch {
	case math.IsNaN(pct):
		return BandNone
	case pct >= 90:
		return BandHigh
	case pct >= 80:
		return BandHigh
	case pct >= 60:
		return BandMid
	case pct >= 30:
		return BandLow
	default:
		return BandFail
	}
}

// PercentileOf maps a percentage onto a 0-100 percentile estimate. A 70%
// score sits at the 50th percentile; the mapping is linear on each side.
// NaN maps to 0.
func PercentileOf(pct float64) int {
	if math.IsNaN(pct) {
		return 0
	}
	pct = math.Max(0, math.Min(100, pct))
	if pct <= 70 {
		return int(math.Round(pct / 70 * 50))
	}
	return int(math.Round(50 + (pct-70)/30*50))
}

// MeanScore averages the numeric scores recorded for one paper across slots.
// Missing, non-numeric and "N/A" values are skipped, as are cells rejected by
// disabled. ok is false when nothing was counted.
func MeanScore(src ScoreSource, mode model.Mode, subject, paper string, slots []model.YearSession, disabled CellFilter) (mean float64, ok bool) {
	var sum float64
	count := 0
	for _, ys := range slots {
		key := model.CellKey{Mode: mode, Year: ys.Year, Session: ys.Session, Subject: subject, Paper: paper}
		if disabled != nil && disabled(key) {
			continue
		}
		raw, found := src.Score(key)
		if !found {
			continue
		}
		v, valid := ParseScore(raw)
		if !valid {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// FormatMean renders a mean with one decimal place, or "-" when absent.
func FormatMean(mean float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f", mean)
}

// FormatPercent renders a percentage with one decimal place, or "-" for NaN.
func FormatPercent(pct float64) string {
	if math.IsNaN(pct) {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", pct)
}
