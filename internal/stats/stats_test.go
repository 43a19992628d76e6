package stats

import (
	"math"
	"testing"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

type fakeScores map[string]string

func (f fakeScores) Score(key model.CellKey) (string, bool) {
	v, ok := f[key.String()]
	return v, ok
}

func (f fakeScores) set(mode model.Mode, ys model.YearSession, subject, paper, raw string) {
	f[model.CellKey{Mode: mode, Year: ys.Year, Session: ys.Session, Subject: subject, Paper: paper}.String()] = raw
}

func TestPercentageOf(t *testing.T) {
	if got := PercentageOf("60", 75); math.Abs(got-80) > 1e-9 {
		t.Fatalf("expected 80, got %v", got)
	}
	for _, tc := range []struct {
		raw string
		max int
	}{
		{"", 75},
		{"N/A", 75},
		{"abc", 75},
		{"60", 0},
		{"NaN", 75},
	} {
		if got := PercentageOf(tc.raw, tc.max); !math.IsNaN(got) {
			t.Fatalf("PercentageOf(%q, %d): expected NaN, got %v", tc.raw, tc.max, got)
		}
	}
}

func TestColorBand(t *testing.T) {
	cases := []struct {
		pct  float64
		want Band
	}{
		{100, BandHigh},
		{90, BandHigh},
		// 80 to 90 is not a band of its own; it shares the top colour.
		{89.9, BandHigh},
		{85, BandHigh},
		{80, BandHigh},
		{79.9, BandMid},
		{60, BandMid},
		{59.9, BandLow},
		{30, BandLow},
		{29.9, BandFail},
		{0, BandFail},
		{math.NaN(), BandNone},
	}
	for _, tc := range cases {
		if got := ColorBand(tc.pct); got != tc.want {
			t.Fatalf("ColorBand(%v): got %q, want %q", tc.pct, got, tc.want)
		}
	}
}

func TestPercentileOf(t *testing.T) {
	cases := map[float64]int{
		0:   0,
		35:  25,
		70:  50,
		85:  75,
		100: 100,
		-10: 0,
		140: 100,
	}
	for in, want := range cases {
		if got := PercentileOf(in); got != want {
			t.Fatalf("PercentileOf(%v): got %d, want %d", in, got, want)
		}
	}
	if got := PercentileOf(math.NaN()); got != 0 {
		t.Fatalf("expected 0 for NaN, got %d", got)
	}
}

func TestPercentileOfIsNonDecreasing(t *testing.T) {
	prev := PercentileOf(0)
	for p := 0.0; p <= 100; p += 0.1 {
		got := PercentileOf(p)
		if got < prev {
			t.Fatalf("percentile decreased at %.1f: %d < %d", p, got, prev)
		}
		if got < 0 || got > 100 {
			t.Fatalf("percentile out of range at %.1f: %d", p, got)
		}
		prev = got
	}
}

func TestMeanScoreSkipsUnusableCells(t *testing.T) {
	slots := []model.YearSession{
		{Year: 2024, Session: model.SessionJun},
		{Year: 2024, Session: model.SessionJan},
		{Year: 2023, Session: model.SessionOct},
		{Year: 2023, Session: model.SessionJun},
	}
	scores := fakeScores{}
	scores.set(model.ModeIAL, slots[0], "Mathematics", "P1", "70")
	scores.set(model.ModeIAL, slots[1], "Mathematics", "P1", "N/A")
	scores.set(model.ModeIAL, slots[2], "Mathematics", "P1", "7o")

	mean, ok := MeanScore(scores, model.ModeIAL, "Mathematics", "P1", slots, nil)
	if !ok || mean != 70 {
		t.Fatalf("expected mean 70, got %v (ok=%v)", mean, ok)
	}

	if _, ok := MeanScore(scores, model.ModeIAL, "Mathematics", "P2", slots, nil); ok {
		t.Fatalf("expected no mean for a paper without numeric scores")
	}
}

func TestMeanScoreHonoursFilterAndRange(t *testing.T) {
	jun := model.YearSession{Year: 2024, Session: model.SessionJun}
	oct := model.YearSession{Year: 2023, Session: model.SessionOct}
	old := model.YearSession{Year: 2015, Session: model.SessionJun}
	scores := fakeScores{}
	scores.set(model.ModeIAL, jun, "Mathematics", "FP1", "60")
	scores.set(model.ModeIAL, oct, "Mathematics", "FP1", "10")
	scores.set(model.ModeIAL, old, "Mathematics", "FP1", "0")

	disabled := func(k model.CellKey) bool { return k.Session == model.SessionOct }
	mean, ok := MeanScore(scores, model.ModeIAL, "Mathematics", "FP1", []model.YearSession{jun, oct}, disabled)
	if !ok || mean != 60 {
		t.Fatalf("expected mean 60, got %v (ok=%v)", mean, ok)
	}
}

func TestFormatMean(t *testing.T) {
	if got := FormatMean(66.66, true); got != "66.7" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := FormatMean(0, false); got != "-" {
		t.Fatalf("unexpected format: %q", got)
	}
}
