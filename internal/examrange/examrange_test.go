package examrange

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

var ialRank = map[model.Session]int{
	model.SessionJan: 0,
	model.SessionJun: 1,
	model.SessionOct: 2,
}

func ys(year int, sess model.Session) model.YearSession {
	return model.YearSession{Year: year, Session: sess}
}

func TestGenerateDefaultIALRange(t *testing.T) {
	got := Generate(ys(2019, model.SessionJan), ys(2025, model.SessionJun), ialRank, ys(2025, model.SessionJun))

	if len(got) != 20 {
		t.Fatalf("expected 20 sessions, got %d: %v", len(got), got)
	}
	if got[0] != ys(2025, model.SessionJun) || got[len(got)-1] != ys(2019, model.SessionJan) {
		t.Fatalf("unexpected bounds: first %v last %v", got[0], got[len(got)-1])
	}
	for year := 2019; year <= 2024; year++ {
		if !Contains(got, ys(year, model.SessionOct)) {
			t.Fatalf("missing Oct %d", year)
		}
	}
	if Contains(got, ys(2025, model.SessionOct)) {
		t.Fatalf("2025 Oct is past the ceiling")
	}
}

func TestGenerateClampsToCeiling(t *testing.T) {
	ceiling := ys(2024, model.SessionJun)
	got := Generate(ys(2023, model.SessionJun), ys(2030, model.SessionOct), ialRank, ceiling)

	want := []model.YearSession{
		ys(2024, model.SessionJun),
		ys(2024, model.SessionJan),
		ys(2023, model.SessionOct),
		ys(2023, model.SessionJun),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGenerateSingleYear(t *testing.T) {
	got := Generate(ys(2022, model.SessionJun), ys(2022, model.SessionOct), ialRank, ys(2025, model.SessionJun))
	if want := []model.YearSession{ys(2022, model.SessionOct), ys(2022, model.SessionJun)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got = Generate(ys(2022, model.SessionJun), ys(2022, model.SessionJun), ialRank, ys(2025, model.SessionJun))
	if want := []model.YearSession{ys(2022, model.SessionJun)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGenerateEmptyWhenStartAfterEnd(t *testing.T) {
	if got := Generate(ys(2026, model.SessionJan), ys(2030, model.SessionJan), ialRank, ys(2025, model.SessionJun)); len(got) != 0 {
		t.Fatalf("expected no sessions past the ceiling, got %v", got)
	}
	if got := Generate(ys(2022, model.SessionOct), ys(2022, model.SessionJan), ialRank, ys(2025, model.SessionJun)); len(got) != 0 {
		t.Fatalf("expected no sessions for an inverted range, got %v", got)
	}
}

func TestGenerateOrderingProperty(t *testing.T) {
	ceiling := ys(2025, model.SessionJun)
	sessions := []model.Session{model.SessionJan, model.SessionJun, model.SessionOct}
	for startYear := 2018; startYear <= 2026; startYear++ {
		for endYear := startYear; endYear <= 2027; endYear++ {
			for _, ss := range sessions {
				for _, es := range sessions {
					start := ys(startYear, ss)
					end := ys(endYear, es)
					clamped := Clamp(end, ialRank, ceiling)
					if start.Weight(ialRank) > clamped.Weight(ialRank) {
						continue
					}
					got := Generate(start, end, ialRank, ceiling)
					if len(got) == 0 {
						t.Fatalf("%v..%v produced no sessions", start, end)
					}
					for i, slot := range got {
						w := slot.Weight(ialRank)
						if w < start.Weight(ialRank) || w > clamped.Weight(ialRank) || w > ceiling.Weight(ialRank) {
							t.Fatalf("%v outside %v..%v", slot, start, clamped)
						}
						if i > 0 && got[i-1].Weight(ialRank) <= w {
							t.Fatalf("%v not strictly descending", got)
						}
					}
				}
			}
		}
	}
}

func TestRequestRejectsStartAfterEnd(t *testing.T) {
	_, err := Request(ys(2025, model.SessionOct), ys(2026, model.SessionJan), ialRank, ys(2025, model.SessionJun))
	if !errors.Is(err, ErrStartAfterEnd) {
		t.Fatalf("expected ErrStartAfterEnd, got %v", err)
	}

	_, err = Request(ys(2020, model.SessionNov), ys(2024, model.SessionJan), ialRank, ys(2025, model.SessionJun))
	if !errors.Is(err, model.ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}

	got, err := Request(ys(2024, model.SessionOct), ys(2025, model.SessionOct), ialRank, ys(2025, model.SessionJun))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	want := []model.YearSession{ys(2025, model.SessionJun), ys(2025, model.SessionJan), ys(2024, model.SessionOct)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNormalize(t *testing.T) {
	in := []model.YearSession{
		ys(2020, model.SessionJan),
		ys(2026, model.SessionJan),
		ys(2021, model.SessionOct),
		ys(2020, model.SessionJan),
		ys(2021, model.SessionNov),
	}
	got := Normalize(in, ialRank, ys(2025, model.SessionJun))
	if want := []model.YearSession{ys(2021, model.SessionOct), ys(2020, model.SessionJan)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if len(in) != 5 {
		t.Fatalf("input slice was modified: %v", in)
	}
}
