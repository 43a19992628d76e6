package tracker

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/catalog"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/examrange"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

func newTracker(t *testing.T) (*Tracker, *int) {
	t.Helper()
	tr := New(catalog.Default(), DefaultState(catalog.Default()))
	changes := 0
	tr.OnChange(func() { changes++ })
	return tr, &changes
}

func TestDefaultState(t *testing.T) {
	st := DefaultState(catalog.Default())
	if st.CurrentMode != model.ModeIAL {
		t.Fatalf("current mode = %s, want IAL", st.CurrentMode)
	}
	if len(st.Modes) != 2 {
		t.Fatalf("expected 2 modes, got %d", len(st.Modes))
	}

	ial := st.Modes[model.ModeIAL].Range
	if len(ial) == 0 {
		t.Fatalf("expected a default IAL range")
	}
	if ial[0] != (model.YearSession{Year: 2025, Session: model.SessionJun}) || ial[len(ial)-1] != (model.YearSession{Year: 2019, Session: model.SessionJan}) {
		t.Fatalf("unexpected IAL bounds: %v .. %v", ial[0], ial[len(ial)-1])
	}

	igcse := st.Modes[model.ModeIGCSE].Range
	if !examrange.Contains(igcse, model.YearSession{Year: 2024, Session: model.SessionNov}) {
		t.Fatalf("IGCSE default range is missing 2024 Nov")
	}
}

func TestSetScoreStoresRawText(t *testing.T) {
	tr, changes := newTracker(t)
	key := model.CellKey{Mode: model.ModeIAL, Year: 2024, Session: model.SessionJun, Subject: "Mathematics", Paper: "P1"}

	if _, ok := tr.Score(key); ok {
		t.Fatalf("expected no score before SetScore")
	}

	tr.SetScore(key, "6")
	tr.SetScore(key, "6x")
	if v, ok := tr.Score(key); !ok || v != "6x" {
		t.Fatalf("score = %q, %v; want \"6x\", true", v, ok)
	}
	if *changes != 2 {
		t.Fatalf("changes = %d, want 2", *changes)
	}

	tr.ClearScore(key)
	if _, ok := tr.Score(key); ok {
		t.Fatalf("expected score to be cleared")
	}
	if *changes != 3 {
		t.Fatalf("changes = %d, want 3", *changes)
	}
}

func TestScoresAreModeScoped(t *testing.T) {
	tr, _ := newTracker(t)
	ial := model.CellKey{Mode: model.ModeIAL, Year: 2024, Session: model.SessionJun, Subject: "Physics", Paper: "P1"}
	igcse := ial
	igcse.Mode = model.ModeIGCSE

	tr.SetScore(ial, "50")
	if _, ok := tr.Score(igcse); ok {
		t.Fatalf("IAL score leaked into IGCSE")
	}
}

func TestSelectedPapersKeepScores(t *testing.T) {
	tr, _ := newTracker(t)
	key := model.CellKey{Mode: model.ModeIAL, Year: 2023, Session: model.SessionJan, Subject: "Physics", Paper: "WPH11"}
	tr.SetScore(key, "72")

	tr.SetSelectedPapers(model.ModeIAL, "Physics", []string{"WPH11", "WPH12"})
	if got := tr.SelectedPapers(model.ModeIAL, "Physics"); !reflect.DeepEqual(got, []string{"WPH11", "WPH12"}) {
		t.Fatalf("selected = %v", got)
	}

	tr.SetSelectedPapers(model.ModeIAL, "Physics", []string{"WPH12"})
	if got := tr.SelectedPapers(model.ModeIAL, "Physics"); !reflect.DeepEqual(got, []string{"WPH12"}) {
		t.Fatalf("selected = %v", got)
	}
	if v, ok := tr.Score(key); !ok || v != "72" {
		t.Fatalf("deselected paper lost its score: %q, %v", v, ok)
	}
}

func TestToggleAllPapers(t *testing.T) {
	tr, changes := newTracker(t)

	tr.ToggleAllPapers(model.ModeIGCSE, "Physics", true)
	if got := tr.SelectedPapers(model.ModeIGCSE, "Physics"); !reflect.DeepEqual(got, []string{"1P", "2P"}) {
		t.Fatalf("selected = %v", got)
	}

	tr.ToggleAllPapers(model.ModeIGCSE, "Physics", false)
	if got := tr.SelectedPapers(model.ModeIGCSE, "Physics"); len(got) != 0 {
		t.Fatalf("expected no papers selected, got %v", got)
	}
	if *changes != 2 {
		t.Fatalf("changes = %d, want 2", *changes)
	}
}

func TestRequestRange(t *testing.T) {
	tr, changes := newTracker(t)
	before := tr.Range(model.ModeIAL)

	err := tr.RequestRange(model.ModeIAL, model.YearSession{Year: 2025, Session: model.SessionOct}, model.YearSession{Year: 2026, Session: model.SessionJan})
	if !errors.Is(err, examrange.ErrStartAfterEnd) {
		t.Fatalf("expected ErrStartAfterEnd, got %v", err)
	}
	if got := tr.Range(model.ModeIAL); !reflect.DeepEqual(got, before) {
		t.Fatalf("rejected request changed the range: %v", got)
	}
	if *changes != 0 {
		t.Fatalf("rejected request notified %d times", *changes)
	}

	err = tr.RequestRange(model.ModeIAL, model.YearSession{Year: 2024, Session: model.SessionJan}, model.YearSession{Year: 2030, Session: model.SessionOct})
	if err != nil {
		t.Fatalf("RequestRange error: %v", err)
	}
	want := []model.YearSession{
		{Year: 2025, Session: model.SessionJun},
		{Year: 2025, Session: model.SessionJan},
		{Year: 2024, Session: model.SessionOct},
		{Year: 2024, Session: model.SessionJun},
		{Year: 2024, Session: model.SessionJan},
	}
	if got := tr.Range(model.ModeIAL); !reflect.DeepEqual(got, want) {
		t.Fatalf("range = %v, want %v", got, want)
	}
	if *changes != 1 {
		t.Fatalf("changes = %d, want 1", *changes)
	}
}

func TestSetRangeNormalizes(t *testing.T) {
	tr, changes := newTracker(t)
	tr.SetRange(model.ModeIGCSE, []model.YearSession{
		{Year: 2020, Session: model.SessionNov},
		{Year: 2030, Session: model.SessionJan},
		{Year: 2021, Session: model.SessionJan},
		{Year: 2020, Session: model.SessionNov},
	})
	want := []model.YearSession{
		{Year: 2021, Session: model.SessionJan},
		{Year: 2020, Session: model.SessionNov},
	}
	if got := tr.Range(model.ModeIGCSE); !reflect.DeepEqual(got, want) {
		t.Fatalf("range = %v, want %v", got, want)
	}
	if *changes != 1 {
		t.Fatalf("changes = %d, want 1", *changes)
	}
}

func TestSetRangeAcceptsEmpty(t *testing.T) {
	tr, _ := newTracker(t)
	tr.SetRange(model.ModeIAL, nil)
	if got := tr.Range(model.ModeIAL); len(got) != 0 {
		t.Fatalf("expected an empty range, got %v", got)
	}
	if got := tr.Range(model.ModeIGCSE); len(got) == 0 {
		t.Fatalf("clearing IAL emptied IGCSE")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	tr, _ := newTracker(t)
	key := model.CellKey{Mode: model.ModeIAL, Year: 2024, Session: model.SessionJun, Subject: "Mathematics", Paper: "P1"}
	tr.SetScore(key, "60")

	snap := tr.Snapshot()
	snap.Modes[model.ModeIAL].Scores[key.String()] = "1"
	if v, _ := tr.Score(key); v != "60" {
		t.Fatalf("snapshot shares score map: %q", v)
	}
}

func TestNewFillsMissingModes(t *testing.T) {
	tr := New(catalog.Default(), State{CurrentMode: "bogus"})
	if tr.CurrentMode() != model.ModeIAL {
		t.Fatalf("current mode = %s, want IAL", tr.CurrentMode())
	}
	if len(tr.Range(model.ModeIGCSE)) == 0 {
		t.Fatalf("missing IGCSE mode was not filled with a default range")
	}

	if err := tr.SetCurrentMode(model.ModeIGCSE); err != nil {
		t.Fatalf("SetCurrentMode error: %v", err)
	}
	if tr.CurrentMode() != model.ModeIGCSE {
		t.Fatalf("current mode = %s, want IGCSE", tr.CurrentMode())
	}
	if err := tr.SetCurrentMode("GCSE"); !errors.Is(err, model.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestReset(t *testing.T) {
	tr, _ := newTracker(t)
	key := model.CellKey{Mode: model.ModeIAL, Year: 2024, Session: model.SessionJun, Subject: "Mathematics", Paper: "P1"}
	tr.SetScore(key, "60")
	tr.Reset()
	if _, ok := tr.Score(key); ok {
		t.Fatalf("expected scores to be cleared by Reset")
	}
}
