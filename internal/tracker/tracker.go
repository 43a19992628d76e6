// Package tracker owns the mutable score state for every mode.
package tracker

import (
	"fmt"
	"sync"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/catalog"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/examrange"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

// ModeState is the tracking state of one mode.
type ModeState struct {
	SelectedPapers map[string][]string
	Scores         map[string]string
	Range          []model.YearSession
}

// Clone returns a deep copy.
func (s ModeState) Clone() ModeState {
	out := ModeState{
		SelectedPapers: make(map[string][]string, len(s.SelectedPapers)),
		Scores:         make(map[string]string, len(s.Scores)),
		Range:          append([]model.YearSession(nil), s.Range...),
	}
	for subject, codes := range s.SelectedPapers {
		out.SelectedPapers[subject] = append([]string{}, codes...)
	}
	for k, v := range s.Scores {
		out.Scores[k] = v
	}
	return out
}

// State is the full tracker state across modes.
type State struct {
	CurrentMode model.Mode
	Modes       map[model.Mode]ModeState
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{CurrentMode: s.CurrentMode, Modes: make(map[model.Mode]ModeState, len(s.Modes))}
	for mode, ms := range s.Modes {
		out.Modes[mode] = ms.Clone()
	}
	return out
}

// DefaultRange generates the range between the catalog's default start and ceiling.
func DefaultRange(cat *catalog.Catalog, mode model.Mode) []model.YearSession {
	ceiling := cat.Ceiling(mode)
	return examrange.Generate(cat.DefaultStart(mode), ceiling, cat.SessionRank(mode), ceiling)
}

// DefaultModeState returns a fresh state for one mode.
func DefaultModeState(cat *catalog.Catalog, mode model.Mode) ModeState {
	return ModeState{
		SelectedPapers: map[string][]string{},
		Scores:         map[string]string{},
		Range:          DefaultRange(cat, mode),
	}
}

// DefaultState returns a fresh state for every mode.
func DefaultState(cat *catalog.Catalog) State {
	st := State{CurrentMode: model.ModeIAL, Modes: map[model.Mode]ModeState{}}
	for _, mode := range model.Modes() {
		st.Modes[mode] = DefaultModeState(cat, mode)
	}
	return st
}

// Tracker is the single owner of the mutable state. Every mutation calls
// the change hook once the lock is released.
type Tracker struct {
	mu       sync.Mutex
	cat      *catalog.Catalog
	state    State
	onChange func()
}

// New wraps state. Missing modes are filled with defaults.
func New(cat *catalog.Catalog, state State) *Tracker {
	st := state.Clone()
	for _, mode := range model.Modes() {
		ms, ok := st.Modes[mode]
		if !ok {
			st.Modes[mode] = DefaultModeState(cat, mode)
			continue
		}
		if ms.SelectedPapers == nil {
			ms.SelectedPapers = map[string][]string{}
		}
		if ms.Scores == nil {
			ms.Scores = map[string]string{}
		}
		st.Modes[mode] = ms
	}
	if _, err := model.ParseMode(string(st.CurrentMode)); err != nil {
		st.CurrentMode = model.ModeIAL
	}
	return &Tracker{cat: cat, state: st}
}

// OnChange registers the hook called after every mutation.
func (t *Tracker) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Catalog returns the catalog the tracker was built with.
func (t *Tracker) Catalog() *catalog.Catalog {
	return t.cat
}

// Snapshot returns a deep copy of the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// CurrentMode returns the active mode.
func (t *Tracker) CurrentMode() model.Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.CurrentMode
}

// SetCurrentMode switches the active mode.
func (t *Tracker) SetCurrentMode(mode model.Mode) error {
	if _, err := model.ParseMode(string(mode)); err != nil {
		return err
	}
	t.mutate(func(st *State) {
		st.CurrentMode = mode
	})
	return nil
}

// SetScore stores raw text for a cell without validating it.
func (t *Tracker) SetScore(key model.CellKey, raw string) {
	t.mutate(func(st *State) {
		if ms, ok := st.Modes[key.Mode]; ok {
			ms.Scores[key.String()] = raw
		}
	})
}

// ClearScore removes a recorded value.
func (t *Tracker) ClearScore(key model.CellKey) {
	t.mutate(func(st *State) {
		if ms, ok := st.Modes[key.Mode]; ok {
			delete(ms.Scores, key.String())
		}
	})
}

// Score returns the recorded value for a cell.
func (t *Tracker) Score(key model.CellKey) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ms, ok := t.state.Modes[key.Mode]
	if !ok {
		return "", false
	}
	v, ok := ms.Scores[key.String()]
	return v, ok
}

// SelectedPapers returns the tracked paper codes of a subject.
func (t *Tracker) SelectedPapers(mode model.Mode, subject string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.state.Modes[mode].SelectedPapers[subject]...)
}

// SetSelectedPapers replaces the tracked list of a subject. Scores of
// removed papers are kept.
func (t *Tracker) SetSelectedPapers(mode model.Mode, subject string, codes []string) {
	t.mutate(func(st *State) {
		if ms, ok := st.Modes[mode]; ok {
			ms.SelectedPapers[subject] = append([]string{}, codes...)
		}
	})
}

// ToggleAllPapers tracks every catalog paper of a subject, or none.
func (t *Tracker) ToggleAllPapers(mode model.Mode, subject string, selectAll bool) {
	codes := []string{}
	if selectAll {
		codes = t.cat.Papers(mode, subject)
	}
	t.SetSelectedPapers(mode, subject, codes)
}

// Range returns the slots tracked for a mode, latest first.
func (t *Tracker) Range(mode model.Mode) []model.YearSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.YearSession(nil), t.state.Modes[mode].Range...)
}

// SetRange replaces the range wholesale. Slots are normalized so the
// ordering and ceiling invariants hold.
func (t *Tracker) SetRange(mode model.Mode, slots []model.YearSession) {
	normalized := examrange.Normalize(slots, t.cat.SessionRank(mode), t.cat.Ceiling(mode))
	t.mutate(func(st *State) {
		ms, ok := st.Modes[mode]
		if !ok {
			return
		}
		ms.Range = normalized
		st.Modes[mode] = ms
	})
}

// RequestRange regenerates the range for user-supplied bounds. On error the
// previous range is kept.
func (t *Tracker) RequestRange(mode model.Mode, start, end model.YearSession) error {
	if _, err := model.ParseMode(string(mode)); err != nil {
		return err
	}
	slots, err := examrange.Request(start, end, t.cat.SessionRank(mode), t.cat.Ceiling(mode))
	if err != nil {
		return fmt.Errorf("failed to set %s range: %w", mode, err)
	}
	t.mutate(func(st *State) {
		ms := st.Modes[mode]
		ms.Range = slots
		st.Modes[mode] = ms
	})
	return nil
}

// Reset restores the default state.
func (t *Tracker) Reset() {
	def := DefaultState(t.cat)
	t.mutate(func(st *State) {
		*st = def
	})
}

func (t *Tracker) mutate(fn func(st *State)) {
	t.mu.Lock()
	fn(&t.state)
	hook := t.onChange
	t.mu.Unlock()
	if hook != nil {
		hook()
	}
}
