// Package persist serializes tracker state to the local key-value store.
package persist

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/catalog"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/examrange"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/tracker"
)

// Logf reports recoverable problems.
type Logf func(format string, args ...any)

type persistedState struct {
	CurrentMode model.Mode                   `json:"currentMode"`
	Modes       map[model.Mode]persistedMode `json:"modes"`
}

type persistedMode struct {
	SelectedPapers map[string][]string `json:"selectedPapers"`
	Scores         map[string]string   `json:"scores"`
	Years          []model.YearSession `json:"years"`
}

var validate = validator.New()

// Encode renders the persisted JSON shape of st.
func Encode(st tracker.State) ([]byte, error) {
	out := persistedState{
		CurrentMode: st.CurrentMode,
		Modes:       make(map[model.Mode]persistedMode, len(st.Modes)),
	}
	for mode, ms := range st.Modes {
		pm := persistedMode{
			SelectedPapers: ms.SelectedPapers,
			Scores:         ms.Scores,
			Years:          ms.Range,
		}
		if pm.SelectedPapers == nil {
			pm.SelectedPapers = map[string][]string{}
		}
		if pm.Scores == nil {
			pm.Scores = map[string]string{}
		}
		if pm.Years == nil {
			pm.Years = []model.YearSession{}
		}
		out.Modes[mode] = pm
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// Decode parses a persisted blob. It never fails: unreadable data yields
// defaults, and each mode section is recovered independently so a corrupt
// section cannot reset another mode.
func Decode(data []byte, cat *catalog.Catalog, logf Logf) tracker.State {
	logf = orNop(logf)
	if !gjson.ValidBytes(data) {
		logf("stored state is not valid JSON; using defaults\n")
		return tracker.DefaultState(cat)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		logf("stored state is not an object; using defaults\n")
		return tracker.DefaultState(cat)
	}

	st := tracker.State{CurrentMode: model.ModeIAL, Modes: map[model.Mode]tracker.ModeState{}}
	if mode, err := model.ParseMode(root.Get("currentMode").String()); err == nil {
		st.CurrentMode = mode
	} else {
		logf("stored current mode is invalid: %v\n", err)
	}
	for _, mode := range model.Modes() {
		st.Modes[mode] = decodeMode(root.Get("modes."+string(mode)), cat, mode, logf)
	}
	return st
}

func decodeMode(section gjson.Result, cat *catalog.Catalog, mode model.Mode, logf Logf) tracker.ModeState {
	if !section.IsObject() {
		logf("stored %s state is missing or malformed; using defaults\n", mode)
		return tracker.DefaultModeState(cat, mode)
	}
	ms := tracker.ModeState{
		SelectedPapers: decodeSelected(section.Get("selectedPapers"), mode, logf),
		Scores:         decodeScores(section.Get("scores"), mode, logf),
	}
	years, err := decodeYears(section.Get("years"), cat, mode)
	if err != nil {
		logf("stored %s range is invalid (%v); regenerating default range\n", mode, err)
		years = tracker.DefaultRange(cat, mode)
	}
	ms.Range = years
	return ms
}

func decodeSelected(v gjson.Result, mode model.Mode, logf Logf) map[string][]string {
	out := map[string][]string{}
	if !v.Exists() {
		return out
	}
	if !v.IsObject() {
		logf("stored %s selected papers are malformed; clearing selection\n", mode)
		return out
	}
	v.ForEach(func(subject, codes gjson.Result) bool {
		if !codes.IsArray() {
			logf("stored %s selection for %q is malformed; skipping\n", mode, subject.String())
			return true
		}
		list := []string{}
		for _, code := range codes.Array() {
			if code.Type == gjson.String {
				list = append(list, code.Str)
			}
		}
		out[subject.String()] = list
		return true
	})
	return out
}

func decodeScores(v gjson.Result, mode model.Mode, logf Logf) map[string]string {
	out := map[string]string{}
	if !v.Exists() {
		return out
	}
	if !v.IsObject() {
		logf("stored %s scores are malformed; dropping them\n", mode)
		return out
	}
	v.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String:
			out[key.String()] = value.Str
		case gjson.Number:
			out[key.String()] = strconv.FormatFloat(value.Num, 'f', -1, 64)
		default:
			logf("stored %s score %q is malformed; skipping\n", mode, key.String())
		}
		return true
	})
	return out
}

func decodeYears(v gjson.Result, cat *catalog.Catalog, mode model.Mode) ([]model.YearSession, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("years is not an array")
	}
	items := v.Array()
	if len(items) == 0 {
		return []model.YearSession{}, nil
	}
	slots := make([]model.YearSession, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("entry %d is not an object", i)
		}
		year := item.Get("year")
		sess := item.Get("session")
		if year.Type != gjson.Number || float64(int(year.Num)) != year.Num || sess.Type != gjson.String {
			return nil, fmt.Errorf("entry %d is not a {year, session} pair", i)
		}
		ys := model.YearSession{Year: int(year.Num), Session: model.Session(sess.Str)}
		if err := validate.Struct(ys); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if !cat.HasSession(mode, ys.Session) {
			return nil, fmt.Errorf("entry %d: %w: %s", i, model.ErrUnknownSession, ys.Session)
		}
		slots = append(slots, ys)
	}
	slots = examrange.Normalize(slots, cat.SessionRank(mode), cat.Ceiling(mode))
	if len(slots) == 0 {
		return nil, fmt.Errorf("no slot is within the ceiling")
	}
	return slots, nil
}

func orNop(logf Logf) Logf {
	if logf == nil {
		return func(string, ...any) {}
	}
	return logf
}
