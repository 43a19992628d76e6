// Package catalog holds the static subject, paper and session reference data.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

//go:embed catalog.yaml
var embedded []byte

type rawCatalog struct {
	Modes      []rawMode             `yaml:"modes"`
	Exclusions []model.ExclusionRule `yaml:"exclusions"`
}

type rawMode struct {
	Mode         model.Mode     `yaml:"mode"`
	Sessions     []string       `yaml:"sessions"`
	Ceiling      rawSlot        `yaml:"ceiling"`
	DefaultStart rawSlot        `yaml:"default_start"`
	Subjects     []rawSubject   `yaml:"subjects"`
	MaxMarks     map[string]int `yaml:"max_marks"`
}

type rawSlot struct {
	Year    int    `yaml:"year"`
	Session string `yaml:"session"`
}

type rawSubject struct {
	Name   string   `yaml:"name"`
	Papers []string `yaml:"papers"`
}

type modeData struct {
	sessions     []model.Session
	rank         map[model.Session]int
	ceiling      model.YearSession
	defaultStart model.YearSession
	subjects     []string
	papers       map[string][]string
	maxMarks     map[string]int
}

// Catalog is the read-only reference data for every mode.
type Catalog struct {
	modes map[model.Mode]*modeData
	rules []model.ExclusionRule
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the catalog built from the embedded data.
func Default() *Catalog {
	defaultOnce.Do(func() {
		cat, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
		}
		defaultCat = cat
	})
	return defaultCat
}

// Parse decodes catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	cat := &Catalog{
		modes: make(map[model.Mode]*modeData, len(raw.Modes)),
		rules: raw.Exclusions,
	}
	for _, rm := range raw.Modes {
		md, err := buildMode(rm)
		if err != nil {
			return nil, fmt.Errorf("mode %s: %w", rm.Mode, err)
		}
		cat.modes[rm.Mode] = md
	}
	for _, m := range model.Modes() {
		if _, ok := cat.modes[m]; !ok {
			return nil, fmt.Errorf("catalog is missing mode %s", m)
		}
	}
	return cat, nil
}

func buildMode(rm rawMode) (*modeData, error) {
	if len(rm.Sessions) == 0 {
		return nil, fmt.Errorf("no sessions")
	}
	md := &modeData{
		rank:     make(map[model.Session]int, len(rm.Sessions)),
		papers:   make(map[string][]string, len(rm.Subjects)),
		maxMarks: make(map[string]int, len(rm.MaxMarks)),
	}
	for i, name := range rm.Sessions {
		sess, err := model.ParseSession(name)
		if err != nil {
			return nil, err
		}
		md.sessions = append(md.sessions, sess)
		md.rank[sess] = i
	}
	var err error
	if md.ceiling, err = md.slot(rm.Ceiling); err != nil {
		return nil, fmt.Errorf("ceiling: %w", err)
	}
	if md.defaultStart, err = md.slot(rm.DefaultStart); err != nil {
		return nil, fmt.Errorf("default start: %w", err)
	}
	for _, subj := range rm.Subjects {
		md.subjects = append(md.subjects, subj.Name)
		md.papers[subj.Name] = append([]string(nil), subj.Papers...)
	}
	for code, mark := range rm.MaxMarks {
		md.maxMarks[code] = mark
	}
	return md, nil
}

func (md *modeData) slot(rs rawSlot) (model.YearSession, error) {
	sess, err := model.ParseSession(rs.Session)
	if err != nil {
		return model.YearSession{}, err
	}
	if _, ok := md.rank[sess]; !ok {
		return model.YearSession{}, fmt.Errorf("%w: %s is not offered", model.ErrUnknownSession, sess)
	}
	return model.YearSession{Year: rs.Year, Session: sess}, nil
}

// Sessions returns the sessions of a mode in ascending rank order.
func (c *Catalog) Sessions(mode model.Mode) []model.Session {
	md, ok := c.modes[mode]
	if !ok {
		return nil
	}
	return append([]model.Session(nil), md.sessions...)
}

// SessionRank returns a copy of the session rank mapping for a mode.
func (c *Catalog) SessionRank(mode model.Mode) map[model.Session]int {
	md, ok := c.modes[mode]
	if !ok {
		return map[model.Session]int{}
	}
	out := make(map[model.Session]int, len(md.rank))
	for k, v := range md.rank {
		out[k] = v
	}
	return out
}

// HasSession reports whether a session is offered in a mode.
func (c *Catalog) HasSession(mode model.Mode, sess model.Session) bool {
	md, ok := c.modes[mode]
	if !ok {
		return false
	}
	_, ok = md.rank[sess]
	return ok
}

// Ceiling returns the latest available slot for a mode.
func (c *Catalog) Ceiling(mode model.Mode) model.YearSession {
	if md, ok := c.modes[mode]; ok {
		return md.ceiling
	}
	return model.YearSession{}
}

// DefaultStart returns the earliest slot of the default range.
func (c *Catalog) DefaultStart(mode model.Mode) model.YearSession {
	if md, ok := c.modes[mode]; ok {
		return md.defaultStart
	}
	return model.YearSession{}
}

// Subjects lists the subjects of a mode in catalog order.
func (c *Catalog) Subjects(mode model.Mode) []string {
	md, ok := c.modes[mode]
	if !ok {
		return nil
	}
	return append([]string(nil), md.subjects...)
}

// HasSubject reports whether a subject exists in a mode.
func (c *Catalog) HasSubject(mode model.Mode, subject string) bool {
	md, ok := c.modes[mode]
	if !ok {
		return false
	}
	_, ok = md.papers[subject]
	return ok
}

// Papers lists the paper codes of a subject. Unknown subjects yield nil.
func (c *Catalog) Papers(mode model.Mode, subject string) []string {
	md, ok := c.modes[mode]
	if !ok {
		return nil
	}
	return append([]string(nil), md.papers[subject]...)
}

// MaxMark looks up the maximum mark for a paper code within a mode.
func (c *Catalog) MaxMark(mode model.Mode, code string) (int, bool) {
	md, ok := c.modes[mode]
	if !ok {
		return 0, false
	}
	mark, ok := md.maxMarks[code]
	return mark, ok
}

// Paper looks up one paper of a subject.
func (c *Catalog) Paper(mode model.Mode, subject, code string) (model.PaperSpec, bool) {
	found := false
	for _, p := range c.Papers(mode, subject) {
		if p == code {
			found = true
			break
		}
	}
	if !found {
		return model.PaperSpec{}, false
	}
	mark, _ := c.MaxMark(mode, code)
	return model.PaperSpec{Subject: subject, Code: code, MaxMark: mark}, true
}

// Rules returns the declarative exclusion table.
func (c *Catalog) Rules() []model.ExclusionRule {
	return append([]model.ExclusionRule(nil), c.rules...)
}

// WithOverrides returns a copy of the catalog with replaced ceilings, default
// starts and extra exclusion rules. Nil maps leave the originals untouched.
func (c *Catalog) WithOverrides(ceilings, starts map[model.Mode]model.YearSession, extra []model.ExclusionRule) (*Catalog, error) {
	out := &Catalog{
		modes: make(map[model.Mode]*modeData, len(c.modes)),
		rules: append(c.Rules(), extra...),
	}
	for mode, md := range c.modes {
		cp := *md
		out.modes[mode] = &cp
	}
	for mode, ys := range ceilings {
		md, ok := out.modes[mode]
		if !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrUnknownMode, mode)
		}
		if _, ok := md.rank[ys.Session]; !ok {
			return nil, fmt.Errorf("ceiling for %s: %w: %s", mode, model.ErrUnknownSession, ys.Session)
		}
		md.ceiling = ys
	}
	for mode, ys := range starts {
		md, ok := out.modes[mode]
		if !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrUnknownMode, mode)
		}
		if _, ok := md.rank[ys.Session]; !ok {
			return nil, fmt.Errorf("default start for %s: %w: %s", mode, model.ErrUnknownSession, ys.Session)
		}
		md.defaultStart = ys
	}
	return out, nil
}
