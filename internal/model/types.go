// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// NotApplicable marks a cell the student explicitly did not sit.
const NotApplicable = "N/A"

var (
	// ErrUnknownMode is returned when a qualification mode name is not recognised.
	ErrUnknownMode = errors.New("unknown mode")
	// ErrUnknownSession is returned when a session name is not recognised.
	ErrUnknownSession = errors.New("unknown session")
)

// Mode is a qualification track with its own catalog, sessions and ceiling.
type Mode string

// Supported modes.
const (
	ModeIAL   Mode = "IAL"
	ModeIGCSE Mode = "IGCSE"
)

// Modes returns every supported mode in display order.
func Modes() []Mode {
	return []Mode{ModeIAL, ModeIGCSE}
}

// ParseMode resolves a case-insensitive mode name.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	for _, m := range Modes() {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Session is an exam sitting period within a year.
type Session string

// Known sessions. Their order is defined per mode by the catalog.
const (
	SessionJan Session = "Jan"
	SessionJun Session = "Jun"
	SessionOct Session = "Oct"
	SessionNov Session = "Nov"
)

// ParseSession resolves a case-insensitive three-letter session name.
func ParseSession(s string) (Session, error) {
	s = strings.TrimSpace(s)
	for _, sess := range []Session{SessionJan, SessionJun, SessionOct, SessionNov} {
		if strings.EqualFold(string(sess), s) {
			return sess, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSession, s)
}

// YearSession is one examinable slot.
type YearSession struct {
	Year    int     `json:"year" validate:"gte=1900,lte=2999"`
	Session Session `json:"session" validate:"required"`
}

// Weight orders slots within a mode: year*100 + session rank.
func (ys YearSession) Weight(rank map[Session]int) int {
	return ys.Year*100 + rank[ys.Session]
}

// String renders the slot as "2024-Jun".
func (ys YearSession) String() string {
	return fmt.Sprintf("%d-%s", ys.Year, ys.Session)
}

// ParseYearSession parses "2024-Jun", "2024 Jun" or "2024/jun".
func ParseYearSession(s string) (YearSession, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == '-' || r == '/' || unicode.IsSpace(r)
	})
	if len(fields) != 2 {
		return YearSession{}, fmt.Errorf("invalid slot %q (want YEAR-SESSION)", s)
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return YearSession{}, fmt.Errorf("invalid slot year %q: %w", fields[0], err)
	}
	sess, err := ParseSession(fields[1])
	if err != nil {
		return YearSession{}, err
	}
	return YearSession{Year: year, Session: sess}, nil
}

// PaperSpec describes one paper of a subject within a mode.
type PaperSpec struct {
	Subject string
	Code    string
	MaxMark int
}

// ExclusionRule matches cells that were never examined. Nil fields are wildcards.
type ExclusionRule struct {
	Mode    *Mode    `toml:"mode" yaml:"mode"`
	Subject *string  `toml:"subject" yaml:"subject"`
	Session *Session `toml:"session" yaml:"session"`
	Year    *int     `toml:"year" yaml:"year"`
	Paper   *string  `toml:"paper" yaml:"paper"`
}

// CellKey identifies one recorded-score slot.
type CellKey struct {
	Mode    Mode
	Year    int
	Session Session
	Subject string
	Paper   string
}

// String returns the persisted key. Whitespace is stripped so that
// "Further Pure Mathematics" and "FurtherPureMathematics" collide.
func (k CellKey) String() string {
	joined := strings.Join([]string{
		string(k.Mode),
		strconv.Itoa(k.Year),
		string(k.Session),
		k.Subject,
		k.Paper,
	}, "-")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, joined)
}

// Slot returns the cell's year and session.
func (k CellKey) Slot() YearSession {
	return YearSession{Year: k.Year, Session: k.Session}
}

// Config defines tracker settings resolved from flags and the config file.
type Config struct {
	Mode     Mode
	Subject  string
	Debounce time.Duration
}
