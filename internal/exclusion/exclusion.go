// Package exclusion decides which score cells were never examined.
package exclusion

import (
	"strings"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

// Predicate is a structural exclusion that a wildcard rule cannot express.
type Predicate func(cell model.CellKey) bool

// Matches reports whether every non-nil field of rule equals the cell's field.
func Matches(rule model.ExclusionRule, cell model.CellKey) bool {
	if rule.Mode != nil && *rule.Mode != cell.Mode {
		return false
	}
	if rule.Subject != nil && *rule.Subject != cell.Subject {
		return false
	}
	if rule.Session != nil && *rule.Session != cell.Session {
		return false
	}
	if rule.Year != nil && *rule.Year != cell.Year {
		return false
	}
	if rule.Paper != nil && *rule.Paper != cell.Paper {
		return false
	}
	return true
}

// IsDisabled reports whether any rule matches the cell.
func IsDisabled(cell model.CellKey, rules []model.ExclusionRule) bool {
	for _, rule := range rules {
		if Matches(rule, cell) {
			return true
		}
	}
	return false
}

// Set layers structural predicates on top of a declarative rule table.
type Set struct {
	rules      []model.ExclusionRule
	predicates []Predicate
}

// NewSet builds a Set from rules plus the built-in structural predicates.
func NewSet(rules []model.ExclusionRule) *Set {
	return &Set{
		rules:      append([]model.ExclusionRule(nil), rules...),
		predicates: []Predicate{furtherPureNotInOctober, sciencePaperTwoNotInJanuary},
	}
}

// IsDisabled reports whether the cell matches a rule or a structural predicate.
func (s *Set) IsDisabled(cell model.CellKey) bool {
	if IsDisabled(cell, s.rules) {
		return true
	}
	for _, p := range s.predicates {
		if p(cell) {
			return true
		}
	}
	return false
}

// IAL further pure papers are only sat in January and June.
func furtherPureNotInOctober(cell model.CellKey) bool {
	return cell.Mode == model.ModeIAL &&
		cell.Session == model.SessionOct &&
		strings.HasPrefix(cell.Paper, "FP")
}

// IGCSE science paper 2 is not offered in the January series.
func sciencePaperTwoNotInJanuary(cell model.CellKey) bool {
	if cell.Mode != model.ModeIGCSE || cell.Session != model.SessionJan {
		return false
	}
	switch cell.Paper {
	case "2B", "2C", "2P":
		return true
	}
	return false
}
