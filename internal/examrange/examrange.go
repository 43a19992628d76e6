// Package examrange enumerates the examinable year/session slots between two bounds.
package examrange

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

// ErrStartAfterEnd is returned when the requested start is later than the clamped end.
var ErrStartAfterEnd = errors.New("start is after end")

// Clamp lowers end so it never passes the ceiling. The year is clamped
// first, then the session within the ceiling year.
func Clamp(end model.YearSession, rank map[model.Session]int, ceiling model.YearSession) model.YearSession {
	if end.Year > ceiling.Year {
		end.Year = ceiling.Year
	}
	if end.Year == ceiling.Year && rank[end.Session] > rank[ceiling.Session] {
		end.Session = ceiling.Session
	}
	return end
}

// Generate lists every slot from start to the clamped end, latest first.
// Boundary years are filtered while each year is built in ascending
// session order; the final descending sort is applied afterwards.
func Generate(start, end model.YearSession, rank map[model.Session]int, ceiling model.YearSession) []model.YearSession {
	end = Clamp(end, rank, ceiling)
	sessions := ascending(rank)
	endRank := rank[end.Session]
	startRank := rank[start.Session]

	var out []model.YearSession
	for year := end.Year; year >= start.Year; year-- {
		perYear := make([]model.YearSession, 0, len(sessions))
		for _, sess := range sessions {
			r := rank[sess]
			if year == end.Year && r > endRank {
				continue
			}
			if year == start.Year && r < startRank {
				continue
			}
			perYear = append(perYear, model.YearSession{Year: year, Session: sess})
		}
		out = append(out, perYear...)
	}
	SortDescending(out, rank)
	return out
}

// Request validates a user-supplied boundary before generating the range.
func Request(start, end model.YearSession, rank map[model.Session]int, ceiling model.YearSession) ([]model.YearSession, error) {
	for _, s := range []model.Session{start.Session, end.Session} {
		if _, ok := rank[s]; !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrUnknownSession, s)
		}
	}
	clamped := Clamp(end, rank, ceiling)
	if start.Weight(rank) > clamped.Weight(rank) {
		return nil, fmt.Errorf("%w: %s > %s", ErrStartAfterEnd, start, clamped)
	}
	return Generate(start, end, rank, ceiling), nil
}

// SortDescending orders slots by year, then session rank, latest first.
func SortDescending(slots []model.YearSession, rank map[model.Session]int) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Weight(rank) > slots[j].Weight(rank)
	})
}

// Normalize drops slots with unknown sessions or beyond the ceiling, removes
// duplicates and sorts the rest descending. The input is not modified.
func Normalize(slots []model.YearSession, rank map[model.Session]int, ceiling model.YearSession) []model.YearSession {
	limit := ceiling.Weight(rank)
	seen := make(map[model.YearSession]struct{}, len(slots))
	out := make([]model.YearSession, 0, len(slots))
	for _, ys := range slots {
		if _, ok := rank[ys.Session]; !ok {
			continue
		}
		if ys.Weight(rank) > limit {
			continue
		}
		if _, dup := seen[ys]; dup {
			continue
		}
		seen[ys] = struct{}{}
		out = append(out, ys)
	}
	SortDescending(out, rank)
	return out
}

// Contains reports whether slot is part of slots.
func Contains(slots []model.YearSession, slot model.YearSession) bool {
	for _, ys := range slots {
		if ys == slot {
			return true
		}
	}
	return false
}

func ascending(rank map[model.Session]int) []model.Session {
	sessions := make([]model.Session, 0, len(rank))
	for s := range rank {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if rank[sessions[i]] == rank[sessions[j]] {
			return sessions[i] < sessions[j]
		}
		return rank[sessions[i]] < rank[sessions[j]]
	})
	return sessions
}
