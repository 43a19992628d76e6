package stats

import (
	"sort"
)

// WeakestPapers selects the lowest mean-percentage papers. Papers without
// any recorded score are left out.
func WeakestPapers(rows []PaperSummary, top int) []PaperSummary {
	candidates := make([]PaperSummary, 0, len(rows))
	for _, row := range rows {
		if row.HasMean && row.MaxMark > 0 {
			candidates = append(candidates, row)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].MeanPct == candidates[j].MeanPct {
			return candidates[i].Code < candidates[j].Code
		}
		return candidates[i].MeanPct < candidates[j].MeanPct
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}
