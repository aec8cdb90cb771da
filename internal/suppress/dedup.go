package suppress

import (
	"sort"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// Dedup collapses candidates whose byte ranges overlap on the same line.
// The winner is the highest confidence, then the most specific rule, then
// the lowest rule id. It returns the survivors in position order and the
// number of merged duplicates.
func Dedup(cands []models.ValidatedCandidate) ([]models.ValidatedCandidate, int) {
	ranked := append([]models.ValidatedCandidate(nil), cands...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Specificity != b.Specificity {
			return a.Specificity > b.Specificity
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Columns.Start < b.Columns.Start
	})

	var (
		kept   []models.ValidatedCandidate
		merged int
		start  int // first kept index for the current (file, line)
	)
	for i, c := range ranked {
		if i > 0 && (c.FilePath != ranked[i-1].FilePath || c.Line != ranked[i-1].Line) {
			start = len(kept)
		}
		overlap := false
		for _, k := range kept[start:] {
			if k.Columns.Overlaps(c.Columns) {
				overlap = true
				break
			}
		}
		if overlap {
			merged++
			continue
		}
		kept = append(kept, c)
	}

	SortCandidates(kept)
	return kept, merged
}

// SortCandidates orders by file, line, column and rule id.
func SortCandidates(cands []models.ValidatedCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Columns.Start != b.Columns.Start {
			return a.Columns.Start < b.Columns.Start
		}
		return a.RuleID < b.RuleID
	})
}
