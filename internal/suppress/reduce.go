// Package suppress removes duplicate and suppressed candidates before they
// become findings, keeping an audit of everything it removed.
package suppress

import (
	"github.com/digimosa/gdpr-scan/internal/models"
)

// Input is the validated output of one artifact.
type Input struct {
	Path       string
	Candidates []models.ValidatedCandidate
	// Lines is the decoded artifact text, used for inline markers.
	Lines []string
}

type Reduction struct {
	Kept   []models.ValidatedCandidate
	Audit  models.SuppressionAudit
	Merged int
}

type candidateKey struct {
	ruleID     string
	line       int
	start, end int
}

func keyOf(c models.ValidatedCandidate) candidateKey {
	return candidateKey{ruleID: c.RuleID, line: c.Line, start: c.Columns.Start, end: c.Columns.End}
}

// Reduce applies ignore rules, merges overlapping candidates and then drops
// those already recorded in the baseline. Ignored candidates are merged the
// same way before they are audited, so one suppressed value is recorded
// once however many rules matched it. Baselines are built from merged
// findings, so the baseline check runs on the merge winners. Reduce has no
// side effects and Reduce of its own output is a no-op.
func Reduce(in Input, baseline *Baseline, ignore *IgnoreRules) Reduction {
	var (
		out       Reduction
		surviving []models.ValidatedCandidate
		ignored   []models.ValidatedCandidate
	)
	reasons := make(map[candidateKey]string)
	for _, c := range in.Candidates {
		if reason, ok := ignore.Match(c.RawCandidate, in.Lines); ok {
			reasons[keyOf(c)] = reason
			ignored = append(ignored, c)
			continue
		}
		surviving = append(surviving, c)
	}

	ignoredWinners, _ := Dedup(ignored)
	for _, c := range ignoredWinners {
		out.Audit.Add(c.RuleID, c.Line, reasons[keyOf(c)])
	}

	merged, n := Dedup(surviving)
	out.Merged = n
	for _, c := range merged {
		if baseline.Contains(c.FilePath, c.RuleID, c.Line, models.Fingerprint(c.MatchedText)) {
			out.Audit.Add(c.RuleID, c.Line, ReasonBaseline)
			continue
		}
		out.Kept = append(out.Kept, c)
	}
	return out
}
