// Package scoring folds per-artifact results into the scan envelope and
// computes compliance scores.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// ScoringConfig holds the penalty weights per risk level.
type ScoringConfig struct {
	High   float64 `mapstructure:"high" json:"high"`
	Medium float64 `mapstructure:"medium" json:"medium"`
	Low    float64 `mapstructure:"low" json:"low"`

	// RulePrinciples maps a rule id to explicit principle tags.
	RulePrinciples map[string][]string `mapstructure:"-" json:"-"`
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{High: 5, Medium: 2, Low: 0.5}
}

func (w ScoringConfig) Weight(r models.RiskLevel) float64 {
	switch r {
	case models.RiskHigh:
		return w.High
	case models.RiskMedium:
		return w.Medium
	case models.RiskLow:
		return w.Low
	}
	return 0
}

// AggregationError is raised when per-artifact results violate the
// envelope's invariants. It fails the whole scan.
type AggregationError struct {
	Path   string
	Reason string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation failed for %s: %s", e.Path, e.Reason)
}

// Aggregate builds the envelope from per-artifact results. It is pure: the
// same results and weights always give the same envelope. ScanID,
// Timestamp, Region and Scope are left for the caller.
func Aggregate(results []models.ArtifactResult, w ScoringConfig) (*models.ScanResult, error) {
	sorted, err := normalize(results)
	if err != nil {
		return nil, err
	}

	res := &models.ScanResult{
		FilesAttempted:  len(sorted),
		CountsByType:    make(map[string]int),
		CountsByRisk:    map[models.RiskLevel]int{models.RiskLow: 0, models.RiskMedium: 0, models.RiskHigh: 0},
		PrincipleScores: make(map[string]float64),
		Artifacts:       sorted,
		Errors:          []models.ErrorEntry{},
	}

	var penalty float64
	principlePenalty := make(map[string]float64)
	seenErr := make(map[models.ErrorEntry]bool)

	for _, a := range sorted {
		res.SuppressedCount += a.Suppression.Count
		if a.Error != nil {
			e := models.ErrorEntry{Path: a.FilePath, Kind: a.Error.Kind}
			if !seenErr[e] {
				seenErr[e] = true
				res.Errors = append(res.Errors, e)
			}
			if a.Error.Kind == models.ErrKindCancelled {
				res.Partial = true
			}
			continue
		}
		res.FileCount++

		for _, f := range a.Findings {
			res.TotalPIIFound++
			res.CountsByType[f.Type]++
			res.CountsByRisk[f.RiskLevel]++
			if f.RiskLevel == models.RiskHigh {
				res.HighRiskCount++
			}
			weight := w.Weight(f.RiskLevel)
			penalty += weight
			for _, p := range PrinciplesFor(f, w.RulePrinciples[f.RuleID]) {
				principlePenalty[p] += weight
			}
		}
	}

	res.ComplianceScore = score(penalty)
	for _, p := range allPrinciples {
		res.PrincipleScores[p] = score(principlePenalty[p])
	}
	return res, nil
}

func score(penalty float64) float64 {
	s := math.Max(0, 100-penalty)
	return math.Round(s*100) / 100
}

// normalize validates invariants and returns a sorted deep-enough copy.
func normalize(results []models.ArtifactResult) ([]models.ArtifactResult, error) {
	out := make([]models.ArtifactResult, len(results))
	seen := make(map[string]bool, len(results))
	for i, a := range results {
		if a.FilePath == "" {
			return nil, &AggregationError{Path: "<empty>", Reason: "artifact without path"}
		}
		if seen[a.FilePath] {
			return nil, &AggregationError{Path: a.FilePath, Reason: "duplicate artifact path"}
		}
		seen[a.FilePath] = true

		findings := make([]models.Finding, len(a.Findings))
		copy(findings, a.Findings)
		for _, f := range findings {
			if f.File != a.FilePath {
				return nil, &AggregationError{Path: a.FilePath, Reason: fmt.Sprintf("finding references %q", f.File)}
			}
			if f.Line < 1 {
				return nil, &AggregationError{Path: a.FilePath, Reason: fmt.Sprintf("invalid line %d", f.Line)}
			}
			if !f.RiskLevel.Valid() {
				return nil, &AggregationError{Path: a.FilePath, Reason: fmt.Sprintf("invalid risk level %q", f.RiskLevel)}
			}
		}
		sort.SliceStable(findings, func(i, j int) bool {
			x, y := findings[i], findings[j]
			if x.Line != y.Line {
				return x.Line < y.Line
			}
			if x.Columns.Start != y.Columns.Start {
				return x.Columns.Start < y.Columns.Start
			}
			return x.RuleID < y.RuleID
		})
		a.Findings = findings
		out[i] = a
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilePath < out[j].FilePath })
	return out, nil
}
