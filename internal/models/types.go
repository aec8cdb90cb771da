package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Category groups detectors by the kind of data they look for.
type Category string

const (
	CategorySecret    Category = "secret"
	CategoryPII       Category = "PII"
	CategoryDutch     Category = "dutch-specific"
	CategoryAIPattern Category = "ai-pattern"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySecret, CategoryPII, CategoryDutch, CategoryAIPattern:
		return true
	}
	return false
}

// ParseCategory accepts the canonical spelling and a few loose variants
// ("pii", "secrets", "dutch").
func ParseCategory(s string) (Category, error) {
	switch s {
	case "secret", "secrets":
		return CategorySecret, nil
	case "PII", "pii":
		return CategoryPII, nil
	case "dutch-specific", "dutch", "nl":
		return CategoryDutch, nil
	case "ai-pattern", "ai":
		return CategoryAIPattern, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// RiskLevel is the severity attached to rules and findings.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Rank orders risk levels; unknown levels rank 0.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

func (r RiskLevel) Valid() bool { return r.Rank() > 0 }

// MaxRisk returns the higher of two risk levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

func ParseRiskLevel(s string) (RiskLevel, error) {
	switch s {
	case "Low", "low":
		return RiskLow, nil
	case "Medium", "medium":
		return RiskMedium, nil
	case "High", "high", "critical":
		return RiskHigh, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// ColumnRange is a 1-based byte column range within a line; End is exclusive.
type ColumnRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether two ranges on the same line share at least one byte.
func (c ColumnRange) Overlaps(o ColumnRange) bool {
	return c.Start < o.End && o.Start < c.End
}

// RawCandidate is a single matcher hit before validation.
type RawCandidate struct {
	RuleID         string      `json:"rule_id"`
	FilePath       string      `json:"file"`
	Line           int         `json:"line"`
	Columns        ColumnRange `json:"columns"`
	MatchedText    string      `json:"matched_text"`
	ContextSnippet string      `json:"context_snippet"`
	Entropy        float64     `json:"entropy,omitempty"`

	// Window halves around the match, used by context validation.
	ContextBefore string `json:"-"`
	ContextAfter  string `json:"-"`
	// SnippetStart is the 1-based byte column where ContextSnippet begins.
	SnippetStart int `json:"-"`
}

// ValidatedCandidate is a candidate that passed validation.
type ValidatedCandidate struct {
	RawCandidate
	Confidence float64
	// Escalation is the risk raised by validators; empty when none.
	Escalation RiskLevel
	// Specificity of the producing rule, used to break dedup ties.
	Specificity int
}

// Fingerprint identifies matched content without storing it.
func Fingerprint(matched string) string {
	sum := sha256.Sum256([]byte(matched))
	return hex.EncodeToString(sum[:])
}

// CommitInfo is the blame data attached to a finding when the source knows it.
type CommitInfo struct {
	Author   string `json:"author"`
	CommitID string `json:"commit_id"`
}

// Finding is a validated, unsuppressed and enriched candidate.
type Finding struct {
	File           string      `json:"file"`
	Line           int         `json:"line"`
	Columns        ColumnRange `json:"columns"`
	Type           string      `json:"type"`
	RuleID         string      `json:"rule_id"`
	Category       Category    `json:"category"`
	Confidence     float64     `json:"confidence"`
	RiskLevel      RiskLevel   `json:"risk_level"`
	Entropy        float64     `json:"entropy,omitempty"`
	RegionFlags    []string    `json:"region_flags"`
	MatchedText    string      `json:"matched_text"`
	ContextSnippet string      `json:"context_snippet"`
	Fingerprint    string      `json:"fingerprint"`
	Stale          bool        `json:"stale,omitempty"`
	CommitInfo     *CommitInfo `json:"commit_info,omitempty"`
}

// Artifact is one unit handed to the pipeline by a source adapter.
type Artifact struct {
	Path    string
	Content []byte
	// Size is the full size of the artifact; it may exceed len(Content)
	// when the source refused to read an oversized file.
	Size int64
	// Blame maps 1-based line numbers to commit metadata. Optional.
	Blame map[int]CommitInfo
	// LastModified feeds optional staleness scoring.
	LastModified *time.Time
}

// SuppressionRecord documents one suppressed candidate without its content.
type SuppressionRecord struct {
	RuleID string `json:"rule_id"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// SuppressionAudit is the accountability trail kept for every artifact.
type SuppressionAudit struct {
	Count    int                 `json:"count"`
	ByReason map[string]int      `json:"by_reason,omitempty"`
	Records  []SuppressionRecord `json:"records,omitempty"`
}

// Add records one suppression.
func (a *SuppressionAudit) Add(ruleID string, line int, reason string) {
	if a.ByReason == nil {
		a.ByReason = make(map[string]int)
	}
	a.Count++
	a.ByReason[reason]++
	a.Records = append(a.Records, SuppressionRecord{RuleID: ruleID, Line: line, Reason: reason})
}

// ArtifactResult is the outcome of scanning one artifact.
type ArtifactResult struct {
	FilePath    string           `json:"file_path"`
	Findings    []Finding        `json:"findings"`
	Suppression SuppressionAudit `json:"suppression"`
	Merged      int              `json:"merged_duplicates,omitempty"`
	Error       *ArtifactError   `json:"error,omitempty"`
	// ScanDuration is kept out of the envelope so reports stay reproducible.
	ScanDuration time.Duration `json:"-"`
}

// ErrorEntry is one line of the envelope's error list.
type ErrorEntry struct {
	Path string    `json:"path"`
	Kind ErrorKind `json:"kind"`
}

// ScanResult is the envelope handed to persistence, rendering and dashboards.
type ScanResult struct {
	ScanID          string             `json:"scan_id"`
	Timestamp       time.Time          `json:"timestamp"`
	Region          string             `json:"region"`
	Scope           string             `json:"scope,omitempty"`
	FileCount       int                `json:"file_count"`
	FilesAttempted  int                `json:"files_attempted"`
	TotalPIIFound   int                `json:"total_pii_found"`
	HighRiskCount   int                `json:"high_risk_count"`
	SuppressedCount int                `json:"suppressed_count"`
	CountsByType    map[string]int     `json:"counts_by_type"`
	CountsByRisk    map[RiskLevel]int  `json:"counts_by_risk"`
	ComplianceScore float64            `json:"compliance_score"`
	PrincipleScores map[string]float64 `json:"principle_scores"`
	Artifacts       []ArtifactResult   `json:"artifacts"`
	Errors          []ErrorEntry       `json:"errors"`
	Partial         bool               `json:"partial,omitempty"`
}

// Findings returns every finding of the scan in report order.
func (r *ScanResult) Findings() []Finding {
	var out []Finding
	for _, a := range r.Artifacts {
		out = append(out, a.Findings...)
	}
	return out
}
