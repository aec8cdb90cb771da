// Package enrich turns validated candidates into findings: regulatory tags
// for the requested region, final risk, provenance and redaction.
package enrich

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
)

const DefaultStorageLimitDays = 365

type Options struct {
	// Redact masks matched text and snippets on findings.
	Redact bool
	// ReferenceTime enables staleness flags when non-zero.
	ReferenceTime    time.Time
	StorageLimitDays int
}

// Enricher is bound to one registry and, through ForArtifact, to one
// artifact's metadata.
type Enricher struct {
	reg  *rules.Registry
	opts Options

	blame    map[int]models.CommitInfo
	modified *time.Time

	// lines and spans let redaction mask every sensitive value that falls
	// inside a snippet, not only the finding's own match.
	lines []string
	spans map[int][]models.ColumnRange
}

func New(reg *rules.Registry, opts Options) *Enricher {
	if opts.StorageLimitDays <= 0 {
		opts.StorageLimitDays = DefaultStorageLimitDays
	}
	return &Enricher{reg: reg, opts: opts}
}

// ForArtifact returns an enricher that attaches the artifact's blame and
// staleness data.
func (e *Enricher) ForArtifact(a models.Artifact) *Enricher {
	cp := *e
	cp.blame = a.Blame
	cp.modified = a.LastModified
	return &cp
}

// WithSpans returns an enricher that masks the spans of all cands when it
// redacts snippets taken from lines.
func (e *Enricher) WithSpans(cands []models.RawCandidate, lines []string) *Enricher {
	cp := *e
	cp.lines = lines
	cp.spans = make(map[int][]models.ColumnRange)
	for _, c := range cands {
		cp.spans[c.Line] = append(cp.spans[c.Line], c.Columns)
	}
	return &cp
}

func (e *Enricher) Enrich(c models.ValidatedCandidate, region RegionProfile) (models.Finding, error) {
	r, ok := e.reg.Rule(c.RuleID)
	if !ok {
		return models.Finding{}, fmt.Errorf("candidate references unknown rule %q", c.RuleID)
	}

	f := models.Finding{
		File:           c.FilePath,
		Line:           c.Line,
		Columns:        c.Columns,
		Type:           r.Type,
		RuleID:         r.ID,
		Category:       r.Category,
		Confidence:     math.Round(c.Confidence*1000) / 1000,
		RiskLevel:      models.MaxRisk(r.RiskLevel, c.Escalation),
		Entropy:        math.Round(c.Entropy*1000) / 1000,
		RegionFlags:    regionFlags(r, region),
		MatchedText:    c.MatchedText,
		ContextSnippet: c.ContextSnippet,
		Fingerprint:    models.Fingerprint(c.MatchedText),
	}

	if ci, ok := e.blame[c.Line]; ok {
		info := ci
		f.CommitInfo = &info
	}

	if !e.opts.ReferenceTime.IsZero() && e.modified != nil {
		limit := time.Duration(e.opts.StorageLimitDays) * 24 * time.Hour
		f.Stale = e.opts.ReferenceTime.Sub(*e.modified) > limit
	}

	if e.opts.Redact {
		f.MatchedText = Redact(c.MatchedText)
		f.ContextSnippet = e.redactSnippet(c)
	}
	return f, nil
}

// redactSnippet masks every known span on the candidate's line within the
// snippet window. Without line data only the candidate's own match is masked.
func (e *Enricher) redactSnippet(c models.ValidatedCandidate) string {
	fallback := strings.ReplaceAll(c.ContextSnippet, c.MatchedText, Redact(c.MatchedText))
	if c.SnippetStart < 1 || c.Line < 1 || c.Line > len(e.lines) {
		return fallback
	}
	line := e.lines[c.Line-1]
	from := c.SnippetStart - 1
	to := from + len(c.ContextSnippet)
	if to > len(line) || line[from:to] != c.ContextSnippet {
		return fallback
	}

	hidden := make([]bool, len(line))
	hide := func(span models.ColumnRange) {
		start, end := span.Start-1, span.End-1
		if start < 0 || end > len(line) || start >= end {
			return
		}
		keep := keepLen(end - start)
		for i := start + keep; i < end-keep; i++ {
			hidden[i] = true
		}
	}
	hide(c.Columns)
	for _, span := range e.spans[c.Line] {
		hide(span)
	}

	out := []byte(line[from:to])
	for i := range out {
		if hidden[from+i] {
			out[i] = '*'
		}
	}
	return string(out)
}

func keepLen(n int) int {
	keep := n / 8
	if keep > 4 {
		keep = 4
	}
	return keep
}

// Redact keeps a short prefix and suffix and masks the rest.
func Redact(s string) string {
	keep := keepLen(len(s))
	if keep == 0 {
		return strings.Repeat("*", len(s))
	}
	return s[:keep] + strings.Repeat("*", len(s)-keep*2) + s[len(s)-keep:]
}
