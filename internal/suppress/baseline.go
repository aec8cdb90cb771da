package suppress

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/digimosa/gdpr-scan/internal/models"
)

const baselineVersion = 1

// BaselineEntry is one previously accepted finding.
type BaselineEntry struct {
	File        string `json:"file"`
	RuleID      string `json:"rule_id"`
	Line        int    `json:"line"`
	Fingerprint string `json:"fingerprint"`
}

type baselineKey struct {
	file   string
	ruleID string
	line   int
}

// Baseline suppresses findings whose position and content are unchanged
// since it was recorded.
type Baseline struct {
	Version int             `json:"version"`
	Entries []BaselineEntry `json:"entries"`

	index map[baselineKey]string
}

func NewBaseline(entries ...BaselineEntry) *Baseline {
	b := &Baseline{Version: baselineVersion, Entries: append([]BaselineEntry(nil), entries...)}
	b.sortEntries()
	b.reindex()
	return b
}

// BaselineFromResult records every finding of a finished scan.
func BaselineFromResult(res *models.ScanResult) *Baseline {
	var entries []BaselineEntry
	for _, f := range res.Findings() {
		entries = append(entries, BaselineEntry{
			File:        f.File,
			RuleID:      f.RuleID,
			Line:        f.Line,
			Fingerprint: f.Fingerprint,
		})
	}
	return NewBaseline(entries...)
}

func LoadBaseline(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}
	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse baseline %s: %w", path, err)
	}
	if b.Version > baselineVersion {
		return nil, fmt.Errorf("baseline %s has unsupported version %d", path, b.Version)
	}
	b.Version = baselineVersion
	b.sortEntries()
	b.reindex()
	return &b, nil
}

func (b *Baseline) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write baseline: %w", err)
	}
	return nil
}

// Contains reports whether the exact finding is in the baseline. A nil
// baseline contains nothing.
func (b *Baseline) Contains(file, ruleID string, line int, fingerprint string) bool {
	if b == nil {
		return false
	}
	fp, ok := b.index[baselineKey{file: file, ruleID: ruleID, line: line}]
	return ok && fp == fingerprint
}

func (b *Baseline) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Entries)
}

func (b *Baseline) reindex() {
	b.index = make(map[baselineKey]string, len(b.Entries))
	for _, e := range b.Entries {
		b.index[baselineKey{file: e.File, ruleID: e.RuleID, line: e.Line}] = e.Fingerprint
	}
}

func (b *Baseline) sortEntries() {
	sort.Slice(b.Entries, func(i, j int) bool {
		x, y := b.Entries[i], b.Entries[j]
		if x.File != y.File {
			return x.File < y.File
		}
		if x.Line != y.Line {
			return x.Line < y.Line
		}
		return x.RuleID < y.RuleID
	})
}
