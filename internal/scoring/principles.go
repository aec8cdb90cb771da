package scoring

import (
	"path"
	"sort"
	"strings"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// GDPR Article 5 principles scored independently.
const (
	Lawfulness               = "lawfulness"
	DataMinimisation         = "data_minimisation"
	PurposeLimitation        = "purpose_limitation"
	Accuracy                 = "accuracy"
	StorageLimitation        = "storage_limitation"
	IntegrityConfidentiality = "integrity_confidentiality"
)

var allPrinciples = []string{
	Accuracy, DataMinimisation, IntegrityConfidentiality, Lawfulness, PurposeLimitation, StorageLimitation,
}

// Principles returns every scored principle in sorted order.
func Principles() []string {
	return append([]string(nil), allPrinciples...)
}

func knownPrinciple(p string) bool {
	for _, k := range allPrinciples {
		if k == p {
			return true
		}
	}
	return false
}

var configExts = map[string]bool{
	".env": true, ".yaml": true, ".yml": true, ".json": true, ".ini": true,
	".toml": true, ".conf": true, ".cfg": true, ".properties": true, ".xml": true,
}

// lawfulnessTags mark special-category, criminal or national-id data that
// needs an explicit legal basis.
var lawfulnessTags = map[string]bool{
	"GDPR-Art9": true, "GDPR-Art10": true, "GDPR-Art87": true,
}

// PrinciplesFor tags a finding with the principles it affects. Explicit
// principles from the producing rule replace the derived ones.
func PrinciplesFor(f models.Finding, explicit []string) []string {
	set := make(map[string]bool)
	if len(explicit) > 0 {
		for _, p := range explicit {
			if knownPrinciple(p) {
				set[p] = true
			}
		}
		return sortedKeys(set)
	}

	ext := strings.ToLower(path.Ext(f.File))
	switch f.Category {
	case models.CategorySecret:
		set[IntegrityConfidentiality] = true
	case models.CategoryPII, models.CategoryDutch:
		set[DataMinimisation] = true
		if configExts[ext] || strings.HasPrefix(path.Base(f.File), ".env") {
			set[IntegrityConfidentiality] = true
		}
		if ext == ".log" {
			set[PurposeLimitation] = true
		}
	case models.CategoryAIPattern:
		set[PurposeLimitation] = true
	}
	for _, tag := range f.RegionFlags {
		if lawfulnessTags[tag] {
			set[Lawfulness] = true
		}
	}
	if f.Stale {
		set[StorageLimitation] = true
		set[Accuracy] = true
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
