package validators

import (
	"math"

	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
)

// Entropy returns the Shannon entropy of s in bits per byte.
func Entropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	var freq [256]int
	for i := 0; i < len(s); i++ {
		freq[s[i]]++
	}
	var h float64
	n := float64(len(s))
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / n
		h -= p * math.Log2(p)
	}
	return h
}

// EntropyCheck requires both the rule's entropy threshold and its minimum
// token length.
type EntropyCheck struct{}

func (EntropyCheck) Name() string { return "entropy" }

func (EntropyCheck) Apply(c models.RawCandidate, r rules.PatternRule) Verdict {
	if r.MinLength > 0 && len(c.MatchedText) < r.MinLength {
		return Fail("too_short")
	}
	if r.MinEntropy <= 0 {
		return Pass()
	}
	e := c.Entropy
	if e == 0 {
		e = Entropy(c.MatchedText)
	}
	if e < r.MinEntropy {
		return Fail("low_entropy")
	}
	return Pass()
}
