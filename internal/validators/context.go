package validators

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
)

const (
	negativeFactor = 0.5
	positiveFactor = 1.2
)

var defaultNegativeWords = []string{
	"test", "tests", "testing", "example", "examples", "dummy", "sample",
	"fake", "placeholder", "changeme", "mock", "lorem",
}

// assignmentPattern matches a sensitive keyword being assigned right before
// the matched text, e.g. `api_key = "`, `password: `, `"bsn": "`.
var assignmentPattern = regexp.MustCompile(`(?i)(key|secret|token|passw(?:or)?d|pwd|credentials?|auth|bsn|burgerservicenummer|iban|e-?mail|phone|telefoon|mobile|dob|birth_?date|geboortedatum|ssn|card_?number)["']?\s*(?::=|=>|:|=)\s*["']?$`)

// reservedValues are documentation domains and addresses that never hold
// real personal data.
var reservedValues = []string{
	"@example.com", "@example.org", "@example.net", "@test.com", "@localhost",
	"127.0.0.1", "0.0.0.0", "255.255.255.255",
}

// ContextCheck looks at the words around the match. Test-like words lower
// confidence; an assignment to a sensitive keyword raises it, and for
// secrets escalates the risk to High.
type ContextCheck struct {
	// NegativeWords replaces the default list when set.
	NegativeWords []string
}

func (ContextCheck) Name() string { return "context" }

func (cc ContextCheck) Apply(c models.RawCandidate, r rules.PatternRule) Verdict {
	neg := cc.NegativeWords
	if neg == nil {
		neg = defaultNegativeWords
	}

	factor := 1.0
	if containsWord(c.ContextBefore, neg) || containsWord(c.ContextAfter, neg) || reservedValue(c.MatchedText) {
		factor *= negativeFactor
	}

	if assignmentPattern.MatchString(c.ContextBefore) {
		factor *= positiveFactor
		if r.Category == models.CategorySecret {
			return Raise(factor, models.RiskHigh)
		}
	}
	return Adjust(factor)
}

// containsWord splits the window on non-alphanumerics so identifiers like
// test_api_key count as containing "test" while "latest" does not.
func containsWord(window string, words []string) bool {
	if window == "" {
		return false
	}
	tokens := strings.FieldsFunc(strings.ToLower(window), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

func reservedValue(s string) bool {
	s = strings.ToLower(s)
	for _, v := range reservedValues {
		if strings.Contains(s, v) {
			return true
		}
	}
	return false
}
