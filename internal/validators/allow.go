package validators

import (
	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
)

// AllowCheck rejects tokens covered by the rule's own allowlists. Text
// targets see the context window around the token.
type AllowCheck struct{}

func (AllowCheck) Name() string { return "allowlist" }

func (AllowCheck) Apply(c models.RawCandidate, r rules.PatternRule) Verdict {
	if len(r.Allows) == 0 {
		return Pass()
	}
	if r.Exempt(c.MatchedText, c.ContextBefore+c.MatchedText+c.ContextAfter) {
		return Fail("allowlisted")
	}
	return Pass()
}
