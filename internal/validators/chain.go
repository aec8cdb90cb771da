package validators

import (
	"math"

	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
)

// DefaultMinConfidence is the floor below which candidates are dropped.
const DefaultMinConfidence = 0.3

// Check is one composable validation step.
type Check interface {
	Name() string
	Apply(c models.RawCandidate, r rules.PatternRule) Verdict
}

// Chain runs checks in order. The first rejection wins; otherwise the
// confidence is the rule's base multiplied by every factor, capped at 1,
// and the risk is the highest escalation seen.
type Chain struct {
	checks        []Check
	minConfidence float64
}

func NewChain(minConfidence float64, checks ...Check) *Chain {
	return &Chain{checks: checks, minConfidence: minConfidence}
}

// DefaultChain applies rule allowlists, then validates checksum, entropy
// and context.
func DefaultChain(minConfidence float64) *Chain {
	return NewChain(minConfidence, AllowCheck{}, ChecksumCheck{}, EntropyCheck{}, ContextCheck{})
}

func (ch *Chain) Validate(c models.RawCandidate, r rules.PatternRule) Outcome {
	confidence := r.ConfidenceBase
	var risk models.RiskLevel
	for _, check := range ch.checks {
		v := check.Apply(c, r)
		if v.Rejected {
			return Reject(check.Name() + ":" + v.Reason)
		}
		confidence *= v.Factor
		risk = models.MaxRisk(risk, v.Risk)
	}
	confidence = math.Min(confidence, 1)
	if confidence < ch.minConfidence {
		return Reject("low_confidence")
	}
	if risk.Rank() > r.RiskLevel.Rank() {
		return Escalate(confidence, risk)
	}
	return Accept(confidence)
}

var defaultChain = DefaultChain(DefaultMinConfidence)

// Validate runs the default chain.
func Validate(c models.RawCandidate, r rules.PatternRule) Outcome {
	return defaultChain.Validate(c, r)
}
