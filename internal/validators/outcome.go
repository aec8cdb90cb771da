// Package validators decides whether a raw candidate is a real finding and
// how confident the scanner is about it. Everything here is pure.
package validators

import (
	"fmt"

	"github.com/digimosa/gdpr-scan/internal/models"
)

type Kind int

const (
	KindAccept Kind = iota + 1
	KindReject
	KindEscalate
)

func (k Kind) String() string {
	switch k {
	case KindAccept:
		return "accept"
	case KindReject:
		return "reject"
	case KindEscalate:
		return "escalate"
	}
	return "unknown"
}

// Outcome is the result of validating one candidate.
type Outcome struct {
	Kind       Kind
	Confidence float64
	// Risk is set for Escalate only.
	Risk   models.RiskLevel
	Reason string
}

func Accept(confidence float64) Outcome {
	return Outcome{Kind: KindAccept, Confidence: confidence}
}

func Reject(reason string) Outcome {
	return Outcome{Kind: KindReject, Reason: reason}
}

func Escalate(confidence float64, risk models.RiskLevel) Outcome {
	return Outcome{Kind: KindEscalate, Confidence: confidence, Risk: risk}
}

func (o Outcome) Rejected() bool { return o.Kind == KindReject }

func (o Outcome) String() string {
	switch o.Kind {
	case KindReject:
		return fmt.Sprintf("reject(%s)", o.Reason)
	case KindEscalate:
		return fmt.Sprintf("escalate(%.2f, %s)", o.Confidence, o.Risk)
	}
	return fmt.Sprintf("%s(%.2f)", o.Kind, o.Confidence)
}

// Verdict is what a single Check contributes to the chain: a confidence
// multiplier, an optional risk escalation, or a rejection.
type Verdict struct {
	Factor   float64
	Risk     models.RiskLevel
	Rejected bool
	Reason   string
}

func Pass() Verdict { return Verdict{Factor: 1} }

func Adjust(factor float64) Verdict { return Verdict{Factor: factor} }

func Raise(factor float64, risk models.RiskLevel) Verdict {
	return Verdict{Factor: factor, Risk: risk}
}

func Fail(reason string) Verdict { return Verdict{Rejected: true, Reason: reason} }
