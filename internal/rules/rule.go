package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// MatcherKind tags the variant held by a MatcherSpec.
type MatcherKind int

const (
	MatchRegex MatcherKind = iota + 1
	MatchChecksum
	MatchEntropy
	MatchLiteral
)

func (k MatcherKind) String() string {
	switch k {
	case MatchRegex:
		return "regex"
	case MatchChecksum:
		return "checksum"
	case MatchEntropy:
		return "entropy"
	case MatchLiteral:
		return "literals"
	}
	return "unknown"
}

// Checksum algorithm identifiers understood by the registry and validators.
const (
	ChecksumBSN  = "bsn"
	ChecksumLuhn = "luhn"
	ChecksumIBAN = "iban"
)

// checksumCandidates is the scanning expression used for each checksum
// algorithm; the checksum itself is applied by the validators.
var checksumCandidates = map[string]string{
	ChecksumBSN:  `\b\d{9}\b|\b\d{4}\.\d{2}\.\d{3}\b`,
	ChecksumLuhn: `\b(?:\d[ -]?){12,18}\d\b`,
	ChecksumIBAN: `\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){2,7}(?: ?[A-Z0-9]{1,3})?\b`,
}

// KnownChecksum reports whether algo is a registered checksum algorithm.
func KnownChecksum(algo string) bool {
	_, ok := checksumCandidates[algo]
	return ok
}

// entropyTokenPattern finds base64/hex/url-safe tokens for entropy rules.
const entropyTokenPattern = `[A-Za-z0-9+/_\-]{16,}={0,2}`

const defaultEntropyMinLength = 16

// MatcherSpec is a tagged variant: Regex(pattern) | Checksum(algorithm) |
// EntropyThreshold(bits) | LiteralSet(strings). It is compiled when the
// registry loads, never at match time.
type MatcherSpec struct {
	Kind      MatcherKind
	Pattern   string
	Algorithm string
	Threshold float64
	Literals  []string

	re *regexp.Regexp
}

func Regex(pattern string) MatcherSpec {
	return MatcherSpec{Kind: MatchRegex, Pattern: pattern}
}

func Checksum(algorithm string) MatcherSpec {
	return MatcherSpec{Kind: MatchChecksum, Algorithm: algorithm}
}

func EntropyThreshold(bits float64) MatcherSpec {
	return MatcherSpec{Kind: MatchEntropy, Threshold: bits}
}

func LiteralSet(literals ...string) MatcherSpec {
	return MatcherSpec{Kind: MatchLiteral, Literals: literals}
}

// Regexp returns the compiled scanning expression. It is nil until the
// owning rule has been loaded into a Registry.
func (m MatcherSpec) Regexp() *regexp.Regexp { return m.re }

func (m MatcherSpec) String() string {
	switch m.Kind {
	case MatchRegex:
		return "regex:" + m.Pattern
	case MatchChecksum:
		return "checksum:" + m.Algorithm
	case MatchEntropy:
		return fmt.Sprintf("entropy:%.2f", m.Threshold)
	case MatchLiteral:
		return "literals:" + strings.Join(m.Literals, ",")
	}
	return "unknown"
}

func (m *MatcherSpec) compile() error {
	var expr string
	switch m.Kind {
	case MatchRegex:
		if m.Pattern == "" {
			return fmt.Errorf("empty regex")
		}
		expr = m.Pattern
	case MatchChecksum:
		c, ok := checksumCandidates[m.Algorithm]
		if !ok {
			return fmt.Errorf("unknown checksum algorithm %q", m.Algorithm)
		}
		expr = c
	case MatchEntropy:
		if m.Threshold <= 0 || m.Threshold > 8 {
			return fmt.Errorf("entropy threshold %.2f out of range (0, 8]", m.Threshold)
		}
		expr = entropyTokenPattern
	case MatchLiteral:
		lits := make([]string, 0, len(m.Literals))
		for _, l := range m.Literals {
			if l = strings.TrimSpace(l); l != "" {
				lits = append(lits, l)
			}
		}
		if len(lits) == 0 {
			return fmt.Errorf("empty literal set")
		}
		// Longest first so alternation prefers the most specific literal.
		sort.SliceStable(lits, func(i, j int) bool { return len(lits[i]) > len(lits[j]) })
		quoted := make([]string, len(lits))
		for i, l := range lits {
			quoted[i] = regexp.QuoteMeta(l)
		}
		expr = `(?i)(?:` + strings.Join(quoted, "|") + `)`
	default:
		return fmt.Errorf("matcher kind not set")
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return err
	}
	m.re = re
	return nil
}

// PatternRule is a named detector. Rules are immutable once a Registry holds
// them.
type PatternRule struct {
	ID             string
	Category       models.Category
	Matcher        MatcherSpec
	ConfidenceBase float64
	RegionTags     []string
	RiskLevel      models.RiskLevel

	// Type is the pii_type reported on findings.
	Type        string
	Description string
	// SecretGroup selects the capture group holding the sensitive token.
	SecretGroup int
	MinEntropy  float64
	MinLength   int
	// Checksum names a hard checksum gate for Regex rules.
	Checksum string
	// Keywords is a case-insensitive pre-filter: lines without any of them
	// are skipped for this rule.
	Keywords []string
	// Generic marks catch-all rules that lose dedup ties.
	Generic    bool
	Principles []string
	// Origin names where the rule came from ("builtin" or a source name).
	Origin string
	// Allows exempt known placeholder tokens from this rule.
	Allows []Allow
}

// Allow exempts tokens a rule would otherwise report.
type Allow struct {
	// StopWords are matched case-insensitively against the token.
	StopWords []string
	Regexes   []*regexp.Regexp
	// Target is "match" or "line" to test Regexes against the text around
	// the token instead of the token itself.
	Target string
	// MatchAll requires a hit from every populated criterion.
	MatchAll bool
}

// Exempts reports whether token, found within text, is allowed.
func (a Allow) Exempts(token, text string) bool {
	lower := strings.ToLower(token)
	stop := false
	for _, w := range a.StopWords {
		if strings.Contains(lower, w) {
			stop = true
			break
		}
	}
	target := token
	if a.Target == "match" || a.Target == "line" {
		target = text
	}
	re := false
	for _, r := range a.Regexes {
		if r.MatchString(target) {
			re = true
			break
		}
	}
	if a.MatchAll {
		return (len(a.StopWords) == 0 || stop) && (len(a.Regexes) == 0 || re) &&
			(len(a.StopWords) > 0 || len(a.Regexes) > 0)
	}
	return stop || re
}

// Exempt reports whether any of the rule's allowlists covers token.
func (r PatternRule) Exempt(token, text string) bool {
	for _, a := range r.Allows {
		if a.Exempts(token, text) {
			return true
		}
	}
	return false
}

// Specificity ranks rules for dedup tie-breaks; higher is more specific.
func (r PatternRule) Specificity() int {
	var s int
	switch r.Matcher.Kind {
	case MatchChecksum:
		s = 40
	case MatchRegex:
		s = 30
		if r.Checksum != "" {
			s = 40
		} else if r.Generic {
			s = 10
		}
	case MatchLiteral:
		s = 20
	case MatchEntropy:
		s = 0
	}
	if r.Category == models.CategoryDutch {
		s += 5
	}
	return s
}

// finalize validates required fields, applies defaults and compiles the
// matcher. It returns a copy; the receiver is never modified.
func (r PatternRule) finalize(origin string) (PatternRule, error) {
	if r.ID == "" {
		return r, fmt.Errorf("missing required field id")
	}
	if r.Category == "" {
		return r, fmt.Errorf("missing required field category")
	}
	if !r.Category.Valid() {
		return r, fmt.Errorf("unknown category %q", r.Category)
	}
	if r.Matcher.Kind == 0 {
		return r, fmt.Errorf("missing required field matcher")
	}

	out := r
	out.RegionTags = sortedUnique(r.RegionTags)
	out.Keywords = lowerAll(r.Keywords)
	out.Principles = sortedUnique(r.Principles)
	out.Matcher.Literals = append([]string(nil), r.Matcher.Literals...)
	out.Allows = nil
	for _, a := range r.Allows {
		a.StopWords = lowerAll(a.StopWords)
		a.Regexes = append([]*regexp.Regexp(nil), a.Regexes...)
		out.Allows = append(out.Allows, a)
	}
	if out.Origin == "" {
		out.Origin = origin
	}
	if err := out.Matcher.compile(); err != nil {
		return r, fmt.Errorf("matcher %s: %w", r.Matcher, err)
	}
	if out.SecretGroup < 0 || out.SecretGroup > out.Matcher.re.NumSubexp() {
		return r, fmt.Errorf("secret_group %d out of range (pattern has %d groups)", out.SecretGroup, out.Matcher.re.NumSubexp())
	}
	if out.ConfidenceBase <= 0 {
		out.ConfidenceBase = 0.5
	}
	if out.ConfidenceBase > 1 {
		return r, fmt.Errorf("confidence_base %.2f above 1", out.ConfidenceBase)
	}
	if out.RiskLevel == "" {
		out.RiskLevel = models.RiskMedium
	}
	if !out.RiskLevel.Valid() {
		return r, fmt.Errorf("unknown risk level %q", out.RiskLevel)
	}
	if out.Type == "" {
		out.Type = strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(out.ID))
	}
	switch out.Matcher.Kind {
	case MatchEntropy:
		if out.MinEntropy < out.Matcher.Threshold {
			out.MinEntropy = out.Matcher.Threshold
		}
		if out.MinLength == 0 {
			out.MinLength = defaultEntropyMinLength
		}
	case MatchChecksum:
		out.Checksum = out.Matcher.Algorithm
	}
	if out.Checksum != "" && !KnownChecksum(out.Checksum) {
		return r, fmt.Errorf("unknown checksum algorithm %q", out.Checksum)
	}
	return out, nil
}

// Literals returns the literal set of a LiteralSet matcher.
func (r PatternRule) Literals() []string {
	if r.Matcher.Kind != MatchLiteral {
		return nil
	}
	return append([]string(nil), r.Matcher.Literals...)
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func lowerAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
