package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// RuleLoadError reports a rule or a whole rule source that could not be
// loaded. Fatal is set when the source itself was unreadable.
type RuleLoadError struct {
	Source string
	RuleID string
	Index  int
	Fatal  bool
	Err    error
}

func (e *RuleLoadError) Error() string {
	switch {
	case e.Fatal:
		return fmt.Sprintf("rule source %s: %v", e.Source, e.Err)
	case e.RuleID != "":
		return fmt.Sprintf("rule %q (%s): %v", e.RuleID, e.Source, e.Err)
	default:
		return fmt.Sprintf("rule #%d (%s): %v", e.Index, e.Source, e.Err)
	}
}

func (e *RuleLoadError) Unwrap() error { return e.Err }

// Source supplies custom rules to the registry. Rules returns the rules it
// could decode, per-rule problems, and a fatal error when nothing could be
// decoded at all.
type Source interface {
	Name() string
	Rules() ([]PatternRule, []*RuleLoadError, error)
}

// matcherDoc accepts either a plain string (regex) or a mapping with exactly
// one of regex/checksum/entropy/literals.
type matcherDoc struct {
	Regex    string   `yaml:"regex"`
	Checksum string   `yaml:"checksum"`
	Entropy  float64  `yaml:"entropy"`
	Literals []string `yaml:"literals"`
}

func (m *matcherDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		m.Regex = n.Value
		return nil
	}
	type plain matcherDoc
	return n.Decode((*plain)(m))
}

func (m *matcherDoc) spec() (MatcherSpec, error) {
	var set []MatcherSpec
	if m.Regex != "" {
		set = append(set, Regex(m.Regex))
	}
	if m.Checksum != "" {
		set = append(set, Checksum(m.Checksum))
	}
	if m.Entropy != 0 {
		set = append(set, EntropyThreshold(m.Entropy))
	}
	if len(m.Literals) > 0 {
		set = append(set, LiteralSet(m.Literals...))
	}
	switch len(set) {
	case 0:
		return MatcherSpec{}, fmt.Errorf("missing required field matcher")
	case 1:
		return set[0], nil
	}
	return MatcherSpec{}, fmt.Errorf("matcher must set exactly one of regex, checksum, entropy, literals")
}

type ruleDoc struct {
	ID             string      `yaml:"id"`
	Category       string      `yaml:"category"`
	Matcher        *matcherDoc `yaml:"matcher"`
	ConfidenceBase float64     `yaml:"confidence_base"`
	RegionTags     []string    `yaml:"region_tags"`
	RiskLevel      string      `yaml:"risk_level"`
	Type           string      `yaml:"type"`
	Description    string      `yaml:"description"`
	SecretGroup    int         `yaml:"secret_group"`
	MinEntropy     float64     `yaml:"min_entropy"`
	MinLength      int         `yaml:"min_length"`
	Checksum       string      `yaml:"checksum"`
	Keywords       []string    `yaml:"keywords"`
	Generic        bool        `yaml:"generic"`
	Principles     []string    `yaml:"principles"`
}

func (d ruleDoc) toRule() (PatternRule, error) {
	if d.ID == "" {
		return PatternRule{}, fmt.Errorf("missing required field id")
	}
	if d.Category == "" {
		return PatternRule{}, fmt.Errorf("missing required field category")
	}
	cat, err := models.ParseCategory(d.Category)
	if err != nil {
		return PatternRule{}, err
	}
	if d.Matcher == nil {
		return PatternRule{}, fmt.Errorf("missing required field matcher")
	}
	m, err := d.Matcher.spec()
	if err != nil {
		return PatternRule{}, err
	}
	var risk models.RiskLevel
	if d.RiskLevel != "" {
		if risk, err = models.ParseRiskLevel(d.RiskLevel); err != nil {
			return PatternRule{}, err
		}
	}
	return PatternRule{
		ID:             d.ID,
		Category:       cat,
		Matcher:        m,
		ConfidenceBase: d.ConfidenceBase,
		RegionTags:     d.RegionTags,
		RiskLevel:      risk,
		Type:           d.Type,
		Description:    d.Description,
		SecretGroup:    d.SecretGroup,
		MinEntropy:     d.MinEntropy,
		MinLength:      d.MinLength,
		Checksum:       d.Checksum,
		Keywords:       d.Keywords,
		Generic:        d.Generic,
		Principles:     d.Principles,
	}, nil
}

// ParseRules decodes a YAML or JSON rule document. Both a top-level list and
// a mapping with a "rules" key are accepted.
func ParseRules(name string, data []byte) ([]PatternRule, []*RuleLoadError, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, &RuleLoadError{Source: name, Fatal: true, Err: fmt.Errorf("failed to parse rules: %w", err)}
	}
	if len(root.Content) == 0 {
		return nil, nil, nil
	}
	doc := root.Content[0]
	if doc.Kind == yaml.MappingNode {
		var list *yaml.Node
		for i := 0; i+1 < len(doc.Content); i += 2 {
			if doc.Content[i].Value == "rules" {
				list = doc.Content[i+1]
			}
		}
		if list == nil {
			return nil, nil, &RuleLoadError{Source: name, Fatal: true, Err: fmt.Errorf("no rules list found")}
		}
		doc = list
	}
	if doc.Kind != yaml.SequenceNode {
		return nil, nil, &RuleLoadError{Source: name, Fatal: true, Err: fmt.Errorf("rules must be a list")}
	}

	var (
		out  []PatternRule
		errs []*RuleLoadError
	)
	for i, item := range doc.Content {
		var d ruleDoc
		if err := item.Decode(&d); err != nil {
			errs = append(errs, &RuleLoadError{Source: name, Index: i, Err: err})
			continue
		}
		r, err := d.toRule()
		if err != nil {
			errs = append(errs, &RuleLoadError{Source: name, RuleID: d.ID, Index: i, Err: err})
			continue
		}
		r.Origin = name
		out = append(out, r)
	}
	return out, errs, nil
}

// FileSource reads a YAML or JSON rule file.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Rules() ([]PatternRule, []*RuleLoadError, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, nil, &RuleLoadError{Source: s.Path, Fatal: true, Err: fmt.Errorf("failed to read rules file: %w", err)}
	}
	return ParseRules(s.Path, data)
}

// BytesSource decodes an in-memory rule document.
type BytesSource struct {
	Label string
	Data  []byte
}

func (s BytesSource) Name() string {
	if s.Label == "" {
		return "inline"
	}
	return s.Label
}

func (s BytesSource) Rules() ([]PatternRule, []*RuleLoadError, error) {
	return ParseRules(s.Name(), s.Data)
}

// LiteralSource turns a plain list of strings into one LiteralSet rule.
type LiteralSource struct {
	ID       string
	Category models.Category
	Risk     models.RiskLevel
	Values   []string
}

func (s LiteralSource) id() string {
	if s.ID == "" {
		return "custom_literals"
	}
	return s.ID
}

func (s LiteralSource) Name() string { return "literals:" + s.id() }

func (s LiteralSource) Rules() ([]PatternRule, []*RuleLoadError, error) {
	var vals []string
	for _, v := range s.Values {
		if v = strings.TrimSpace(v); v != "" {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil, nil, nil
	}
	cat := s.Category
	if cat == "" {
		cat = models.CategoryPII
	}
	return []PatternRule{{
		ID:             s.id(),
		Category:       cat,
		Matcher:        LiteralSet(vals...),
		ConfidenceBase: 0.7,
		RiskLevel:      s.Risk,
		Type:           "CUSTOM_LITERAL",
		RegionTags:     []string{TagGDPRArt5},
		Origin:         s.Name(),
	}}, nil, nil
}
