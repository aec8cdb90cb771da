package suppress

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// Suppression reasons recorded in the audit trail.
const (
	ReasonPath      = "path"
	ReasonRule      = "rule"
	ReasonRulePath  = "rule_path"
	ReasonInline    = "inline_marker"
	ReasonAllowlist = "allowlist"
	ReasonBaseline  = "baseline"
)

// DefaultMarkers suppress a finding on their own line, or on the next line
// when the marker sits in a comment-only line.
var DefaultMarkers = []string{"nosecret", "gdpr-ignore", "pii-ignore", "nopii"}

// IgnoreFile is the on-disk form of the ignore rules.
type IgnoreFile struct {
	Paths  []string `yaml:"paths" json:"paths"`
	Rules  []string `yaml:"rules" json:"rules"`
	Scoped []struct {
		Rule string `yaml:"rule" json:"rule"`
		Path string `yaml:"path" json:"path"`
	} `yaml:"scoped" json:"scoped"`
	Values  []string `yaml:"values" json:"values"`
	Markers []string `yaml:"markers" json:"markers"`
}

type pathGlob struct {
	pattern string
	g       glob.Glob
	// baseOnly patterns contain no separator and match the file name.
	baseOnly bool
}

func compileGlob(pattern string) (pathGlob, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return pathGlob{}, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
	}
	return pathGlob{pattern: pattern, g: g, baseOnly: !strings.Contains(pattern, "/")}, nil
}

func (p pathGlob) match(file string) bool {
	if p.baseOnly {
		return p.g.Match(path.Base(file))
	}
	return p.g.Match(file)
}

// IgnoreRules always suppress what they match. A nil *IgnoreRules still
// honours the default inline markers.
type IgnoreRules struct {
	paths   []pathGlob
	ruleIDs map[string]bool
	scoped  map[string][]pathGlob
	values  *Allowlist
	markers []string
}

func NewIgnoreRules(f IgnoreFile) (*IgnoreRules, error) {
	ig := &IgnoreRules{
		ruleIDs: make(map[string]bool),
		scoped:  make(map[string][]pathGlob),
		values:  AllowValues(f.Values...),
		markers: DefaultMarkers,
	}
	for _, p := range f.Paths {
		pg, err := compileGlob(p)
		if err != nil {
			return nil, err
		}
		ig.paths = append(ig.paths, pg)
	}
	for _, id := range f.Rules {
		ig.ruleIDs[strings.TrimSpace(id)] = true
	}
	for _, s := range f.Scoped {
		if s.Rule == "" || s.Path == "" {
			return nil, fmt.Errorf("scoped ignore needs both rule and path")
		}
		pg, err := compileGlob(s.Path)
		if err != nil {
			return nil, err
		}
		ig.scoped[s.Rule] = append(ig.scoped[s.Rule], pg)
	}
	if len(f.Markers) > 0 {
		ig.markers = nil
		for _, m := range f.Markers {
			ig.markers = append(ig.markers, strings.ToLower(m))
		}
	}
	return ig, nil
}

// LoadIgnoreFile reads ignore rules from a YAML or JSON file.
func LoadIgnoreFile(filename string) (*IgnoreRules, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore file: %w", err)
	}
	var f IgnoreFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse ignore file: %w", err)
	}
	return NewIgnoreRules(f)
}

// WithAllowlist merges a value allowlist into the rules.
func (ig *IgnoreRules) WithAllowlist(a *Allowlist) *IgnoreRules {
	if ig == nil {
		ig = &IgnoreRules{markers: DefaultMarkers}
	}
	if a == nil {
		return ig
	}
	merged := AllowValues()
	for _, src := range []*Allowlist{ig.values, a} {
		if src == nil {
			continue
		}
		src.mu.RLock()
		for v := range src.items {
			merged.items[v] = true
		}
		src.mu.RUnlock()
	}
	out := *ig
	out.values = merged
	return &out
}

// PathIgnored reports whether a whole artifact is excluded.
func (ig *IgnoreRules) PathIgnored(file string) bool {
	if ig == nil {
		return false
	}
	for _, p := range ig.paths {
		if p.match(file) {
			return true
		}
	}
	return false
}

// Match returns the reason a candidate is suppressed. lines is the artifact
// text split into lines, used for inline markers.
func (ig *IgnoreRules) Match(c models.RawCandidate, lines []string) (string, bool) {
	markers := DefaultMarkers
	if ig != nil {
		if ig.PathIgnored(c.FilePath) {
			return ReasonPath, true
		}
		if ig.ruleIDs[c.RuleID] {
			return ReasonRule, true
		}
		for _, p := range ig.scoped[c.RuleID] {
			if p.match(c.FilePath) {
				return ReasonRulePath, true
			}
		}
		markers = ig.markers
	}
	if hasMarker(lines, c.Line, markers) {
		return ReasonInline, true
	}
	if ig != nil && ig.values.Contains(c.MatchedText) {
		return ReasonAllowlist, true
	}
	return "", false
}

// commentLeaders start a line that holds nothing but a comment.
var commentLeaders = []string{"//", "#", "--", "/*", "<!--", ";"}

// hasMarker checks the candidate's own line and a comment-only line directly
// above it. A marker trailing code on the line above covers that line only.
func hasMarker(lines []string, line int, markers []string) bool {
	if line >= 1 && line <= len(lines) && containsMarker(lines[line-1], markers) {
		return true
	}
	n := line - 1
	if n < 1 || n > len(lines) {
		return false
	}
	return isCommentLine(lines[n-1]) && containsMarker(lines[n-1], markers)
}

func containsMarker(line string, markers []string) bool {
	l := strings.ToLower(line)
	for _, m := range markers {
		if strings.Contains(l, m) {
			return true
		}
	}
	return false
}

func isCommentLine(line string) bool {
	l := strings.TrimSpace(line)
	for _, lead := range commentLeaders {
		if strings.HasPrefix(l, lead) {
			return true
		}
	}
	return strings.HasPrefix(l, "*")
}
