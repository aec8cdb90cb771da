package rules

import (
	"errors"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// Registry is the immutable set of rules used by one scan. All methods are
// safe for concurrent use.
type Registry struct {
	rules []PatternRule
	byID  map[string]int
}

// Load merges the defaults with every source in order; a later rule with the
// same id overrides an earlier one. Rules that fail validation are skipped
// and reported through the returned error, which is then non-nil alongside a
// usable Registry. A source that cannot be read at all returns a nil Registry.
func Load(defaults []PatternRule, sources ...Source) (*Registry, error) {
	merged := make(map[string]PatternRule)
	var skipped []error

	add := func(r PatternRule, origin string) {
		fr, err := r.finalize(origin)
		if err != nil {
			le := &RuleLoadError{Source: origin, RuleID: r.ID, Err: err}
			log.Warnf("(rules) skipping %s", le)
			skipped = append(skipped, le)
			return
		}
		if prev, ok := merged[fr.ID]; ok {
			log.Warnf("(rules) rule %q from %s overrides the one from %s", fr.ID, fr.Origin, prev.Origin)
		}
		merged[fr.ID] = fr
	}

	for _, r := range defaults {
		add(r, originBuiltin)
	}
	for _, src := range sources {
		rs, errs, err := src.Rules()
		if err != nil {
			var le *RuleLoadError
			if !errors.As(err, &le) {
				err = &RuleLoadError{Source: src.Name(), Fatal: true, Err: err}
			}
			return nil, err
		}
		for _, le := range errs {
			log.Warnf("(rules) skipping %s", le)
			skipped = append(skipped, le)
		}
		for _, r := range rs {
			add(r, src.Name())
		}
	}

	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	reg := &Registry{
		rules: make([]PatternRule, 0, len(ids)),
		byID:  make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		reg.rules = append(reg.rules, merged[id])
		reg.byID[id] = i
	}
	log.Debugf("(rules) registry loaded with %d rules", len(reg.rules))
	return reg, errors.Join(skipped...)
}

// New builds a registry from the given rules only.
func New(rules ...PatternRule) (*Registry, error) {
	return Load(rules)
}

// AllRules returns every rule sorted by id.
func (r *Registry) AllRules() []PatternRule {
	return append([]PatternRule(nil), r.rules...)
}

// RulesForCategory returns the rules of one category sorted by id.
func (r *Registry) RulesForCategory(c models.Category) []PatternRule {
	var out []PatternRule
	for _, rule := range r.rules {
		if rule.Category == c {
			out = append(out, rule)
		}
	}
	return out
}

func (r *Registry) Rule(id string) (PatternRule, bool) {
	i, ok := r.byID[id]
	if !ok {
		return PatternRule{}, false
	}
	return r.rules[i], true
}

func (r *Registry) Len() int { return len(r.rules) }
