package rules

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// GitleaksSource imports the gitleaks provider signature catalogue as secret
// rules. With an empty ConfigPath the bundled default config is used.
type GitleaksSource struct {
	ConfigPath string
}

func (s GitleaksSource) Name() string {
	if s.ConfigPath == "" {
		return "gitleaks:default"
	}
	return "gitleaks:" + s.ConfigPath
}

func (s GitleaksSource) load() (config.Config, error) {
	if s.ConfigPath == "" {
		log.Debugf("(rules) using default gitleaks configuration")
		detector, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return config.Config{}, fmt.Errorf("error creating default gitleaks detector: %w", err)
		}
		return detector.Config, nil
	}

	log.Debugf("(rules) loading gitleaks configuration from: %s", s.ConfigPath)
	v := viper.New()
	v.SetConfigFile(s.ConfigPath)
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return config.Config{}, fmt.Errorf("gitleaks config file not found at %s: %w", s.ConfigPath, err)
		}
		return config.Config{}, fmt.Errorf("error reading gitleaks config file %s: %w", s.ConfigPath, err)
	}
	var viperConfig config.ViperConfig
	if err := v.Unmarshal(&viperConfig); err != nil {
		return config.Config{}, fmt.Errorf("error unmarshaling gitleaks config from %s: %w", s.ConfigPath, err)
	}
	cfg, err := viperConfig.Translate()
	if err != nil {
		return config.Config{}, fmt.Errorf("error translating gitleaks config from %s: %w", s.ConfigPath, err)
	}
	return cfg, nil
}

func (s GitleaksSource) Rules() ([]PatternRule, []*RuleLoadError, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, nil, &RuleLoadError{Source: s.Name(), Fatal: true, Err: err}
	}
	if len(cfg.Rules) == 0 {
		log.Warnf("(rules) gitleaks config %s contains no rules", s.Name())
		return nil, nil, nil
	}

	ids := make([]string, 0, len(cfg.Rules))
	for id := range cfg.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var (
		out  []PatternRule
		errs []*RuleLoadError
	)
	for i, id := range ids {
		gr := cfg.Rules[id]
		if gr.Regex == nil {
			// path-only rules have nothing to match inside content
			continue
		}
		pattern := gr.Regex.String()
		re, err := regexp.Compile(pattern)
		if err != nil {
			errs = append(errs, &RuleLoadError{Source: s.Name(), RuleID: "gitleaks_" + id, Index: i, Err: err})
			continue
		}
		group := gr.SecretGroup
		if group == 0 && re.NumSubexp() > 0 {
			group = 1
		}
		out = append(out, PatternRule{
			ID:             "gitleaks_" + id,
			Category:       models.CategorySecret,
			Matcher:        Regex(pattern),
			ConfidenceBase: 0.8,
			RiskLevel:      models.RiskHigh,
			Type:           strings.ToUpper(strings.ReplaceAll(id, "-", "_")),
			Description:    gr.Description,
			SecretGroup:    group,
			MinEntropy:     gr.Entropy,
			Keywords:       gr.Keywords,
			RegionTags:     []string{TagGDPRArt32},
			Origin:         s.Name(),
			Allows:         importAllows("gitleaks_"+id, append(slices.Clone(gr.Allowlists), cfg.Allowlists...)),
		})
	}
	log.Debugf("(rules) imported %d gitleaks rules", len(out))
	return out, errs, nil
}

// importAllows keeps the stopword and regex criteria of a rule's own and
// the config-wide gitleaks allowlists. Path and commit criteria have no equivalent at validation
// time, so an AND allowlist relying on them is skipped rather than widened.
func importAllows(ruleID string, lists []*config.Allowlist) []Allow {
	var out []Allow
	for _, al := range lists {
		if al == nil {
			continue
		}
		matchAll := al.MatchCondition == config.AllowlistMatchAnd
		if matchAll && (len(al.Paths) > 0 || len(al.Commits) > 0) {
			log.Debugf("(rules) %s: skipping allowlist %q scoped to paths or commits", ruleID, al.Description)
			continue
		}
		a := Allow{
			StopWords: al.StopWords,
			Target:    al.RegexTarget,
			MatchAll:  matchAll,
		}
		for _, re := range al.Regexes {
			compiled, err := regexp.Compile(re.String())
			if err != nil {
				log.Debugf("(rules) %s: dropping allowlist regex %q: %v", ruleID, re.String(), err)
				continue
			}
			a.Regexes = append(a.Regexes, compiled)
		}
		if len(a.StopWords) == 0 && len(a.Regexes) == 0 {
			continue
		}
		out = append(out, a)
	}
	return out
}
