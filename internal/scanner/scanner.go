// Package scanner orchestrates a scan: it feeds artifacts from a source to a
// pool of workers running the detection pipeline and folds their results
// into one scored envelope.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/digimosa/gdpr-scan/internal/config"
	"github.com/digimosa/gdpr-scan/internal/enrich"
	"github.com/digimosa/gdpr-scan/internal/extractor"
	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
	"github.com/digimosa/gdpr-scan/internal/scoring"
	"github.com/digimosa/gdpr-scan/internal/source"
	"github.com/digimosa/gdpr-scan/internal/suppress"
	"github.com/digimosa/gdpr-scan/internal/validators"
)

type State string

const (
	StatePending     State = "pending"
	StateScanning    State = "scanning"
	StateAggregating State = "aggregating"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Scanner handles the orchestration of artifact scanning
type Scanner struct {
	cfg   *config.Config
	state atomic.Value

	reg      *rules.Registry
	baseline *suppress.Baseline
	ignore   *suppress.IgnoreRules
	now      func() time.Time
}

type Option func(*Scanner)

// WithRegistry injects a prepared registry instead of loading one from the
// configured rule sources.
func WithRegistry(reg *rules.Registry) Option {
	return func(s *Scanner) { s.reg = reg }
}

func WithBaseline(b *suppress.Baseline) Option {
	return func(s *Scanner) { s.baseline = b }
}

func WithIgnoreRules(ig *suppress.IgnoreRules) Option {
	return func(s *Scanner) { s.ignore = ig }
}

// WithClock overrides the time source used for timestamps and staleness.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

func New(cfg *config.Config, opts ...Option) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.setState(StatePending)
	return s
}

func (s *Scanner) State() State {
	return s.state.Load().(State)
}

// Registry returns the rules used by the last run, or the injected registry.
func (s *Scanner) Registry() *rules.Registry {
	return s.reg
}

func (s *Scanner) setState(st State) {
	s.state.Store(st)
	log.Debugf("(scanner) state %s", st)
}

// Run scans every artifact listed by src. Per-artifact failures are
// recorded on the result; only registry, listing and aggregation failures
// fail the scan. When ctx is cancelled the artifacts not yet scanned are
// reported as cancelled and the result is marked partial.
func (s *Scanner) Run(ctx context.Context, src source.Source) (*models.ScanResult, error) {
	s.setState(StateScanning)

	p, err := s.prepare(src)
	if err != nil {
		s.setState(StateFailed)
		return nil, err
	}

	paths, err := src.List(ctx)
	if err != nil {
		s.setState(StateFailed)
		return nil, fmt.Errorf("failed to list artifacts from %s: %w", src.Name(), err)
	}
	log.Infof("(scanner) scanning %d artifacts from %s with %d workers", len(paths), src.Name(), s.cfg.Workers)

	start := time.Now()
	results := s.scanAll(ctx, p, paths)
	log.Infof("(scanner) scanned %d artifacts in %s", len(results), time.Since(start).Round(time.Millisecond))

	s.setState(StateAggregating)
	res, err := scoring.Aggregate(results, s.weights(p.reg))
	if err != nil {
		s.setState(StateFailed)
		return nil, err
	}
	res.ScanID = uuid.NewString()
	res.Timestamp = s.now().UTC()
	res.Region = p.region.Code
	res.Scope = src.Name()

	if res.Partial {
		log.Warnf("(scanner) scan %s was interrupted; result is partial", res.ScanID)
	}
	s.setState(StateCompleted)
	return res, nil
}

// prepare loads everything that is shared read-only by the workers.
func (s *Scanner) prepare(src source.Source) (*pipeline, error) {
	reg := s.reg
	if reg == nil {
		var err error
		reg, err = loadRegistry(s.cfg.Rules)
		if reg == nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
		if err != nil {
			log.Warnf("(scanner) some custom rules were skipped: %v", err)
		}
		s.reg = reg
	}

	ignore := s.ignore
	if ignore == nil && s.cfg.IgnoreFile != "" {
		var err error
		if ignore, err = suppress.LoadIgnoreFile(s.cfg.IgnoreFile); err != nil {
			return nil, err
		}
	}
	if s.cfg.WhitelistPath != "" {
		al, err := suppress.NewAllowlist(s.cfg.WhitelistPath)
		if err != nil {
			log.Warnf("(scanner) could not load whitelist %s: %v", s.cfg.WhitelistPath, err)
		} else if al.Len() > 0 {
			ignore = ignore.WithAllowlist(al)
		}
	}

	baseline := s.baseline
	if baseline == nil && s.cfg.BaselineFile != "" {
		b, err := suppress.LoadBaseline(s.cfg.BaselineFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Warnf("(scanner) baseline %s does not exist yet; scanning without it", s.cfg.BaselineFile)
		case err != nil:
			return nil, err
		default:
			baseline = b
		}
	}

	if !enrich.KnownRegion(s.cfg.Region) {
		log.Warnf("(scanner) unknown region %q, falling back to %s", s.cfg.Region, enrich.DefaultRegion)
	}

	var ref time.Time
	if s.cfg.Scoring.StorageLimitDays > 0 {
		ref = s.now()
	}

	return &pipeline{
		src: src,
		reg: reg,
		extractor: extractor.New(reg, extractor.Options{
			ContextWindow: s.cfg.ContextWindow,
			MaxBytes:      s.cfg.MaxArtifactBytes,
		}),
		chain: validators.DefaultChain(s.cfg.MinConfidence),
		enricher: enrich.New(reg, enrich.Options{
			Redact:           s.cfg.Redact,
			ReferenceTime:    ref,
			StorageLimitDays: s.cfg.Scoring.StorageLimitDays,
		}),
		region:   enrich.Profile(s.cfg.Region),
		baseline: baseline,
		ignore:   ignore,
		timeout:  s.cfg.ArtifactTimeout,
		retry:    s.cfg.Retry,
	}, nil
}

func loadRegistry(rc config.RulesConfig) (*rules.Registry, error) {
	var sources []rules.Source
	if rc.Gitleaks {
		sources = append(sources, rules.GitleaksSource{ConfigPath: rc.GitleaksConfig})
	}
	for _, f := range rc.Files {
		sources = append(sources, rules.FileSource{Path: f})
	}
	if len(rc.Literals) > 0 {
		sources = append(sources, rules.LiteralSource{Values: rc.Literals})
	}
	return rules.Load(rules.Defaults(), sources...)
}

func (s *Scanner) weights(reg *rules.Registry) scoring.ScoringConfig {
	w := s.cfg.Scoring.ScoringConfig
	w.RulePrinciples = make(map[string][]string)
	for _, r := range reg.AllRules() {
		if len(r.Principles) > 0 {
			w.RulePrinciples[r.ID] = r.Principles
		}
	}
	return w
}
