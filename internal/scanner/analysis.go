package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/digimosa/gdpr-scan/internal/config"
	"github.com/digimosa/gdpr-scan/internal/enrich"
	"github.com/digimosa/gdpr-scan/internal/extractor"
	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
	"github.com/digimosa/gdpr-scan/internal/source"
	"github.com/digimosa/gdpr-scan/internal/suppress"
	"github.com/digimosa/gdpr-scan/internal/validators"
)

// Per-artifact stages, recorded on artifact errors.
const (
	StageFetching   = "fetching"
	StageExtracting = "extracting"
	StageValidating = "validating"
	StageReducing   = "reducing"
	StageEnriching  = "enriching"
)

// pipeline is the read-only state shared by all workers of one scan.
type pipeline struct {
	src       source.Source
	reg       *rules.Registry
	extractor *extractor.Extractor
	chain     *validators.Chain
	enricher  *enrich.Enricher
	region    enrich.RegionProfile
	baseline  *suppress.Baseline
	ignore    *suppress.IgnoreRules
	timeout   time.Duration
	retry     config.RetryConfig
}

// scan runs one artifact under its own deadline. A task that overruns is
// abandoned and reported as a timeout; its siblings are unaffected.
func (p *pipeline) scan(ctx context.Context, path string) outcome {
	start := time.Now()
	actx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var stage atomic.Value
	stage.Store("")

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{
					result: models.ArtifactResult{FilePath: path},
					err:    models.NewArtifactError(path, models.ErrKindInternal, stage.Load().(string), fmt.Errorf("panic: %v", r)),
				}
			}
		}()
		res, err := p.scanArtifact(actx, path, &stage)
		done <- outcome{result: res, err: err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-actx.Done():
		select {
		case o = <-done:
		default:
			o = outcome{
				result: models.ArtifactResult{FilePath: path},
				err:    models.NewArtifactError(path, models.ErrKindTimeout, stage.Load().(string), actx.Err()),
			}
		}
	}

	if o.err != nil && (errors.Is(o.err, context.Canceled) || errors.Is(o.err, context.DeadlineExceeded)) {
		switch {
		case ctx.Err() != nil:
			o.err.Kind = models.ErrKindCancelled
		case errors.Is(actx.Err(), context.DeadlineExceeded):
			o.err.Kind = models.ErrKindTimeout
			o.err.Msg = fmt.Sprintf("exceeded %s", p.timeout)
		}
	}
	o.result.FilePath = path
	o.result.ScanDuration = time.Since(start)
	log.Debugf("(scanner) %s processed in %s", path, o.result.ScanDuration)
	return o
}

func (p *pipeline) scanArtifact(ctx context.Context, path string, stage *atomic.Value) (models.ArtifactResult, *models.ArtifactError) {
	res := models.ArtifactResult{FilePath: path}
	fail := func(kind models.ErrorKind, err error) (models.ArtifactResult, *models.ArtifactError) {
		return res, models.NewArtifactError(path, kind, stage.Load().(string), err)
	}

	// Tier 1: size gate before anything is read.
	if sz, ok := p.src.(source.Sizer); ok {
		if size, err := sz.Size(ctx, path); err == nil {
			if err := p.extractor.CheckSize(path, size); err != nil {
				return fail(models.ErrKindTooLarge, err)
			}
		}
	}

	stage.Store(StageFetching)
	a, err := p.fetch(ctx, path)
	if err != nil {
		return fail(models.ErrKindFetch, err)
	}
	if err := p.extractor.CheckSize(path, a.Size); err != nil {
		return fail(models.ErrKindTooLarge, err)
	}

	// Tier 2: decode and match.
	stage.Store(StageExtracting)
	text, err := p.extractor.Decode(path, a.Content)
	if err != nil {
		if errors.Is(err, models.ErrSkippedTooLarge) {
			return fail(models.ErrKindTooLarge, err)
		}
		return fail(models.ErrKindDecode, err)
	}
	ex, err := p.extractor.Extract(ctx, path, text)
	if err != nil {
		return fail(models.ErrKindInternal, err)
	}

	// Tier 3: validate each candidate against its rule.
	stage.Store(StageValidating)
	validated := make([]models.ValidatedCandidate, 0, len(ex.Candidates))
	rejected := 0
	for _, c := range ex.Candidates {
		r, ok := p.reg.Rule(c.RuleID)
		if !ok {
			return fail(models.ErrKindInternal, fmt.Errorf("candidate references unknown rule %q", c.RuleID))
		}
		out := p.chain.Validate(c, r)
		if out.Rejected() {
			rejected++
			log.Tracef("(scanner) %s:%d %s %s", path, c.Line, c.RuleID, out)
			continue
		}
		validated = append(validated, models.ValidatedCandidate{
			RawCandidate: c,
			Confidence:   out.Confidence,
			Escalation:   out.Risk,
			Specificity:  r.Specificity(),
		})
	}

	stage.Store(StageReducing)
	red := suppress.Reduce(suppress.Input{Path: path, Candidates: validated, Lines: ex.Lines}, p.baseline, p.ignore)

	stage.Store(StageEnriching)
	en := p.enricher.ForArtifact(a).WithSpans(ex.Candidates, ex.Lines)
	findings := make([]models.Finding, 0, len(red.Kept))
	for _, v := range red.Kept {
		f, err := en.Enrich(v, p.region)
		if err != nil {
			return fail(models.ErrKindInternal, err)
		}
		findings = append(findings, f)
	}

	log.Debugf("(scanner) %s: %d candidates, %d rejected, %d suppressed, %d merged, %d findings",
		path, len(ex.Candidates), rejected, red.Audit.Count, red.Merged, len(findings))

	res.Findings = findings
	res.Suppression = red.Audit
	res.Merged = red.Merged
	return res, nil
}

// fetch retries transient source failures with exponential backoff. Missing
// artifacts and cancellation are not retried.
func (p *pipeline) fetch(ctx context.Context, path string) (models.Artifact, error) {
	b := backoff.NewExponentialBackOff()
	if p.retry.InitialInterval > 0 {
		b.InitialInterval = p.retry.InitialInterval
	}
	attempts := p.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	try := 0
	return backoff.RetryWithData(func() (models.Artifact, error) {
		try++
		a, err := p.src.Fetch(ctx, path)
		if err == nil {
			return a, nil
		}
		if errors.Is(err, source.ErrNotFound) || ctx.Err() != nil {
			return a, backoff.Permanent(err)
		}
		log.Debugf("(scanner) fetch %s failed (attempt %d/%d): %v", path, try, attempts, err)
		return a, err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
}
