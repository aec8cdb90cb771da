package scanner

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/digimosa/gdpr-scan/internal/models"
)

const progressEvery = 1000

// collect is the single point where worker outcomes are folded. Listed
// paths that never produced an outcome were cut off by cancellation.
func collect(ctx context.Context, paths []string, results <-chan outcome) []models.ArtifactResult {
	byPath := make(map[string]models.ArtifactResult, len(paths))
	count := 0
	start := time.Now()

	for o := range results {
		count++
		r := o.fold()
		byPath[r.FilePath] = r

		switch {
		case r.Error != nil:
			log.Debugf("(scanner) %s", r.Error)
		case len(r.Findings) > 0:
			log.Debugf("(scanner) [FOUND] %s: %d findings", r.FilePath, len(r.Findings))
			for _, f := range r.Findings {
				log.Tracef("(scanner)   - %s line %d (confidence %.2f, %s)", f.Type, f.Line, f.Confidence, f.RiskLevel)
			}
		}

		if count%progressEvery == 0 {
			log.Infof("(scanner) processed %d artifacts (%.2f/sec)", count, float64(count)/time.Since(start).Seconds())
		}
	}

	out := make([]models.ArtifactResult, 0, len(paths))
	for _, path := range paths {
		r, ok := byPath[path]
		if !ok {
			r = cancelled(path, "", ctx.Err()).fold()
		}
		out = append(out, r)
	}
	return out
}
