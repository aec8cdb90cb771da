package scanner

import (
	"context"
	"sync"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// outcome is what every per-artifact task hands back, success or not.
type outcome struct {
	result models.ArtifactResult
	err    *models.ArtifactError
}

func (o outcome) fold() models.ArtifactResult {
	r := o.result
	if o.err != nil {
		r.Error = o.err
		r.Findings = nil
	}
	return r
}

func (s *Scanner) scanAll(ctx context.Context, p *pipeline, paths []string) []models.ArtifactResult {
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string, workers*4) // Buffer relative to workers
	results := make(chan outcome, workers*4)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go s.worker(ctx, p, jobs, results, &wg)
	}

	go feed(ctx, paths, jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	return collect(ctx, paths, results)
}

func (s *Scanner) worker(ctx context.Context, p *pipeline, jobs <-chan string, results chan<- outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for path := range jobs {
		if err := ctx.Err(); err != nil {
			results <- cancelled(path, "", err)
			continue
		}
		results <- p.scan(ctx, path)
	}
}

func cancelled(path, stage string, err error) outcome {
	return outcome{
		result: models.ArtifactResult{FilePath: path},
		err:    models.NewArtifactError(path, models.ErrKindCancelled, stage, err),
	}
}
