package scanner

import (
	"context"
)

// feed hands listed paths to the workers until the list is exhausted or the
// scan is cancelled.
func feed(ctx context.Context, paths []string, jobs chan<- string) {
	defer close(jobs)

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return
		case jobs <- path:
		}
	}
}
