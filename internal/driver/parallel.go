package driver

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/pipeline"
)

// FlattenAll runs every request, at most jobs at a time (GOMAXPROCS when
// jobs <= 0). Each bundle works on its own builder. Results come back in
// request order; a failing bundle does not stop the others, and the
// returned error joins every bundle error. Bundles skipped after ctx is
// cancelled leave a nil result.
func FlattenAll(ctx context.Context, reqs []BundleRequest, jobs int) ([]*BundleResult, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for _, req := range reqs {
		pipeline.Emit(req.Sink, pipeline.Event{Bundle: req.Name, Stage: pipeline.StageLoad, Status: pipeline.StatusQueued})
	}

	// indices are unique per goroutine, no mutex needed
	results := make([]*BundleResult, len(reqs))
	errs := make([]error, len(reqs))

	var g errgroup.Group
	g.SetLimit(min(jobs, len(reqs)))
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				pipeline.Emit(req.Sink, pipeline.Event{Bundle: req.Name, Stage: pipeline.StageLoad, Status: pipeline.StatusError, Err: err})
				return nil
			}
			results[i], errs[i] = FlattenBundle(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}
