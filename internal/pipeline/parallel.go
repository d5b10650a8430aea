package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"dysc/internal/trace"
)

// CompileAll compiles reqs with at most jobs units in flight (GOMAXPROCS
// when jobs <= 0). Units share no state, so one unit failing does not stop
// the others; the returned error joins every unit error. Results keep the
// order of reqs.
func CompileAll(ctx context.Context, reqs []*Request, jobs int, sink ProgressSink) ([]Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	ctx, span := trace.Start(ctx, trace.ScopeDriver, "compile.batch")
	span.WithExtra("units", strconv.Itoa(len(reqs))).WithExtra("jobs", strconv.Itoa(jobs))
	defer span.End("")

	names := make([]string, len(reqs))
	for i, req := range reqs {
		if req == nil {
			return nil, fmt.Errorf("missing compile request %d", i)
		}
		names[i] = req.Name
	}
	emitQueued(sink, names)

	results := make([]Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(reqs)))
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := *req
			if r.Progress == nil {
				r.Progress = sink
			}
			res, err := Compile(gctx, &r)
			res.Err = err
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
	return results, errors.Join(errs...)
}
