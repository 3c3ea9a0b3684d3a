package driver

import (
	"context"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"keel/internal/observ"
)

// FileResult pairs a declaration file with the outcome of its run.
type FileResult struct {
	Path   string
	Result *Result
	Err    error
}

// RunAll lays out several declaration files, each in its own type store.
// Files run concurrently, at most opts.Jobs at a time; every file then
// gets a single layout worker, so parallelism is spent across files
// rather than inside them. Per-file failures land in FileResult.Err;
// the returned error is only the context's.
func RunAll(ctx context.Context, paths []string, opts Options, sink ProgressSink) ([]FileResult, error) {
	files := append([]string(nil), paths...)
	sort.Strings(files)

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for _, p := range files {
		emit(sink, Event{File: p, Stage: StageLoad, Status: StatusQueued})
	}
	results := make([]FileResult, len(files))
	if len(files) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, p := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileOpts := opts
			fileOpts.Jobs = 1
			fileOpts.Observer = fileObserver(p, sink, opts.Observer)

			started := time.Now()
			res, err := Run(gctx, p, fileOpts)
			results[i] = FileResult{Path: p, Result: res, Err: err}

			status := StatusDone
			if err != nil || (res != nil && res.Bag.HasErrors()) {
				status = StatusError
			}
			emit(sink, Event{File: p, Stage: StageLayout, Status: status, Err: err, Elapsed: time.Since(started)})
			Logger().Debug("file laid out", zap.String("path", p), zap.String("status", string(status)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// fileObserver turns the phases of one file's run into progress events.
func fileObserver(path string, sink ProgressSink, next observ.Observer) observ.Observer {
	if sink == nil {
		return next
	}
	return func(e observ.Event) {
		if next != nil {
			next(e)
		}
		if e.Status != observ.PhaseStart {
			return
		}
		sink.OnEvent(Event{File: path, Stage: Stage(e.Name), Status: StatusWorking})
	}
}
