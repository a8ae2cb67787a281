// Package batch parses several callgrind files concurrently, one
// independent parse session per file.
package batch

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/cgprof/internal/callgrind"
)

// FileResult holds the outcome of parsing one path.
type FileResult struct {
	Path   string
	Result *callgrind.Result
	Err    error
}

// FanOut parses files in parallel and collects their results. If any parse
// fails, the derived context is canceled so that remaining parses stop at
// their next line.
type FanOut struct {
	limit      int
	logger     zerolog.Logger
	onProgress func(ProgressEvent)
}

// NewFanOut creates a FanOut running at most limit parses at once
// (limit <= 0 means unbounded). onProgress is called synchronously from
// each goroutine; it may be nil.
func NewFanOut(limit int, logger zerolog.Logger, onProgress func(ProgressEvent)) *FanOut {
	return &FanOut{
		limit:      limit,
		logger:     logger,
		onProgress: onProgress,
	}
}

// Run parses every path, emitting progress events for each. Results are
// returned in input order regardless of whether an error occurred. The
// returned error is the first parse failure.
func (f *FanOut) Run(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}

	for _, path := range paths {
		f.emit(ProgressEvent{Path: path, Status: ProgressPending})
	}

	for i, path := range paths {
		results[i].Path = path
		g.Go(func() error {
			f.emit(ProgressEvent{Path: path, Status: ProgressWorking})

			res, err := callgrind.NewParser(path, callgrind.WithLogger(f.logger)).Parse(gctx)
			if err != nil {
				results[i].Err = err
				f.emit(ProgressEvent{
					Path:    path,
					Status:  ProgressFailed,
					Message: err.Error(),
				})
				return err
			}

			results[i].Result = res
			f.emit(ProgressEvent{Path: path, Status: ProgressComplete})
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// emit sends a progress event if a callback is registered.
func (f *FanOut) emit(ev ProgressEvent) {
	if f.onProgress != nil {
		f.onProgress(ev)
	}
}
