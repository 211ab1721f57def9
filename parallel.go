package treelai

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// dispatch runs every planned job through the leaf translator. With a
// parallelism of one the jobs run in traversal order; otherwise at most
// w.parallel translator calls are in flight.
//
// Under FailFast the first failure cancels the remaining jobs and is
// returned as a *LeafError. Under Fallback failed jobs keep their original
// text and are marked failed. Cancellation of ctx always aborts.
func (w *Walker) dispatch(ctx context.Context, jobs []leafJob, protected []string, policy LeafErrorPolicy) error {
	if len(jobs) == 0 {
		return nil
	}

	if w.parallel <= 1 {
		for i := range jobs {
			if err := w.runJob(ctx, &jobs[i], protected, policy); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallel)
	for i := range jobs {
		job := &jobs[i]
		g.Go(func() error {
			return w.runJob(gctx, job, protected, policy)
		})
	}
	return g.Wait()
}

// runJob translates one leaf and writes the result into the job's own slot.
func (w *Walker) runJob(ctx context.Context, job *leafJob, protected []string, policy LeafErrorPolicy) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := w.leaf.TranslateLeaf(withLeafPath(ctx, job.path), job.tc, protected)
	if err == nil {
		job.slot.Value = out
		w.logger.DebugContext(ctx, "leaf translated",
			"path", job.path,
			"target_lang", job.tc.TargetLang,
		)
		return nil
	}

	// A cancelled caller is not a leaf failure.
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}

	if policy == Fallback {
		job.failed = true
		w.logger.WarnContext(ctx, "leaf translation failed, keeping original text",
			"path", job.path,
			"target_lang", job.tc.TargetLang,
			"error", err,
		)
		return nil
	}

	w.logger.ErrorContext(ctx, "leaf translation failed",
		"path", job.path,
		"target_lang", job.tc.TargetLang,
		"error", err,
	)
	return &LeafError{Path: job.path, Cause: err}
}
