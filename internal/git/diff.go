package git

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/thiagokokada/stashtree/internal/diff"
	"github.com/thiagokokada/stashtree/internal/stash"
)

// DiffSourceError reports that the diff of a stash could not be produced.
type DiffSourceError struct {
	Record stash.Record
	Err    error
}

func (e *DiffSourceError) Error() string {
	return fmt.Sprintf("diff of %s unavailable: %v", e.Record.Ref(), e.Err)
}

func (e *DiffSourceError) Unwrap() error { return e.Err }

// DiffResult is the outcome for one stash. Exactly one of Document and Err is
// meaningful; a failed stash has a nil Document.
type DiffResult struct {
	Entry    stash.Entry
	Document diff.Document
	Err      error
}

// StashDiff reconstructs the changes a stash records on top of its base
// commit.
func (s *Service) StashDiff(e stash.Entry) (diff.Document, error) {
	src, err := s.backend.DiffEvents(e.Base.Hash, e.Hash)
	if err != nil {
		return nil, &DiffSourceError{Record: e.Record, Err: err}
	}
	doc, buildErr := diff.Build(src)
	closeErr := src.Close()
	if buildErr != nil {
		return nil, &DiffSourceError{Record: e.Record, Err: buildErr}
	}
	if closeErr != nil {
		return nil, &DiffSourceError{Record: e.Record, Err: closeErr}
	}
	return doc, nil
}

// StashDiffs computes the diff of every entry using up to jobs workers
// (runtime.NumCPU when jobs <= 0). Per-stash failures are reported in the
// results; the returned error is only set when ctx is done.
func (s *Service) StashDiffs(ctx context.Context, entries []stash.Entry, jobs int) ([]DiffResult, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	results := make([]DiffResult, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := s.StashDiff(e)
			results[i] = DiffResult{Entry: e, Document: doc, Err: err}
			if err != nil {
				slog.Debug("stash diff failed", slog.String("stash", e.Ref()), slog.Any("error", err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
