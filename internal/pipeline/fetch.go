package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitesync/internal/adapter"
	"git.home.luguber.info/inful/sitesync/internal/diag"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/record"
)

// sourceResult is one source's contribution, collected by a worker.
type sourceResult struct {
	records []record.Record
	diags   []diag.Diagnostic
	items   int
	skipped int
	failed  bool
}

// stageFetchSources fetches every configured source through a bounded
// worker pool. Each worker writes into its own slot, and the slots are
// merged in configuration order afterwards, so record order is stable
// regardless of worker count.
func (r *Runner) stageFetchSources(ctx context.Context, st *runState) error {
	if len(r.sources) == 0 {
		return nil
	}

	concurrency := r.cfg.Fetch.Workers
	if concurrency > len(r.sources) {
		concurrency = len(r.sources)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	r.recorder.SetFetchConcurrency(concurrency)

	results := make([]sourceResult, len(r.sources))
	tasks := make(chan int)
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for range concurrency {
		go func() {
			defer wg.Done()
			for idx := range tasks {
				if ctx.Err() != nil {
					return
				}
				src := r.sources[idx]
				start := time.Now()
				res := r.collectSource(ctx, src)
				results[idx] = res
				r.recorder.ObserveSourceFetch(src.Spec.Name, time.Since(start), !res.failed)
				r.recorder.AddSourceItems(src.Spec.Name, res.items)
			}
		}()
	}

dispatch:
	for idx := range r.sources {
		select {
		case <-ctx.Done():
			break dispatch
		case tasks <- idx:
		}
	}
	close(tasks)
	wg.Wait()

	if ctx.Err() != nil {
		return newCanceledStageError(StageFetch, ctx.Err())
	}

	// Merge in configuration order.
	for idx := range results {
		res := &results[idx]
		st.report.Add(res.diags...)
		st.records = append(st.records, res.records...)
		st.run.FetchedItems += res.items
		st.run.SkippedItems += res.skipped
		if res.failed {
			st.run.FailedSources++
			slog.Warn("Source unavailable",
				slog.String(logfields.Source, r.sources[idx].Spec.Name))
		}
	}
	st.run.Records = len(st.records)

	slog.Info("Sources fetched",
		slog.Int(logfields.Count, st.run.Records),
		slog.Int("skipped", st.run.SkippedItems),
		slog.Int("failed_sources", st.run.FailedSources))

	if st.run.FailedSources == len(r.sources) {
		return newWarnStageError(StageFetch, fmt.Errorf("all %d sources unavailable", len(r.sources)))
	}
	return nil
}

// collectSource drains one source under the per-source timeout. A
// source-scoped failure anywhere discards the partial contribution: a
// half-fetched source would read as mass deletions downstream.
func (r *Runner) collectSource(ctx context.Context, cs ConfiguredSource) sourceResult {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.SourceTimeout())
	defer cancel()

	var res sourceResult
	for _, locator := range cs.Spec.Locators {
		items, serr := cs.Source.Fetch(ctx, locator)
		if serr != nil {
			return degradedSource(cs, serr)
		}
		for item, ierr := range items {
			if ctx.Err() != nil {
				return degradedSource(cs, adapter.SourceUnavailable(cs.Spec.Name, locator, ctx.Err()))
			}
			if ierr != nil {
				if ierr.Unavailable() {
					return degradedSource(cs, ierr)
				}
				res.skipped++
				res.diags = append(res.diags, itemSkipped(cs, ierr))
				continue
			}
			res.items++
			r.normalizeItem(cs, item, &res)
		}
	}
	return res
}

// normalizeItem runs adapter normalization plus the shared normalizer on
// one raw item. Failures skip the item; warnings survive alongside the
// record.
func (r *Runner) normalizeItem(cs ConfiguredSource, item adapter.RawItem, res *sourceResult) {
	nres := cs.Source.Normalize(item)
	if nres.IsErr() {
		res.skipped++
		res.diags = append(res.diags, itemSkipped(cs, nres.UnwrapErr()))
		return
	}

	norm := nres.Unwrap()
	rec := r.normalizer.Apply(norm.Record, record.Provenance{
		Adapter:   cs.Spec.Name,
		Locator:   item.Locator,
		FetchedAt: time.Now().UTC(),
	})
	for _, w := range norm.Warnings {
		res.diags = append(res.diags, diag.Diagnostic{
			Severity: diag.SeverityWarning,
			Kind:     rec.Kind,
			Slug:     rec.Slug,
			Field:    w.Field,
			Rule:     diag.RuleUnknownField,
			Message:  w.Message,
			Source:   cs.Spec.Name,
		})
	}
	res.records = append(res.records, rec)
}

func degradedSource(cs ConfiguredSource, serr *adapter.SourceError) sourceResult {
	return sourceResult{
		failed: true,
		diags: []diag.Diagnostic{{
			Severity: diag.SeverityWarning,
			Rule:     diag.RuleSourceUnavailable,
			Message:  serr.Error(),
			Source:   cs.Spec.Name,
		}},
	}
}

func itemSkipped(cs ConfiguredSource, serr *adapter.SourceError) diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SeverityWarning,
		Rule:     diag.RuleItemSkipped,
		Message:  serr.Error(),
		Source:   cs.Spec.Name,
	}
}
