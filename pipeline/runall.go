package pipeline

import (
	"context"
	"net/url"

	"github.com/fwojciec/civet"
	"golang.org/x/sync/errgroup"
)

// defaultConcurrency bounds parallel sources in a batch run. Batches are
// analysis-heavy, so the default stays modest.
const defaultConcurrency = 4

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressEvent reports progress during a batch run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	Source    *civet.Source
	Report    *Report
	Err       error
}

// ProgressFunc is a callback for reporting batch progress. It is invoked
// from a single goroutine.
type ProgressFunc func(event ProgressEvent)

// SourceReport pairs a source with its run outcome. Err is set when the run
// aborted on a fault; otherwise Report is set, including quality failures.
type SourceReport struct {
	Source *civet.Source
	Report *Report
	Err    error
}

// RunAll runs the pipeline for every source with bounded concurrency and
// per-domain rate limiting. Sources are independent keys: one source's
// fault never aborts the others. Results come back in input order.
func (p *Pipeline) RunAll(ctx context.Context, sources []*civet.Source, progress ProgressFunc) []*SourceReport {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	total := len(sources)
	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	type indexed struct {
		position int
		report   *SourceReport
	}
	resultCh := make(chan indexed, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, source := range sources {
			g.Go(func() error {
				resultCh <- indexed{position: i, report: p.runOne(gctx, source)}
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	reports := make([]*SourceReport, total)
	completed := 0
	for res := range resultCh {
		completed++
		reports[res.position] = res.report

		if progress == nil {
			continue
		}
		event := ProgressEvent{
			Completed: completed,
			Total:     total,
			Source:    res.report.Source,
			Report:    res.report.Report,
			Err:       res.report.Err,
		}
		if res.report.Err != nil || !res.report.Report.Success {
			event.Type = ProgressFailed
		} else {
			event.Type = ProgressCompleted
		}
		progress(event)
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}
	return reports
}

// runOne rate-limits by host and runs a single source. Faults land in the
// SourceReport rather than propagating.
func (p *Pipeline) runOne(ctx context.Context, source *civet.Source) *SourceReport {
	sr := &SourceReport{Source: source}

	if p.RateLimiter != nil {
		u, err := url.Parse(source.URL)
		if err != nil {
			sr.Err = err
			return sr
		}
		if err := p.RateLimiter.Wait(ctx, u.Host); err != nil {
			sr.Err = err
			return sr
		}
	}

	sr.Report, sr.Err = p.Run(ctx, source, RunOptions{})
	return sr
}
