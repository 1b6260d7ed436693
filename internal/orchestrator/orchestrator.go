// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator fans a query out to every configured source adapter
// concurrently and aggregates raw results with per-source status. Failures
// are isolated: a source timing out or erroring never disturbs its siblings,
// and the fan-out always waits for every source to settle before returning.
// Implements: prd101-federation (R1-R5);
//
//	docs/ARCHITECTURE § Orchestrator.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/medsearch/internal/source"
	"github.com/pdiddy/medsearch/pkg/types"
)

// Options bounds one fan-out.
type Options struct {
	// PerSourceLimit caps results requested from each adapter.
	PerSourceLimit int

	// MaxConcurrent is the global ceiling on simultaneous in-flight adapter
	// calls, independent of adapter count.
	MaxConcurrent int64

	// PerSourceTimeout bounds each adapter call. Zero means no per-source
	// timeout.
	PerSourceTimeout time.Duration
}

// FanOut queries all adapters concurrently and returns their raw records
// keyed by source name, plus a status entry per source. It waits for every
// adapter to settle; "all sources failed" is a normal return with empty
// results, not an error.
//
// The only error FanOut itself returns is cancellation of ctx, in which
// case partially collected results are discarded.
func FanOut(ctx context.Context, query string, adapters []source.Adapter, opts Options) (map[string][]types.RawRecord, map[string]types.SourceStatus, error) {
	raw := make(map[string][]types.RawRecord, len(adapters))
	status := make(map[string]types.SourceStatus, len(adapters))
	if len(adapters) == 0 {
		return raw, status, nil
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = int64(len(adapters))
	}
	sem := semaphore.NewWeighted(maxConcurrent)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, a := range adapters {
		wg.Add(1)
		go func(a source.Adapter) {
			defer wg.Done()

			// The semaphore wait counts toward the source's elapsed time:
			// a saturated pool is part of how long the source took.
			start := time.Now()

			if err := sem.Acquire(ctx, 1); err != nil {
				// Whole-query cancellation; settle with an error status so
				// the status map stays complete.
				recordStatus(&mu, status, a.Name(), types.SourceStatus{
					State:   types.SourceError,
					Elapsed: time.Since(start),
					Err:     err.Error(),
				})
				return
			}
			defer sem.Release(1)

			callCtx := ctx
			cancel := context.CancelFunc(func() {})
			if opts.PerSourceTimeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, opts.PerSourceTimeout)
			}
			records, err := a.Search(callCtx, query, opts.PerSourceLimit)
			cancel()

			elapsed := time.Since(start)
			switch {
			case err == nil:
				mu.Lock()
				raw[a.Name()] = records
				status[a.Name()] = types.SourceStatus{
					State:    types.SourceOK,
					Elapsed:  elapsed,
					RawCount: len(records),
				}
				mu.Unlock()
				slog.Debug("source_ok",
					slog.String("source", a.Name()),
					slog.Int("records", len(records)),
					slog.Duration("elapsed", elapsed))
			case isTimeout(err) && ctx.Err() == nil:
				recordStatus(&mu, status, a.Name(), types.SourceStatus{
					State:   types.SourceTimeout,
					Elapsed: elapsed,
					Err:     err.Error(),
				})
				slog.Debug("source_timeout", slog.String("source", a.Name()), slog.Duration("elapsed", elapsed))
			default:
				recordStatus(&mu, status, a.Name(), types.SourceStatus{
					State:   types.SourceError,
					Elapsed: elapsed,
					Err:     err.Error(),
				})
				slog.Debug("source_error", slog.String("source", a.Name()), slog.String("error", err.Error()))
			}
		}(a)
	}

	wg.Wait()

	// Whole-query cancellation discards partial results rather than
	// returning a mixed view.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return raw, status, nil
}

func recordStatus(mu *sync.Mutex, status map[string]types.SourceStatus, name string, st types.SourceStatus) {
	mu.Lock()
	status[name] = st
	mu.Unlock()
}

// isTimeout reports whether an adapter error was caused by the per-source
// deadline. Adapters wrap context errors, so unwrap-aware matching is
// required.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
