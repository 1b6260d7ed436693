// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes one search: fan out to the providers, normalize
// the raw records, merge duplicates, then score and sort. Each stage's
// diagnostics are collected into a single SearchStats so a caller can see
// which sources answered, how many records merged, and whether the score
// cache was warm.
// Implements: prd100-pipeline (R1-R4);
//
//	docs/ARCHITECTURE § Pipeline.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/medsearch/internal/dedup"
	"github.com/pdiddy/medsearch/internal/normalize"
	"github.com/pdiddy/medsearch/internal/orchestrator"
	"github.com/pdiddy/medsearch/internal/rerank"
	"github.com/pdiddy/medsearch/internal/source"
	"github.com/pdiddy/medsearch/pkg/types"
)

// ErrEmptyQuery is returned when the query is empty or whitespace.
var ErrEmptyQuery = errors.New("query must not be empty")

// Options tunes a single SearchAndRank call. The zero value means: config-default
// result cap, config-default strategy, reranking on, no sources excluded.
type Options struct {
	// MaxResults caps the final ranked list. Zero uses the config default.
	MaxResults int

	// SortBy overrides the configured sort strategy. Empty uses the config
	// default.
	SortBy types.Strategy

	// NoRerank skips scoring entirely; records come back in merge order with
	// zero scores.
	NoRerank bool

	// Exclude names providers to skip for this call.
	Exclude []string
}

// Result is one completed search: the final record list plus per-stage
// diagnostics.
type Result struct {
	Records []types.Record    `json:"records" yaml:"records"`
	Stats   types.SearchStats `json:"stats" yaml:"stats"`
}

// Pipeline wires the stages together. Construct once with New and share;
// SearchAndRank is safe for concurrent use.
type Pipeline struct {
	cfg      types.Config
	adapters []source.Adapter
	engine   *rerank.Engine
}

// New returns a Pipeline over the given adapters and rerank engine. The
// config must already be validated.
func New(cfg types.Config, adapters []source.Adapter, engine *rerank.Engine) *Pipeline {
	return &Pipeline{cfg: cfg, adapters: adapters, engine: engine}
}

// SearchAndRank runs the full pipeline for query. Provider failures are
// absorbed into the stats; the only errors are an empty query and
// cancellation of ctx. All providers failing yields an empty result, not an
// error.
func (p *Pipeline) SearchAndRank(ctx context.Context, query string, opts Options) (*Result, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	adapters := p.selectAdapters(opts.Exclude)
	raw, statuses, err := orchestrator.FanOut(ctx, query, adapters, orchestrator.Options{
		MaxConcurrent:    p.cfg.MaxConcurrent,
		PerSourceTimeout: p.cfg.PerSourceTimeout,
	})
	if err != nil {
		return nil, err
	}

	stats := types.SearchStats{Sources: statuses}

	// Normalize in fixed provider order so downstream insertion-order rules
	// (representative election, stable sorting) are deterministic.
	var records []types.Record
	for _, name := range types.SourceNames {
		for _, rr := range raw[name] {
			rec, ok := normalize.Normalize(rr, name)
			if !ok {
				stats.Invalid++
				continue
			}
			records = append(records, rec)
		}
	}

	merged, dedupStats := dedup.Deduplicate(records)
	stats.Dedup = dedupStats

	if !opts.NoRerank {
		strategy := opts.SortBy
		if strategy == "" {
			strategy = p.cfg.Strategy
		}
		merged, stats.Rerank = p.engine.Rank(merged, query, strategy)
	}

	limit := opts.MaxResults
	if limit <= 0 {
		limit = p.cfg.MaxResults
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}

	stats.Elapsed = time.Since(start)
	slog.Info("search_complete",
		slog.String("query", query),
		slog.Int("sources_ok", stats.SucceededSources()),
		slog.Int("raw", stats.Dedup.Input),
		slog.Int("merged", stats.Dedup.Output),
		slog.Int("returned", len(merged)),
		slog.Bool("cache_hit", stats.Rerank.CacheHit),
		slog.Duration("elapsed", stats.Elapsed))

	return &Result{Records: merged, Stats: stats}, nil
}

// selectAdapters filters out excluded providers.
func (p *Pipeline) selectAdapters(exclude []string) []source.Adapter {
	if len(exclude) == 0 {
		return p.adapters
	}
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}
	var kept []source.Adapter
	for _, a := range p.adapters {
		if !skip[a.Name()] {
			kept = append(kept, a)
		}
	}
	return kept
}
