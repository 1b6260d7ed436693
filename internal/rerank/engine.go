// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rerank scores and orders canonical records against a query along
// four dimensions: relevance, authority, recency, and quality. Every record
// gets all four sub-scores plus their weighted combination; the strategy only
// decides which dimension orders the output. Scores for a (query, result set)
// pair are cached, so repeating a search is cheap.
// Implements: prd104-rerank (R1-R4);
//
//	docs/ARCHITECTURE § RerankEngine.
package rerank

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/medsearch/pkg/types"
)

// Engine scores and sorts records. Construct it once with New and share it;
// it is safe for concurrent use.
type Engine struct {
	weights types.Weights
	cache   *lru.Cache[string, map[string]scoreSet]

	// now is swapped in tests to pin recency scoring.
	now func() time.Time
}

// New returns an Engine with the given dimension weights and score cache
// capacity. The weights are assumed validated (sum 1.0).
func New(weights types.Weights, cacheSize int) (*Engine, error) {
	cache, err := lru.New[string, map[string]scoreSet](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("rerank cache: %w", err)
	}
	return &Engine{weights: weights, cache: cache, now: time.Now}, nil
}

// Rank returns the records scored against query and sorted per strategy:
// highest score first, ties broken by citation count, then title. The input
// slice is not modified.
func (e *Engine) Rank(records []types.Record, query string, strategy types.Strategy) ([]types.Record, types.RerankStats) {
	start := time.Now()
	stats := types.RerankStats{Strategy: strategy}

	out := make([]types.Record, len(records))
	copy(out, records)
	if len(out) == 0 {
		stats.Elapsed = time.Since(start)
		return out, stats
	}

	key := cacheKey(query, out)
	scores, hit := e.cache.Get(key)
	if !hit {
		scores = e.score(out, query)
		e.cache.Add(key, scores)
	}
	stats.CacheHit = hit

	for i := range out {
		s := scores[fingerprint(&out[i])]
		out[i].Relevance = s.Relevance
		out[i].Authority = s.Authority
		out[i].Recency = s.Recency
		out[i].Quality = s.Quality
		out[i].FinalScore = s.Final
	}

	sortBy(out, strategy)
	stats.Elapsed = time.Since(start)
	return out, stats
}

// score computes the full score set for every record, keyed by fingerprint.
func (e *Engine) score(records []types.Record, query string) map[string]scoreSet {
	keywords := extractKeywords(query)
	now := e.now()

	scores := make(map[string]scoreSet, len(records))
	for i := range records {
		r := &records[i]
		s := scoreSet{
			Relevance: scoreRelevance(r, query, keywords),
			Authority: scoreAuthority(r),
			Recency:   scoreRecency(r, now),
			Quality:   scoreQuality(r),
		}
		s.Final = s.Relevance*e.weights.Relevance +
			s.Authority*e.weights.Authority +
			s.Recency*e.weights.Recency +
			s.Quality*e.weights.Quality
		scores[fingerprint(r)] = s
	}
	return scores
}

func sortBy(records []types.Record, strategy types.Strategy) {
	keyOf := func(r *types.Record) float64 {
		switch strategy {
		case types.StrategyRelevance:
			return r.Relevance
		case types.StrategyAuthority:
			return r.Authority
		case types.StrategyRecency:
			return r.Recency
		case types.StrategyCitations:
			return float64(r.CitationCount)
		default:
			return r.FinalScore
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		ki, kj := keyOf(&records[i]), keyOf(&records[j])
		if ki != kj {
			return ki > kj
		}
		if records[i].CitationCount != records[j].CitationCount {
			return records[i].CitationCount > records[j].CitationCount
		}
		return records[i].Title < records[j].Title
	})
}

// fingerprint identifies a record inside a cached score set: the strongest
// identifier it carries, falling back to the lowercased title.
func fingerprint(r *types.Record) string {
	switch {
	case r.DOI != "":
		return "doi:" + r.DOI
	case r.PMID != "":
		return "pmid:" + r.PMID
	case r.NCTID != "":
		return "nct:" + r.NCTID
	default:
		return "title:" + strings.ToLower(r.Title)
	}
}

// cacheKey hashes the normalized query together with the sorted record
// fingerprints. Two calls with the same query and the same result set share
// one cache entry regardless of record order; any change to either produces a
// fresh key, so entries never need invalidation.
func cacheKey(query string, records []types.Record) string {
	prints := make([]string, len(records))
	for i := range records {
		prints[i] = fingerprint(&records[i])
	}
	sort.Strings(prints)

	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	for _, p := range prints {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
