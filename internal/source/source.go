// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source implements the per-provider search adapters. Each adapter
// exposes the same capability — query in, raw records out — and hides its
// provider quirks (rate limits, backup endpoints, API keys) behind that
// contract. The orchestrator treats any adapter error or timeout as a
// binary "source failed" signal.
// Implements: prd106-sources (R1-R6);
//
//	docs/ARCHITECTURE § Source Adapters.
package source

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/medsearch/pkg/types"
)

// Adapter searches a single literature provider. Implementations are
// responsible for their own rate limiting and 429 backoff; retries beyond
// that are not their concern.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]types.RawRecord, error)
}

// Keys holds the optional API credentials adapters understand.
type Keys struct {
	// SemanticScholar raises Semantic Scholar rate limits when present.
	SemanticScholar string

	// NCBI raises E-utilities rate limits when present.
	NCBI string
}

// newLimiter returns a client-side limiter for rps requests per second, or
// nil when rate limiting is disabled.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// wait blocks on the limiter if one is configured.
func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// BuildAdapters constructs one adapter per enabled source in cfg. The PubMed
// adapter receives an internal Europe PMC backup path; which path served a
// query is invisible to callers.
func BuildAdapters(cfg types.Config, keys Keys, client *http.Client) []Adapter {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var adapters []Adapter
	for _, name := range types.SourceNames {
		sc, ok := cfg.Sources[name]
		if !ok || !sc.Enabled {
			continue
		}
		switch name {
		case "europe_pmc":
			adapters = append(adapters, NewEuropePMC(client, sc, cfg.HTTPConfig))
		case "pubmed":
			backup := NewEuropePMC(client, sc, cfg.HTTPConfig)
			adapters = append(adapters, NewPubMed(client, sc, cfg.HTTPConfig, keys.NCBI, backup))
		case "semantic_scholar":
			adapters = append(adapters, NewSemanticScholar(client, sc, cfg.HTTPConfig, keys.SemanticScholar))
		case "clinical_trials":
			adapters = append(adapters, NewClinicalTrials(client, sc, cfg.HTTPConfig))
		case "biorxiv":
			adapters = append(adapters, NewPreprint(client, sc, cfg.HTTPConfig, "biorxiv"))
		case "medrxiv":
			adapters = append(adapters, NewPreprint(client, sc, cfg.HTTPConfig, "medrxiv"))
		}
	}
	return adapters
}
