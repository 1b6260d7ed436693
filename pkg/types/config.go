// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// Strategy selects the sort dimension for ranked results.
// Per prd104-rerank R3.1-R3.5.
type Strategy string

const (
	// StrategyWeighted sorts by the weighted combination of all four
	// sub-scores. This is the default.
	StrategyWeighted Strategy = "weighted"

	// StrategyRelevance, StrategyAuthority, and StrategyRecency sort by a
	// single raw sub-score. The other sub-scores are still computed and
	// attached for observability.
	StrategyRelevance Strategy = "relevance"
	StrategyAuthority Strategy = "authority"
	StrategyRecency   Strategy = "recency"

	// StrategyCitations sorts by raw citation count.
	StrategyCitations Strategy = "citations"
)

// ParseStrategy maps a user-supplied string onto a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyWeighted, StrategyRelevance, StrategyAuthority, StrategyRecency, StrategyCitations:
		return Strategy(s), nil
	case "":
		return StrategyWeighted, nil
	default:
		return "", fmt.Errorf("unknown sort strategy %q (want weighted, relevance, authority, recency, or citations)", s)
	}
}

// HTTPConfig holds shared HTTP settings used by the source adapters.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "medsearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" validate:"required"`
}

// SourceConfig holds per-provider settings.
// Per prd105-configuration R2.1-R2.4.
type SourceConfig struct {
	// Enabled controls whether this provider is queried.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// MaxResults is the per-source result ceiling.
	MaxResults int `json:"max_results" yaml:"max_results" validate:"gte=1,lte=200"`

	// RateLimit is the request rate toward this provider in requests per
	// second. Zero disables client-side rate limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
}

// Weights holds the rerank dimension weights. They must sum to 1.0 within
// WeightTolerance; Config.Validate enforces this at startup.
// Per prd104-rerank R1.1.
type Weights struct {
	Relevance float64 `json:"relevance" yaml:"relevance" validate:"gte=0,lte=1"`
	Authority float64 `json:"authority" yaml:"authority" validate:"gte=0,lte=1"`
	Recency   float64 `json:"recency" yaml:"recency" validate:"gte=0,lte=1"`
	Quality   float64 `json:"quality" yaml:"quality" validate:"gte=0,lte=1"`
}

// WeightTolerance is the allowed deviation of the weight sum from 1.0.
const WeightTolerance = 1e-6

// Sum returns the total of all four weights.
func (w Weights) Sum() float64 {
	return w.Relevance + w.Authority + w.Recency + w.Quality
}

// Config is the validated configuration value object injected into every
// component that needs it. It is constructed once at startup; an invalid
// Config must abort the process before any query is accepted.
// Per prd105-configuration R1.1-R1.5.
type Config struct {
	HTTPConfig `yaml:",inline"`

	// Sources maps provider name to its settings. At least one provider
	// must be enabled.
	Sources map[string]SourceConfig `json:"sources" yaml:"sources" validate:"min=1,dive"`

	// MaxConcurrent is the global ceiling on simultaneous in-flight
	// provider calls, independent of how many sources are configured.
	MaxConcurrent int64 `json:"max_concurrent" yaml:"max_concurrent" validate:"gte=1"`

	// PerSourceTimeout bounds each provider call. A source exceeding it is
	// marked timeout without disturbing its siblings.
	PerSourceTimeout time.Duration `json:"per_source_timeout" yaml:"per_source_timeout" validate:"gt=0"`

	// Weights are the rerank dimension weights.
	Weights Weights `json:"weights" yaml:"weights"`

	// CacheSize is the rerank score cache capacity in entries.
	CacheSize int `json:"cache_size" yaml:"cache_size" validate:"gte=1"`

	// Strategy is the default sort strategy.
	Strategy Strategy `json:"strategy" yaml:"strategy"`

	// MaxResults is the default cap on the merged, ranked result list.
	MaxResults int `json:"max_results" yaml:"max_results" validate:"gte=1"`

	// HistoryPath is the SQLite file recording past searches. Empty
	// disables history.
	HistoryPath string `json:"history_path,omitempty" yaml:"history_path,omitempty"`
}

// SourceNames lists the providers medsearch knows how to query.
var SourceNames = []string{
	"pubmed",
	"europe_pmc",
	"semantic_scholar",
	"clinical_trials",
	"biorxiv",
	"medrxiv",
}

// DefaultConfig returns the built-in configuration. Callers overlay file and
// environment settings on top of it, then Validate.
func DefaultConfig() Config {
	sources := make(map[string]SourceConfig, len(SourceNames))
	for _, name := range SourceNames {
		sources[name] = SourceConfig{Enabled: true, MaxResults: 10, RateLimit: 2}
	}
	// Preprint servers return broad date windows; allow more raw results.
	for _, name := range []string{"biorxiv", "medrxiv"} {
		sources[name] = SourceConfig{Enabled: true, MaxResults: 50, RateLimit: 1}
	}

	return Config{
		HTTPConfig: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "medsearch/0.1 (academic literature aggregator)",
		},
		Sources:          sources,
		MaxConcurrent:    5,
		PerSourceTimeout: 30 * time.Second,
		Weights: Weights{
			Relevance: 0.40,
			Authority: 0.30,
			Recency:   0.20,
			Quality:   0.10,
		},
		CacheSize:  256,
		Strategy:   StrategyWeighted,
		MaxResults: 20,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and returns a descriptive error on the
// first violation. It must be called once at startup; pipeline components
// assume a valid Config.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if diff := math.Abs(c.Weights.Sum() - 1.0); diff > WeightTolerance {
		return fmt.Errorf("invalid configuration: rerank weights sum to %.6f, want 1.0", c.Weights.Sum())
	}

	enabled := 0
	for name, sc := range c.Sources {
		known := false
		for _, n := range SourceNames {
			if n == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("invalid configuration: unknown source %q", name)
		}
		if sc.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("invalid configuration: no sources enabled")
	}

	return nil
}
