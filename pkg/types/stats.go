// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceState classifies the outcome of a single provider call.
type SourceState string

const (
	SourceOK      SourceState = "ok"
	SourceTimeout SourceState = "timeout"
	SourceError   SourceState = "error"
)

// SourceStatus records how one provider behaved during a fan-out.
type SourceStatus struct {
	// State is ok, timeout, or error.
	State SourceState `json:"state" yaml:"state"`

	// Elapsed is the wall time the provider call took, including a timed-out
	// wait.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// Err carries the causing condition for error states.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`

	// RawCount is the number of raw records the provider returned.
	RawCount int `json:"raw_count" yaml:"raw_count"`
}

// DedupStats describes one deduplication pass.
type DedupStats struct {
	// Input and Output are the record counts before and after merging.
	Input  int `json:"input" yaml:"input"`
	Output int `json:"output" yaml:"output"`

	// ClassSizes is a histogram of merge-class sizes: ClassSizes[3] == 2
	// means two output records were each merged from three inputs.
	ClassSizes map[int]int `json:"class_sizes" yaml:"class_sizes"`

	// FuzzyMerges counts merges established only through the fuzzy
	// title+author key, with no shared identifier. A data-quality signal,
	// not an error.
	FuzzyMerges int `json:"fuzzy_merges" yaml:"fuzzy_merges"`
}

// RerankStats describes one rerank pass.
type RerankStats struct {
	// Strategy is the sort strategy actually used; empty when reranking
	// was disabled for the call.
	Strategy Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// CacheHit reports whether scores were served from the engine's cache.
	CacheHit bool `json:"cache_hit" yaml:"cache_hit"`

	// Elapsed is the scoring and sorting wall time.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// SearchStats aggregates diagnostics for one pipeline invocation.
// Per prd100-pipeline R4.1-R4.4.
type SearchStats struct {
	// Sources maps provider name to its fan-out outcome.
	Sources map[string]SourceStatus `json:"sources" yaml:"sources"`

	// Invalid counts raw records dropped during normalization for lacking
	// a usable title.
	Invalid int `json:"invalid" yaml:"invalid"`

	Dedup  DedupStats  `json:"dedup" yaml:"dedup"`
	Rerank RerankStats `json:"rerank" yaml:"rerank"`

	// Elapsed is the total pipeline wall time.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// SucceededSources returns the number of providers that completed normally.
func (s SearchStats) SucceededSources() int {
	n := 0
	for _, st := range s.Sources {
		if st.State == SourceOK {
			n++
		}
	}
	return n
}
