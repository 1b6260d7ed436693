// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the medsearch pipeline.
// Implements: prd101-federation (RawRecord, SourceStatus);
//
//	prd102-canonical (Record);
//	prd105-configuration (Config, Weights).
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

import "time"

// RawRecord is a provider-specific record exactly as one source adapter
// returned it. Fields vary per provider; unused fields stay empty. RawRecords
// are ephemeral: the normalizer consumes them and they are never stored.
type RawRecord struct {
	Title         string `json:"title,omitempty"`
	Authors       string `json:"authors,omitempty"` // provider-joined, e.g. "Sung H, Ferlay J"
	Journal       string `json:"journal,omitempty"`
	Year          string `json:"year,omitempty"`
	Citations     int    `json:"citations,omitempty"`
	DOI           string `json:"doi,omitempty"`
	PMID          string `json:"pmid,omitempty"`
	PMCID         string `json:"pmcid,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	URL           string `json:"url,omitempty"`
	Abstract      string `json:"abstract,omitempty"`

	// Clinical-trial specific fields.
	NCTID         string `json:"nct_id,omitempty"`
	Status        string `json:"status,omitempty"`
	Conditions    string `json:"conditions,omitempty"`
	Interventions string `json:"interventions,omitempty"`
}

// Record is the canonical representation of a single published work after
// normalization. Deduplication merges Records describing the same work and
// reranking fills in the score fields.
//
// Invariants: Title is non-empty, Sources is non-empty, and identity fields
// (DOI, PMID, NCTID) are either absent (empty string) or normalized — never
// a blank or prefixed form.
type Record struct {
	// Identity fields, each optional. Normalized: lowercased, trimmed,
	// stripped of scheme or prefix ("https://doi.org/", "PMID:", "NCT:").
	DOI   string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID  string `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	NCTID string `json:"nct_id,omitempty" yaml:"nct_id,omitempty"`

	// Title is the work title. Always non-empty; records without a usable
	// title are dropped during normalization.
	Title string `json:"title" yaml:"title"`

	// Abstract is the abstract or summary, if the source provided one.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists the authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Venue is the journal, registry, or server label (e.g. "The Lancet",
	// "ClinicalTrials.gov").
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// PublishedDate is the publication date. The zero value means absent.
	PublishedDate time.Time `json:"published_date,omitempty" yaml:"published_date,omitempty"`

	// CitationCount is the citation count reported by the sources; merging
	// keeps the maximum across contributors. Zero means none reported.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// URL points at the work's landing page, if known.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Sources names every provider that contributed to this record. Grows on
	// merge, preserves first-seen order, and is never empty.
	Sources []string `json:"sources" yaml:"sources"`

	// Sub-scores set by the rerank engine, each in [0,10].
	Relevance float64 `json:"relevance_score" yaml:"relevance_score"`
	Authority float64 `json:"authority_score" yaml:"authority_score"`
	Recency   float64 `json:"recency_score" yaml:"recency_score"`
	Quality   float64 `json:"quality_score" yaml:"quality_score"`

	// FinalScore is the weighted combination of the four sub-scores under
	// the active weights, in [0,10].
	FinalScore float64 `json:"final_score" yaml:"final_score"`
}

// HasSource reports whether name already appears in r.Sources.
func (r *Record) HasSource(name string) bool {
	for _, s := range r.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// AddSource appends name to r.Sources unless it is already present.
func (r *Record) AddSource(name string) {
	if !r.HasSource(name) {
		r.Sources = append(r.Sources, name)
	}
}

// FieldCount returns the number of populated canonical fields. Deduplication
// uses it to elect the most complete record in a merge class.
func (r *Record) FieldCount() int {
	n := 0
	for _, s := range []string{r.DOI, r.PMID, r.NCTID, r.Title, r.Abstract, r.Venue, r.URL} {
		if s != "" {
			n++
		}
	}
	if len(r.Authors) > 0 {
		n++
	}
	if !r.PublishedDate.IsZero() {
		n++
	}
	if r.CitationCount > 0 {
		n++
	}
	return n
}
