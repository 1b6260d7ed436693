// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"math"
	"strings"
	"time"

	"github.com/pdiddy/medsearch/pkg/types"
)

// Relevance scoring parameters. Title matches dominate, abstract matches
// count about half, author matches are a weak signal.
const (
	titleMatchWeight    = 3.0
	abstractMatchWeight = 1.5
	authorMatchWeight   = 0.5
	phraseMatchBonus    = 5.0
	synonymMatchWeight  = 0.8
)

// sourceAuthority maps provider names to a trust factor in [0,1]. Unknown
// providers get defaultAuthority.
var sourceAuthority = map[string]float64{
	"pubmed":           1.0,
	"europe_pmc":       0.95,
	"semantic_scholar": 0.9,
	"clinical_trials":  0.85,
	"biorxiv":          0.7,
	"medrxiv":          0.7,
}

const defaultAuthority = 0.5

// scoreSet carries the four sub-scores and their weighted combination for
// one record. All values are in [0,10].
type scoreSet struct {
	Relevance float64 `json:"relevance"`
	Authority float64 `json:"authority"`
	Recency   float64 `json:"recency"`
	Quality   float64 `json:"quality"`
	Final     float64 `json:"final"`
}

// scoreRelevance measures keyword and phrase overlap between the query and
// the record's title, abstract, and author list.
func scoreRelevance(r *types.Record, query string, keywords map[string]bool) float64 {
	expanded := expandKeywords(keywords)

	title := strings.ToLower(r.Title)
	abstract := strings.ToLower(r.Abstract)
	titleWords := tokenSet(title)
	abstractWords := tokenSet(abstract)
	authorWords := tokenSet(strings.Join(r.Authors, " "))

	score := 0.0
	score += float64(countOverlap(expanded, titleWords)) * titleMatchWeight
	score += float64(countOverlap(expanded, abstractWords)) * abstractMatchWeight
	score += float64(countOverlap(expanded, authorWords)) * authorMatchWeight

	// Exact phrase hit in the title outranks everything; an abstract hit is
	// worth half.
	phrase := strings.ToLower(strings.TrimSpace(query))
	if phrase != "" {
		if strings.Contains(title, phrase) {
			score += phraseMatchBonus
		} else if strings.Contains(abstract, phrase) {
			score += phraseMatchBonus / 2
		}
	}

	for k := range keywords {
		for _, syn := range synonymDict[k] {
			if titleWords[syn] || abstractWords[syn] {
				score += synonymMatchWeight
			}
		}
	}

	return math.Min(score, 10.0)
}

// scoreAuthority combines provider trust, log-scaled citation count, and
// identifier availability. A record merged from several providers gets the
// best contributing trust factor.
func scoreAuthority(r *types.Record) float64 {
	trust := 0.0
	for _, s := range r.Sources {
		a, ok := sourceAuthority[s]
		if !ok {
			a = defaultAuthority
		}
		if a > trust {
			trust = a
		}
	}
	if len(r.Sources) == 0 {
		trust = defaultAuthority
	}

	score := trust * 3.0
	if r.CitationCount > 0 {
		score += math.Min(math.Log10(float64(r.CitationCount)+1)*2.0, 5.0)
	}
	if r.DOI != "" {
		score += 1.0
	}
	if r.PMID != "" {
		score += 1.0
	}
	return math.Min(score, 10.0)
}

// scoreRecency rewards recent publication: full marks within 30 days of now,
// then exponential decay with a one-year time constant, floored at 1.0 so old
// landmark papers are dampened rather than erased. A record with no date at
// all scores zero.
func scoreRecency(r *types.Record, now time.Time) float64 {
	if r.PublishedDate.IsZero() {
		return 0.0
	}
	days := now.Sub(r.PublishedDate).Hours() / 24
	if days <= 30 {
		return 10.0
	}
	return math.Max(1.0, 10.0*math.Exp(-(days-30)/365))
}

// scoreQuality measures metadata completeness: a title of reasonable length,
// a substantial abstract, and resolvable identifiers, on top of a neutral
// base of 5. Credits sum to exactly 10 when everything is present.
func scoreQuality(r *types.Record) float64 {
	score := 5.0
	if len(r.Title) >= 10 && len(r.Title) <= 50 {
		score += 1.0
	}
	if len(r.Abstract) >= 50 {
		score += 2.0
	}
	if len(r.Abstract) > 200 {
		score += 1.0
	}
	if r.DOI != "" {
		score += 0.5
	}
	if r.PMID != "" {
		score += 0.5
	}
	return math.Min(score, 10.0)
}

func countOverlap(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}
