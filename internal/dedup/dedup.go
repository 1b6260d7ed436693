// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup merges canonical records that describe the same underlying
// work. Identity is established by a cascade of keys — DOI, PMID, NCT ID,
// then a fuzzy title+first-author composite — evaluated over the whole
// candidate set with union–find, so transitive chains (A↔B via DOI, B↔C via
// title) collapse into one merge class. Ambiguous fuzzy matches favor
// recall: borderline records merge rather than split.
// Implements: prd103-dedup (R1-R5);
//
//	docs/ARCHITECTURE § Deduplicator.
package dedup

import (
	"github.com/pdiddy/medsearch/pkg/types"
)

// sourceRank is the fixed provider priority for representative election;
// lower is better. Unknown providers rank last.
var sourceRank = map[string]int{
	"pubmed":           0,
	"europe_pmc":       1,
	"semantic_scholar": 2,
	"clinical_trials":  3,
	"biorxiv":          4,
	"medrxiv":          4,
}

// Deduplicate merges records sharing any identity key and returns one record
// per merge class, in representative insertion order, plus statistics.
// Calling it on already-merged output returns the same records.
func Deduplicate(records []types.Record) ([]types.Record, types.DedupStats) {
	stats := types.DedupStats{
		Input:      len(records),
		ClassSizes: make(map[int]int),
	}
	if len(records) == 0 {
		return nil, stats
	}

	uf := newUnionFind(len(records))

	// Union records sharing a key, strongest key kind first so a fuzzy-only
	// merge is counted only when no identifier already joined the pair.
	firstIdx := make(map[recordKey]int)
	for _, kind := range []keyKind{kindDOI, kindPMID, kindNCT, kindFuzzy} {
		for i := range records {
			for _, k := range keysOf(&records[i]) {
				if k.kind != kind {
					continue
				}
				prev, seen := firstIdx[k]
				if !seen {
					firstIdx[k] = i
					continue
				}
				if uf.union(prev, i) && kind == kindFuzzy {
					stats.FuzzyMerges++
				}
			}
		}
	}

	// Group members per class, preserving insertion order.
	classes := make(map[int][]int)
	var roots []int
	for i := range records {
		root := uf.find(i)
		if _, ok := classes[root]; !ok {
			roots = append(roots, root)
		}
		classes[root] = append(classes[root], i)
	}

	merged := make([]types.Record, 0, len(roots))
	for _, root := range roots {
		members := classes[root]
		rep := electRepresentative(records, members)
		out := records[rep]
		for _, m := range members {
			if m != rep {
				mergeInto(&out, &records[m])
			}
		}
		merged = append(merged, out)
		stats.ClassSizes[len(members)]++
	}

	stats.Output = len(merged)
	return merged, stats
}

// electRepresentative picks the class member with the most populated fields,
// breaking ties by source priority, then by earliest insertion order.
func electRepresentative(records []types.Record, members []int) int {
	best := members[0]
	bestFields := records[best].FieldCount()
	bestRank := bestSourceRank(&records[best])

	for _, m := range members[1:] {
		fields := records[m].FieldCount()
		rank := bestSourceRank(&records[m])
		switch {
		case fields > bestFields:
		case fields == bestFields && rank < bestRank:
		default:
			continue
		}
		best, bestFields, bestRank = m, fields, rank
	}
	return best
}

// bestSourceRank returns the best (lowest) priority rank across a record's
// contributing sources.
func bestSourceRank(r *types.Record) int {
	best := len(sourceRank) + 1
	for _, s := range r.Sources {
		if rank, ok := sourceRank[s]; ok && rank < best {
			best = rank
		}
	}
	return best
}

// mergeInto folds src into the representative dst: provenance is unioned,
// absent fields are filled, citation counts keep the maximum. A non-absent
// field on dst is never overwritten.
func mergeInto(dst *types.Record, src *types.Record) {
	for _, s := range src.Sources {
		dst.AddSource(s)
	}

	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.PMID == "" {
		dst.PMID = src.PMID
	}
	if dst.NCTID == "" {
		dst.NCTID = src.NCTID
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.PublishedDate.IsZero() {
		dst.PublishedDate = src.PublishedDate
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if src.CitationCount > dst.CitationCount {
		dst.CitationCount = src.CitationCount
	}
}
