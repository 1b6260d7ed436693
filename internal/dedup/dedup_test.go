// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/medsearch/pkg/types"
)

func rec(title string, mut ...func(*types.Record)) types.Record {
	r := types.Record{Title: title, Sources: []string{"pubmed"}}
	for _, m := range mut {
		m(&r)
	}
	return r
}

func TestDeduplicateByDOI(t *testing.T) {
	// Normalization happens upstream; records arrive with clean DOIs.
	records := []types.Record{
		rec("Paper A", func(r *types.Record) { r.DOI = "10.1001/jama.1"; r.CitationCount = 10 }),
		rec("Paper A from elsewhere", func(r *types.Record) {
			r.DOI = "10.1001/jama.1"
			r.Sources = []string{"semantic_scholar"}
			r.CitationCount = 25
		}),
		rec("Paper B", func(r *types.Record) { r.DOI = "10.1001/jama.2" }),
	}

	merged, stats := Deduplicate(records)
	require.Len(t, merged, 2)
	assert.Equal(t, 3, stats.Input)
	assert.Equal(t, 2, stats.Output)
	assert.Equal(t, 1, stats.ClassSizes[2])
	assert.Equal(t, 1, stats.ClassSizes[1])
	assert.Zero(t, stats.FuzzyMerges)

	// Citation count keeps the maximum; provenance is unioned.
	assert.Equal(t, 25, merged[0].CitationCount)
	assert.ElementsMatch(t, []string{"pubmed", "semantic_scholar"}, merged[0].Sources)
}

func TestDeduplicateFuzzyTitleAuthor(t *testing.T) {
	records := []types.Record{
		rec("Global cancer statistics 2020", func(r *types.Record) {
			r.Authors = []string{"Sung H"}
			r.Sources = []string{"europe_pmc"}
			r.CitationCount = 40000
		}),
		rec("Global Cancer Statistics 2020.", func(r *types.Record) {
			r.Authors = []string{"Hyuna Sung", "Jacques Ferlay"}
			r.Sources = []string{"semantic_scholar"}
			r.CitationCount = 50000
		}),
	}

	merged, stats := Deduplicate(records)
	require.Len(t, merged, 1)
	assert.Equal(t, 1, stats.FuzzyMerges)
	assert.Equal(t, 50000, merged[0].CitationCount)
	assert.ElementsMatch(t, []string{"europe_pmc", "semantic_scholar"}, merged[0].Sources)
}

func TestDeduplicateTransitiveChain(t *testing.T) {
	// A↔B share a DOI, B↔C share only the fuzzy key: all three must land in
	// one class.
	records := []types.Record{
		rec("A study of things", func(r *types.Record) {
			r.DOI = "10.1/x"
			r.Authors = []string{"Smith J"}
		}),
		rec("Different title entirely", func(r *types.Record) {
			r.DOI = "10.1/x"
			r.Authors = []string{"Lee B"}
		}),
		rec("Different Title, Entirely!", func(r *types.Record) {
			r.Authors = []string{"Lee B"}
		}),
	}

	merged, stats := Deduplicate(records)
	assert.Len(t, merged, 1)
	assert.Equal(t, 1, stats.ClassSizes[3])
	assert.Equal(t, 1, stats.FuzzyMerges)
}

func TestDeduplicateNoSharedIdentifiersInOutput(t *testing.T) {
	records := []types.Record{
		rec("P1", func(r *types.Record) { r.DOI = "10.1/a"; r.PMID = "1" }),
		rec("P2", func(r *types.Record) { r.DOI = "10.1/a"; r.NCTID = "nct1" }),
		rec("P3", func(r *types.Record) { r.PMID = "2" }),
	}

	merged, _ := Deduplicate(records)
	seen := make(map[string]bool)
	for _, m := range merged {
		for _, id := range []string{m.DOI, m.PMID, m.NCTID} {
			if id == "" {
				continue
			}
			assert.False(t, seen[id], "identifier %q appears twice", id)
			seen[id] = true
		}
	}
}

func TestDeduplicateRepresentativeElection(t *testing.T) {
	// The more complete record wins even when it arrived later.
	records := []types.Record{
		rec("Sparse", func(r *types.Record) {
			r.DOI = "10.1/y"
			r.Sources = []string{"biorxiv"}
		}),
		rec("Sparse but richer", func(r *types.Record) {
			r.DOI = "10.1/y"
			r.Abstract = "full abstract"
			r.Venue = "Nature"
			r.PublishedDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			r.Sources = []string{"medrxiv"}
		}),
	}

	merged, _ := Deduplicate(records)
	require.Len(t, merged, 1)
	assert.Equal(t, "Sparse but richer", merged[0].Title)
}

func TestDeduplicateSourcePriorityTieBreak(t *testing.T) {
	// Equal field counts: the higher-priority source's record represents
	// the class.
	records := []types.Record{
		rec("Same paper", func(r *types.Record) {
			r.DOI = "10.1/z"
			r.Abstract = "from biorxiv"
			r.Sources = []string{"biorxiv"}
		}),
		rec("Same paper", func(r *types.Record) {
			r.DOI = "10.1/z"
			r.Abstract = "from pubmed"
			r.Sources = []string{"pubmed"}
		}),
	}

	merged, _ := Deduplicate(records)
	require.Len(t, merged, 1)
	assert.Equal(t, "from pubmed", merged[0].Abstract)
}

func TestDeduplicateFillsAbsentFields(t *testing.T) {
	records := []types.Record{
		rec("Rich", func(r *types.Record) {
			r.DOI = "10.1/q"
			r.PMID = "7"
			r.Abstract = "abstract"
			r.Authors = []string{"Kim S"}
		}),
		rec("Poor", func(r *types.Record) {
			r.DOI = "10.1/q"
			r.NCTID = "nct9"
			r.Venue = "The Lancet"
			r.PublishedDate = time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC)
			r.Sources = []string{"clinical_trials"}
		}),
	}

	merged, _ := Deduplicate(records)
	require.Len(t, merged, 1)
	m := merged[0]
	assert.Equal(t, "Rich", m.Title)
	assert.Equal(t, "7", m.PMID)
	assert.Equal(t, "nct9", m.NCTID)
	assert.Equal(t, "The Lancet", m.Venue)
	assert.False(t, m.PublishedDate.IsZero())
}

func TestDeduplicateIdempotent(t *testing.T) {
	records := []types.Record{
		rec("One", func(r *types.Record) { r.DOI = "10.1/a"; r.Authors = []string{"Sung H"} }),
		rec("One", func(r *types.Record) { r.DOI = "10.1/a" }),
		rec("Two", func(r *types.Record) { r.PMID = "5"; r.Authors = []string{"Lee B"} }),
		rec("Three", func(r *types.Record) { r.Authors = []string{"Kim S"} }),
	}

	once, _ := Deduplicate(records)
	twice, stats := Deduplicate(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, stats.Input, stats.Output)
	assert.Zero(t, stats.FuzzyMerges)
}

func TestDeduplicateEmptyInput(t *testing.T) {
	merged, stats := Deduplicate(nil)
	assert.Empty(t, merged)
	assert.Zero(t, stats.Input)
	assert.Zero(t, stats.Output)
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Global Cancer Statistics 2020.", "global cancer statistics 2020"},
		{"COVID-19:  a   review", "covid 19 a review"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTitle(tt.in), tt.in)
	}
}

func TestSurname(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sung H", "sung"},
		{"Hyuna Sung", "sung"},
		{"Garcia, M.", "garcia"},
		{"Sung HA", "sung"},
		{"sung", "sung"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Surname(tt.in), tt.in)
	}
}

func TestFuzzyKeyRequiresAuthors(t *testing.T) {
	r := rec("Some title")
	assert.Empty(t, FuzzyKey(&r))

	r.Authors = []string{"Sung H"}
	assert.Equal(t, "some title|sung", FuzzyKey(&r))
}
