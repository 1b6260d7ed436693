// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/medsearch/pkg/types"
)

var testNow = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(types.DefaultConfig().Weights, 16)
	require.NoError(t, err)
	e.now = func() time.Time { return testNow }
	return e
}

func TestScoreRelevanceKeywordAndPhrase(t *testing.T) {
	r := types.Record{Title: "Cancer advances"}
	got := scoreRelevance(&r, "cancer", extractKeywords("cancer"))
	// One title keyword hit plus the full-phrase bonus.
	assert.InDelta(t, 3.0+5.0, got, 1e-9)
}

func TestScoreRelevanceSynonym(t *testing.T) {
	r := types.Record{Title: "Tumor growth dynamics"}
	got := scoreRelevance(&r, "cancer", extractKeywords("cancer"))
	// "tumor" matches via synonym expansion (3.0) and earns the synonym
	// bonus (0.8); "cancer" itself never appears, so no phrase bonus.
	assert.InDelta(t, 3.0+0.8, got, 1e-9)
}

func TestScoreRelevanceAbstractPhraseHalfBonus(t *testing.T) {
	r := types.Record{
		Title:    "Unrelated heading",
		Abstract: "We review covid vaccine efficacy in adults.",
	}
	got := scoreRelevance(&r, "covid vaccine", extractKeywords("covid vaccine"))
	// Two abstract keyword hits plus half the phrase bonus.
	assert.InDelta(t, 2*1.5+2.5, got, 1e-9)
}

func TestScoreRelevanceCapped(t *testing.T) {
	r := types.Record{
		Title:    "Cancer treatment and cancer therapy outcomes",
		Abstract: "cancer treatment cancer treatment therapy tumor",
	}
	got := scoreRelevance(&r, "cancer treatment", extractKeywords("cancer treatment"))
	assert.Equal(t, 10.0, got)
}

func TestScoreAuthority(t *testing.T) {
	full := types.Record{
		Sources:       []string{"pubmed"},
		CitationCount: 999,
		DOI:           "10.1/x",
		PMID:          "1",
	}
	assert.Equal(t, 10.0, scoreAuthority(&full))

	unknown := types.Record{Sources: []string{"somewhere_else"}}
	assert.InDelta(t, 1.5, scoreAuthority(&unknown), 1e-9)

	// A merged record inherits the best contributing provider's trust.
	merged := types.Record{Sources: []string{"biorxiv", "pubmed"}}
	assert.InDelta(t, 3.0, scoreAuthority(&merged), 1e-9)
}

func TestScoreRecency(t *testing.T) {
	within := types.Record{PublishedDate: testNow.AddDate(0, 0, -10)}
	assert.Equal(t, 10.0, scoreRecency(&within, testNow))

	lastYear := types.Record{PublishedDate: testNow.AddDate(-1, 0, 0)}
	old := types.Record{PublishedDate: testNow.AddDate(-10, 0, 0)}
	ly, o := scoreRecency(&lastYear, testNow), scoreRecency(&old, testNow)
	assert.Greater(t, ly, o)
	assert.Less(t, ly, 10.0)

	// Ancient papers bottom out at the floor instead of vanishing.
	assert.Equal(t, 1.0, o)

	undated := types.Record{}
	assert.Equal(t, 0.0, scoreRecency(&undated, testNow))
}

func TestScoreQuality(t *testing.T) {
	bare := types.Record{Title: "short"}
	assert.Equal(t, 5.0, scoreQuality(&bare))

	rich := types.Record{
		Title:    "Cardiovascular outcomes in older adults",
		Abstract: strings.Repeat("outcome data ", 20),
		DOI:      "10.1/x",
		PMID:     "1",
	}
	assert.Equal(t, 10.0, scoreQuality(&rich))

	// Overlong titles fall outside the credit window.
	overlong := rich
	overlong.Title = strings.Repeat("a very long title ", 5)
	assert.Equal(t, 9.0, scoreQuality(&overlong))
}

func TestRankWeightedOrdersStrongRecordFirst(t *testing.T) {
	e := newTestEngine(t)
	records := []types.Record{
		{
			Title:   "Unrelated preprint",
			Sources: []string{"biorxiv"},
		},
		{
			Title:         "Covid vaccine efficacy trial",
			Abstract:      "A randomized covid vaccine trial with ninety percent efficacy across age groups.",
			Sources:       []string{"pubmed"},
			DOI:           "10.1/strong",
			PMID:          "100",
			CitationCount: 500,
			PublishedDate: testNow.AddDate(0, 0, -5),
		},
	}

	ranked, stats := e.Rank(records, "covid vaccine", types.StrategyWeighted)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Covid vaccine efficacy trial", ranked[0].Title)
	assert.Equal(t, types.StrategyWeighted, stats.Strategy)
	assert.False(t, stats.CacheHit)

	// Every sub-score and the final score land in [0,10] on every record.
	for _, r := range ranked {
		for _, s := range []float64{r.Relevance, r.Authority, r.Recency, r.Quality, r.FinalScore} {
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 10.0)
		}
	}
}

func TestRankRecencyStrategy(t *testing.T) {
	e := newTestEngine(t)
	records := []types.Record{
		{Title: "Old landmark", DOI: "10.1/old", CitationCount: 90000,
			PublishedDate: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), Sources: []string{"pubmed"}},
		{Title: "Fresh result", DOI: "10.1/new", CitationCount: 2,
			PublishedDate: testNow.AddDate(0, 0, -3), Sources: []string{"medrxiv"}},
	}

	ranked, _ := e.Rank(records, "anything", types.StrategyRecency)
	assert.Equal(t, "Fresh result", ranked[0].Title)

	// The same set under the citations strategy flips the order, using the
	// sub-scores already attached.
	ranked, _ = e.Rank(records, "anything", types.StrategyCitations)
	assert.Equal(t, "Old landmark", ranked[0].Title)
}

func TestRankTieBreaksByCitationsThenTitle(t *testing.T) {
	e := newTestEngine(t)
	records := []types.Record{
		{Title: "Beta", DOI: "10.1/b", Sources: []string{"pubmed"}},
		{Title: "Alpha", DOI: "10.1/a", Sources: []string{"pubmed"}},
		{Title: "Gamma", DOI: "10.1/c", CitationCount: 7, Sources: []string{"pubmed"}},
	}

	ranked, _ := e.Rank(records, "zzz", types.StrategyRelevance)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Gamma", ranked[0].Title)
	assert.Equal(t, "Alpha", ranked[1].Title)
	assert.Equal(t, "Beta", ranked[2].Title)
}

func TestRankCacheHitIsOrderIndependent(t *testing.T) {
	e := newTestEngine(t)
	records := []types.Record{
		{Title: "One", DOI: "10.1/1", Sources: []string{"pubmed"}},
		{Title: "Two", DOI: "10.1/2", Sources: []string{"europe_pmc"}},
	}

	first, stats := e.Rank(records, "Cancer Therapy", types.StrategyWeighted)
	assert.False(t, stats.CacheHit)

	// Same query and set, different input order and query casing: served
	// from cache, bit-identical output.
	shuffled := []types.Record{records[1], records[0]}
	second, stats := e.Rank(shuffled, "  cancer therapy ", types.StrategyWeighted)
	assert.True(t, stats.CacheHit)
	assert.Equal(t, first, second)
}

func TestRankCacheMissOnDifferentQuery(t *testing.T) {
	e := newTestEngine(t)
	records := []types.Record{{Title: "One", DOI: "10.1/1", Sources: []string{"pubmed"}}}

	_, stats := e.Rank(records, "cancer", types.StrategyWeighted)
	assert.False(t, stats.CacheHit)
	_, stats = e.Rank(records, "diabetes", types.StrategyWeighted)
	assert.False(t, stats.CacheHit)
}

func TestRankDoesNotModifyInput(t *testing.T) {
	e := newTestEngine(t)
	records := []types.Record{
		{Title: "A", DOI: "10.1/a", Sources: []string{"pubmed"}},
		{Title: "B", DOI: "10.1/b", Sources: []string{"pubmed"}, CitationCount: 5},
	}

	_, _ = e.Rank(records, "a", types.StrategyCitations)
	assert.Equal(t, "A", records[0].Title)
	assert.Zero(t, records[0].FinalScore)
}

func TestRankEmpty(t *testing.T) {
	e := newTestEngine(t)
	ranked, stats := e.Rank(nil, "cancer", types.StrategyWeighted)
	assert.Empty(t, ranked)
	assert.False(t, stats.CacheHit)
}

func TestExtractKeywords(t *testing.T) {
	got := extractKeywords("The COVID-19 vaccine, for adults!")
	assert.Equal(t, map[string]bool{"covid-19": true, "vaccine": true, "adults": true}, got)
}
