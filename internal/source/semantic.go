// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/medsearch/internal/httputil"
	"github.com/pdiddy/medsearch/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,publicationDate,citationCount,venue"

// SemanticScholar queries the Semantic Scholar Graph API (R2.3). Without an
// API key the public quota applies; the adapter works either way.
type SemanticScholar struct {
	client  *http.Client
	cfg     types.SourceConfig
	http    types.HTTPConfig
	apiKey  string
	limiter *rate.Limiter
}

// NewSemanticScholar returns a Semantic Scholar adapter.
func NewSemanticScholar(client *http.Client, cfg types.SourceConfig, hc types.HTTPConfig, apiKey string) *SemanticScholar {
	return &SemanticScholar{client: client, cfg: cfg, http: hc, apiKey: apiKey, limiter: newLimiter(cfg.RateLimit)}
}

// Name returns the provider identifier.
func (a *SemanticScholar) Name() string { return "semantic_scholar" }

// Search queries Semantic Scholar and maps the response into raw records.
func (a *SemanticScholar) Search(ctx context.Context, query string, maxResults int) ([]types.RawRecord, error) {
	if maxResults <= 0 {
		maxResults = a.cfg.MaxResults
	}
	if err := wait(ctx, a.limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(maxResults)},
		"fields": {semanticFields},
	}
	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.http.UserAgent)
	if a.apiKey != "" {
		req.Header.Set("x-api-key", a.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var records []types.RawRecord
	for _, paper := range sr.Data {
		var authors []string
		for _, au := range paper.Authors {
			authors = append(authors, au.Name)
		}

		year := ""
		if paper.Year > 0 {
			year = strconv.Itoa(paper.Year)
		}

		rec := types.RawRecord{
			Title:         paper.Title,
			Authors:       strings.Join(authors, ", "),
			Journal:       paper.Venue,
			Year:          year,
			Citations:     paper.CitationCount,
			DOI:           paper.ExternalIDs.DOI,
			PublishedDate: paper.PublicationDate,
			Abstract:      paper.Abstract,
		}
		if paper.ExternalIDs.PubMed != "" {
			rec.PMID = paper.ExternalIDs.PubMed
			rec.URL = "https://pubmed.ncbi.nlm.nih.gov/" + rec.PMID + "/"
		} else if rec.DOI != "" {
			rec.URL = "https://doi.org/" + rec.DOI
		}

		records = append(records, rec)
	}
	return records, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Venue           string              `json:"venue"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	CitationCount   int                 `json:"citationCount"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI    string `json:"DOI"`
	PubMed string `json:"PubMed"`
}
