// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/pdiddy/medsearch/internal/httputil"
	"github.com/pdiddy/medsearch/pkg/types"
)

// europePMCAPIBase is the Europe PMC REST search endpoint. Declared as a
// var so tests can substitute an httptest server.
var europePMCAPIBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

// EuropePMC queries the Europe PMC REST API (R2.1). It also serves as the
// backup path inside the PubMed adapter.
type EuropePMC struct {
	client  *http.Client
	cfg     types.SourceConfig
	http    types.HTTPConfig
	limiter *rate.Limiter
}

// NewEuropePMC returns a Europe PMC adapter.
func NewEuropePMC(client *http.Client, cfg types.SourceConfig, hc types.HTTPConfig) *EuropePMC {
	return &EuropePMC{client: client, cfg: cfg, http: hc, limiter: newLimiter(cfg.RateLimit)}
}

// Name returns the provider identifier.
func (a *EuropePMC) Name() string { return "europe_pmc" }

// Search queries Europe PMC and maps the response into raw records.
func (a *EuropePMC) Search(ctx context.Context, query string, maxResults int) ([]types.RawRecord, error) {
	if maxResults <= 0 {
		maxResults = a.cfg.MaxResults
	}
	if err := wait(ctx, a.limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":      {query},
		"format":     {"json"},
		"pageSize":   {strconv.Itoa(maxResults)},
		"resultType": {"core"},
	}
	reqURL := europePMCAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.http.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Europe PMC API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Europe PMC API returned HTTP %d", resp.StatusCode)
	}

	var er europePMCResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing Europe PMC response: %w", err)
	}

	var records []types.RawRecord
	for _, r := range er.ResultList.Result {
		if len(records) >= maxResults {
			break
		}
		records = append(records, types.RawRecord{
			Title:         r.Title,
			Authors:       r.AuthorString,
			Journal:       r.JournalTitle,
			Year:          r.PubYear,
			Citations:     r.CitedByCount,
			DOI:           r.DOI,
			PMID:          r.PMID,
			PMCID:         r.PMCID,
			PublishedDate: r.FirstPublicationDate,
			URL:           europePMCURL(r),
			Abstract:      r.AbstractText,
		})
	}
	return records, nil
}

// europePMCURL builds a landing-page URL, preferring PubMed over PMC over DOI.
func europePMCURL(r europePMCResult) string {
	switch {
	case r.PMID != "":
		return "https://pubmed.ncbi.nlm.nih.gov/" + r.PMID + "/"
	case r.PMCID != "":
		return "https://www.ncbi.nlm.nih.gov/pmc/articles/" + r.PMCID + "/"
	case r.DOI != "":
		return "https://doi.org/" + r.DOI
	default:
		return ""
	}
}

// Europe PMC API JSON structures.
type europePMCResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	Title                string `json:"title"`
	AuthorString         string `json:"authorString"`
	JournalTitle         string `json:"journalTitle"`
	PubYear              string `json:"pubYear"`
	CitedByCount         int    `json:"citedByCount"`
	DOI                  string `json:"doi"`
	PMID                 string `json:"pmid"`
	PMCID                string `json:"pmcid"`
	FirstPublicationDate string `json:"firstPublicationDate"`
	AbstractText         string `json:"abstractText"`
}
