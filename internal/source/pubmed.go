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

// NCBI E-utilities endpoints. Declared as vars so tests can substitute
// httptest servers.
var (
	pubmedESearchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedESummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// PubMed queries NCBI E-utilities (R2.2): esearch for PMIDs, esummary for
// metadata. E-utilities reject traffic often enough that the adapter carries
// an internal backup path: when the primary path fails and a backup adapter
// is configured, the same query is retried against it with a PubMed-only
// filter. Which path answered is not observable to callers.
type PubMed struct {
	client  *http.Client
	cfg     types.SourceConfig
	http    types.HTTPConfig
	apiKey  string
	backup  Adapter
	limiter *rate.Limiter
}

// NewPubMed returns a PubMed adapter. backup may be nil to disable the
// fallback path.
func NewPubMed(client *http.Client, cfg types.SourceConfig, hc types.HTTPConfig, apiKey string, backup Adapter) *PubMed {
	return &PubMed{
		client:  client,
		cfg:     cfg,
		http:    hc,
		apiKey:  apiKey,
		backup:  backup,
		limiter: newLimiter(cfg.RateLimit),
	}
}

// Name returns the provider identifier.
func (a *PubMed) Name() string { return "pubmed" }

// Search queries PubMed, falling back to the backup path on primary failure.
func (a *PubMed) Search(ctx context.Context, query string, maxResults int) ([]types.RawRecord, error) {
	if maxResults <= 0 {
		maxResults = a.cfg.MaxResults
	}

	records, err := a.searchPrimary(ctx, query, maxResults)
	if err == nil {
		return records, nil
	}
	if ctx.Err() != nil || a.backup == nil {
		return nil, err
	}

	// Restrict the backup query to the MEDLINE subset so the fallback
	// returns PubMed records, not the whole Europe PMC corpus.
	records, backupErr := a.backup.Search(ctx, query+" AND SRC:MED", maxResults)
	if backupErr != nil {
		return nil, fmt.Errorf("pubmed primary: %v; backup: %w", err, backupErr)
	}
	return records, nil
}

func (a *PubMed) searchPrimary(ctx context.Context, query string, maxResults int) ([]types.RawRecord, error) {
	ids, err := a.esearch(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return a.esummary(ctx, ids)
}

// esearch resolves a query into a PMID list.
func (a *PubMed) esearch(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(maxResults)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	if a.apiKey != "" {
		params.Set("api_key", a.apiKey)
	}

	var sr pubmedESearchResponse
	if err := a.getJSON(ctx, pubmedESearchBase+"?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("PubMed esearch: %w", err)
	}
	return sr.ESearchResult.IDList, nil
}

// esummary fetches metadata for a PMID list.
func (a *PubMed) esummary(ctx context.Context, ids []string) ([]types.RawRecord, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}
	if a.apiKey != "" {
		params.Set("api_key", a.apiKey)
	}

	var sr pubmedESummaryResponse
	if err := a.getJSON(ctx, pubmedESummaryBase+"?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("PubMed esummary: %w", err)
	}

	var records []types.RawRecord
	for _, pmid := range ids {
		raw, ok := sr.Result[pmid]
		if !ok {
			continue
		}
		var doc pubmedDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}

		var authors []string
		for _, au := range doc.Authors {
			authors = append(authors, au.Name)
		}

		records = append(records, types.RawRecord{
			Title:         doc.Title,
			Authors:       strings.Join(authors, ", "),
			Journal:       doc.FullJournalName,
			PMID:          pmid,
			DOI:           doc.doi(),
			PublishedDate: doc.PubDate,
			URL:           "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/",
		})
	}
	return records, nil
}

func (a *PubMed) getJSON(ctx context.Context, reqURL string, out any) error {
	if err := wait(ctx, a.limiter); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.http.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// NCBI E-utilities JSON structures.
type pubmedESearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Result maps PMID to a per-record document, but also carries a "uids"
// array alongside the documents; raw messages defer decoding to the PMIDs
// we asked for.
type pubmedESummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDoc struct {
	Title           string `json:"title"`
	FullJournalName string `json:"fulljournalname"`
	PubDate         string `json:"pubdate"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ArticleIDs []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}

func (d pubmedDoc) doi() string {
	for _, id := range d.ArticleIDs {
		if id.IDType == "doi" {
			return id.Value
		}
	}
	return ""
}
