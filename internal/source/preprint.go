// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/pdiddy/medsearch/internal/httputil"
	"github.com/pdiddy/medsearch/pkg/types"
)

// preprintAPIBase is the bioRxiv/medRxiv details endpoint. Declared as a
// var so tests can substitute an httptest server.
var preprintAPIBase = "https://api.biorxiv.org/details"

const (
	// preprintWindowDays is how far back the details feed is fetched.
	preprintWindowDays = 30

	// preprintMaxPages bounds cursor pagination; the feed pages by 100.
	preprintMaxPages = 3
)

// Preprint queries the bioRxiv or medRxiv details feed (R2.5, R2.6). The
// feed has no query parameter, so the adapter fetches a recent window and
// filters it by keyword overlap with the query.
type Preprint struct {
	client  *http.Client
	cfg     types.SourceConfig
	http    types.HTTPConfig
	server  string // "biorxiv" or "medrxiv"
	limiter *rate.Limiter

	// now is overridable in tests so the fetched window is deterministic.
	now func() time.Time
}

// NewPreprint returns an adapter for the given preprint server.
func NewPreprint(client *http.Client, cfg types.SourceConfig, hc types.HTTPConfig, server string) *Preprint {
	return &Preprint{
		client:  client,
		cfg:     cfg,
		http:    hc,
		server:  server,
		limiter: newLimiter(cfg.RateLimit),
		now:     time.Now,
	}
}

// Name returns the provider identifier ("biorxiv" or "medrxiv").
func (a *Preprint) Name() string { return a.server }

// Search fetches the recent submission window and keeps entries whose title
// or abstract overlaps the query keywords, best matches first.
func (a *Preprint) Search(ctx context.Context, query string, maxResults int) ([]types.RawRecord, error) {
	if maxResults <= 0 {
		maxResults = a.cfg.MaxResults
	}

	end := a.now().AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -preprintWindowDays)

	var entries []preprintEntry
	for page := 0; page < preprintMaxPages; page++ {
		batch, total, err := a.fetchPage(ctx, start, end, page*100)
		if err != nil {
			return nil, err
		}
		entries = append(entries, batch...)
		if len(entries) >= total || len(batch) == 0 {
			break
		}
	}

	return filterPreprints(entries, query, a.server, maxResults), nil
}

func (a *Preprint) fetchPage(ctx context.Context, start, end time.Time, cursor int) ([]preprintEntry, int, error) {
	if err := wait(ctx, a.limiter); err != nil {
		return nil, 0, err
	}

	reqURL := fmt.Sprintf("%s/%s/%s/%s/%d",
		preprintAPIBase, a.server, start.Format("2006-01-02"), end.Format("2006-01-02"), cursor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.http.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("%s API request: %w", a.server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%s API returned HTTP %d", a.server, resp.StatusCode)
	}

	var pr preprintResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, 0, fmt.Errorf("parsing %s response: %w", a.server, err)
	}

	total := 0
	if len(pr.Messages) > 0 {
		total, _ = strconv.Atoi(pr.Messages[0].Total)
	}
	return pr.Collection, total, nil
}

// filterPreprints ranks feed entries by keyword overlap with the query and
// returns the top matches as raw records. Entries with no overlap are
// dropped.
func filterPreprints(entries []preprintEntry, query, server string, maxResults int) []types.RawRecord {
	keywords := preprintKeywords(query)
	if len(keywords) == 0 {
		return nil
	}

	type scored struct {
		entry preprintEntry
		hits  int
	}
	var matches []scored
	for _, e := range entries {
		text := strings.ToLower(e.Title + " " + e.Abstract)
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > 0 {
			matches = append(matches, scored{entry: e, hits: hits})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].hits > matches[j].hits })
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	records := make([]types.RawRecord, 0, len(matches))
	for _, m := range matches {
		e := m.entry
		rec := types.RawRecord{
			Title:         e.Title,
			Authors:       e.Authors,
			Journal:       server,
			DOI:           e.DOI,
			PublishedDate: e.Date,
			Abstract:      e.Abstract,
		}
		if e.DOI != "" {
			rec.URL = "https://doi.org/" + e.DOI
		}
		records = append(records, rec)
	}
	return records
}

// preprintKeywords lowercases the query and keeps tokens longer than two
// characters.
func preprintKeywords(query string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	var keywords []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) > 2 {
			keywords = append(keywords, tok)
		}
	}
	return keywords
}

// bioRxiv/medRxiv details feed JSON structures.
type preprintResponse struct {
	Messages []struct {
		Total string `json:"total"`
	} `json:"messages"`
	Collection []preprintEntry `json:"collection"`
}

type preprintEntry struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"` // semicolon-separated "Surname, I."
	DOI      string `json:"doi"`
	Date     string `json:"date"`
	Abstract string `json:"abstract"`
	Category string `json:"category"`
}
