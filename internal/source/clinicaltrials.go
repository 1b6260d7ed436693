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

// clinicalTrialsAPIBase is the ClinicalTrials.gov v2 studies endpoint.
// Declared as a var so tests can substitute an httptest server.
var clinicalTrialsAPIBase = "https://clinicaltrials.gov/api/v2/studies"

var clinicalTrialsFields = []string{
	"NCTId",
	"BriefTitle",
	"OverallStatus",
	"BriefSummary",
	"Condition",
	"InterventionName",
	"StartDate",
	"LeadSponsorName",
}

// ClinicalTrials queries the ClinicalTrials.gov v2 API (R2.4).
type ClinicalTrials struct {
	client  *http.Client
	cfg     types.SourceConfig
	http    types.HTTPConfig
	limiter *rate.Limiter
}

// NewClinicalTrials returns a ClinicalTrials.gov adapter.
func NewClinicalTrials(client *http.Client, cfg types.SourceConfig, hc types.HTTPConfig) *ClinicalTrials {
	return &ClinicalTrials{client: client, cfg: cfg, http: hc, limiter: newLimiter(cfg.RateLimit)}
}

// Name returns the provider identifier.
func (a *ClinicalTrials) Name() string { return "clinical_trials" }

// Search queries the registry and flattens study protocol sections into raw
// records.
func (a *ClinicalTrials) Search(ctx context.Context, query string, maxResults int) ([]types.RawRecord, error) {
	if maxResults <= 0 {
		maxResults = a.cfg.MaxResults
	}
	if err := wait(ctx, a.limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"query.term": {query},
		"fields":     {strings.Join(clinicalTrialsFields, ",")},
		"pageSize":   {strconv.Itoa(maxResults)},
	}
	reqURL := clinicalTrialsAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.http.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("ClinicalTrials API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ClinicalTrials API returned HTTP %d", resp.StatusCode)
	}

	var cr clinicalTrialsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing ClinicalTrials response: %w", err)
	}

	var records []types.RawRecord
	for _, study := range cr.Studies {
		ps := study.ProtocolSection

		var interventions []string
		for _, iv := range ps.ArmsInterventionsModule.Interventions {
			if iv.Name != "" {
				interventions = append(interventions, iv.Name)
			}
		}

		nctID := ps.IdentificationModule.NCTID
		rec := types.RawRecord{
			Title:         ps.IdentificationModule.BriefTitle,
			Journal:       "ClinicalTrials.gov",
			NCTID:         nctID,
			Status:        ps.StatusModule.OverallStatus,
			Conditions:    strings.Join(ps.ConditionsModule.Conditions, ", "),
			Interventions: strings.Join(interventions, ", "),
			PublishedDate: ps.StatusModule.StartDateStruct.Date,
			Abstract:      ps.DescriptionModule.BriefSummary,
		}
		if nctID != "" {
			rec.URL = "https://clinicaltrials.gov/study/" + nctID
		}
		records = append(records, rec)
	}
	return records, nil
}

// ClinicalTrials.gov v2 API JSON structures (protocol section subset).
type clinicalTrialsResponse struct {
	Studies []struct {
		ProtocolSection struct {
			IdentificationModule struct {
				NCTID      string `json:"nctId"`
				BriefTitle string `json:"briefTitle"`
			} `json:"identificationModule"`
			StatusModule struct {
				OverallStatus   string `json:"overallStatus"`
				StartDateStruct struct {
					Date string `json:"date"`
				} `json:"startDateStruct"`
			} `json:"statusModule"`
			DescriptionModule struct {
				BriefSummary string `json:"briefSummary"`
			} `json:"descriptionModule"`
			ConditionsModule struct {
				Conditions []string `json:"conditions"`
			} `json:"conditionsModule"`
			ArmsInterventionsModule struct {
				Interventions []struct {
					Name string `json:"name"`
				} `json:"interventions"`
			} `json:"armsInterventionsModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
}
