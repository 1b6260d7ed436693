// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps provider-specific raw records into canonical
// records. Identity fields are cleaned of prefixes and case noise here so
// every downstream stage can compare them directly.
// Implements: prd102-canonical (R1-R4);
//
//	docs/ARCHITECTURE § Normalizer.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/medsearch/pkg/types"
)

// Normalize converts one raw record into a canonical record. The second
// return value is false when the record lacks a usable title; such records
// are dropped and counted, never passed downstream.
func Normalize(raw types.RawRecord, sourceName string) (types.Record, bool) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return types.Record{}, false
	}

	citations := raw.Citations
	if citations < 0 {
		citations = 0
	}

	rec := types.Record{
		DOI:           DOI(raw.DOI),
		PMID:          PMID(raw.PMID),
		NCTID:         NCTID(raw.NCTID),
		Title:         title,
		Abstract:      strings.TrimSpace(raw.Abstract),
		Authors:       SplitAuthors(raw.Authors),
		Venue:         strings.TrimSpace(raw.Journal),
		PublishedDate: ParseDate(raw.PublishedDate, raw.Year),
		CitationCount: citations,
		URL:           strings.TrimSpace(raw.URL),
		Sources:       []string{sourceName},
	}
	return rec, true
}

// doiPrefixes are stripped, longest first, before lowercasing.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// DOI normalizes a DOI: trimmed, scheme/prefix stripped, lowercased.
// Empty input stays empty (absent, not blank).
func DOI(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			break
		}
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// PMID normalizes a PubMed identifier: trimmed, "PMID:" prefix stripped.
func PMID(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "pmid:") {
		s = strings.TrimSpace(s[len("pmid:"):])
	}
	return s
}

// NCTID normalizes a ClinicalTrials.gov identifier: trimmed, lowercased,
// "nct:" prefix stripped (the bare "NCT01234567" form keeps its digits and
// its nct stem).
func NCTID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "nct:") {
		s = strings.TrimSpace(s[len("nct:"):])
	}
	return s
}

var authorSeps = regexp.MustCompile(`;|,|\band\b|&`)

// SplitAuthors breaks a provider-joined author string into an ordered list.
// Europe PMC joins with commas ("Sung H, Ferlay J"), preprint servers with
// semicolons ("Garcia, M.; Chen, L."); semicolons win when present so
// "Surname, Initial" pairs stay intact.
func SplitAuthors(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var parts []string
	if strings.Contains(s, ";") {
		parts = strings.Split(s, ";")
	} else {
		parts = authorSeps.Split(s, -1)
	}

	var authors []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			authors = append(authors, p)
		}
	}
	return authors
}

// dateFormats are tried in order against provider date strings.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006 Jan 2",
	"2006 Jan",
	"2006-01",
	"2006",
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ParseDate interprets a provider date string, falling back to a bare year.
// Unparseable input yields the zero time (absent).
func ParseDate(dateStr, year string) time.Time {
	for _, s := range []string{strings.TrimSpace(dateStr), strings.TrimSpace(year)} {
		if s == "" {
			continue
		}
		for _, f := range dateFormats {
			if t, err := time.Parse(f, s); err == nil {
				return t
			}
		}
		// Last resort: any plausible year inside the string.
		if m := yearPattern.FindString(s); m != "" {
			if t, err := time.Parse("2006", m); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
